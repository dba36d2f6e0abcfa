package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// Encounter is one tracked grinding session: a contiguous run of battles
// with its loot totals.
type Encounter struct {
	ID        int64
	Session   uuid.UUID
	StartedAt time.Time
	EndedAt   *time.Time
	Gold      int
	Exp       int
}

// EncounterRepository provides encounter persistence operations.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Create opens a new encounter under a fresh session id.
//
// Postcondition: Returns the open encounter with ID, Session, and StartedAt set.
func (r *EncounterRepository) Create(ctx context.Context) (Encounter, error) {
	enc := Encounter{Session: uuid.New()}
	err := r.db.QueryRow(ctx,
		`INSERT INTO encounters (session) VALUES ($1)
		 RETURNING id, started_at`,
		enc.Session,
	).Scan(&enc.ID, &enc.StartedAt)
	if err != nil {
		return Encounter{}, fmt.Errorf("inserting encounter: %w", err)
	}
	return enc, nil
}

// AddPlayer associates a party member with an encounter.
//
// Precondition: encounterID and playerID must reference existing rows.
func (r *EncounterRepository) AddPlayer(ctx context.Context, encounterID int64, username string, playerID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO encounter_players (encounter_id, username, player_id)
		 VALUES ($1, $2, $3)`,
		encounterID, username, playerID,
	)
	if err != nil {
		return fmt.Errorf("adding encounter player: %w", err)
	}
	return nil
}

// AddMonster associates a monster species with an encounter.
//
// Precondition: encounterID and monsterID must reference existing rows.
func (r *EncounterRepository) AddMonster(ctx context.Context, encounterID, monsterID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO encounter_monsters (encounter_id, monster_id)
		 VALUES ($1, $2)`,
		encounterID, monsterID,
	)
	if err != nil {
		return fmt.Errorf("adding encounter monster: %w", err)
	}
	return nil
}

// UpdateGold stores the encounter's running gold total.
//
// Postcondition: returns ErrEncounterNotFound when the id is unknown.
func (r *EncounterRepository) UpdateGold(ctx context.Context, encounterID int64, gold int) error {
	return r.update(ctx, `UPDATE encounters SET gold = $1 WHERE id = $2`, gold, encounterID)
}

// UpdateExp stores the encounter's running experience total.
//
// Postcondition: returns ErrEncounterNotFound when the id is unknown.
func (r *EncounterRepository) UpdateExp(ctx context.Context, encounterID int64, exp int) error {
	return r.update(ctx, `UPDATE encounters SET exp = $1 WHERE id = $2`, exp, encounterID)
}

// Finish closes an encounter, stamping its end time.
//
// Postcondition: returns ErrEncounterNotFound when the id is unknown.
func (r *EncounterRepository) Finish(ctx context.Context, encounterID int64) error {
	return r.update(ctx, `UPDATE encounters SET ended_at = now() WHERE id = $1`, encounterID)
}

func (r *EncounterRepository) update(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEncounterNotFound
	}
	return nil
}

// Get retrieves one encounter by id.
//
// Postcondition: Returns the Encounter or ErrEncounterNotFound.
func (r *EncounterRepository) Get(ctx context.Context, encounterID int64) (Encounter, error) {
	var enc Encounter
	err := r.db.QueryRow(ctx,
		`SELECT id, session, started_at, ended_at,
		        COALESCE(gold, 0), COALESCE(exp, 0)
		 FROM encounters WHERE id = $1`,
		encounterID,
	).Scan(&enc.ID, &enc.Session, &enc.StartedAt, &enc.EndedAt, &enc.Gold, &enc.Exp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Encounter{}, ErrEncounterNotFound
		}
		return Encounter{}, fmt.Errorf("querying encounter: %w", err)
	}
	return enc, nil
}

// EncounterPlayerTotals summarizes one party member's damage within an
// encounter.
type EncounterPlayerTotals struct {
	Username string
	Dealt    int
	Taken    int
}

// Detail retrieves an encounter together with per-player damage totals.
//
// Postcondition: Returns ErrEncounterNotFound when the id is unknown; totals
// are ordered by username and include members with no recorded hits.
func (r *EncounterRepository) Detail(ctx context.Context, encounterID int64) (Encounter, []EncounterPlayerTotals, error) {
	enc, err := r.Get(ctx, encounterID)
	if err != nil {
		return Encounter{}, nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT ep.username, COALESCE(d.dealt, 0), COALESCE(t.taken, 0)
		 FROM encounter_players ep
		 LEFT JOIN (
		     SELECT player_id, SUM(damage) AS dealt
		     FROM player_hit_monster WHERE encounter_id = $1
		     GROUP BY player_id
		 ) d ON d.player_id = ep.player_id
		 LEFT JOIN (
		     SELECT player_id, SUM(damage) AS taken
		     FROM monster_hit_player WHERE encounter_id = $1
		     GROUP BY player_id
		 ) t ON t.player_id = ep.player_id
		 WHERE ep.encounter_id = $1
		 ORDER BY ep.username`,
		encounterID,
	)
	if err != nil {
		return Encounter{}, nil, fmt.Errorf("querying encounter totals: %w", err)
	}
	defer rows.Close()

	var totals []EncounterPlayerTotals
	for rows.Next() {
		var t EncounterPlayerTotals
		if err := rows.Scan(&t.Username, &t.Dealt, &t.Taken); err != nil {
			return Encounter{}, nil, fmt.Errorf("scanning encounter totals row: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return Encounter{}, nil, fmt.Errorf("iterating encounter totals: %w", err)
	}
	return enc, totals, nil
}

// List retrieves all encounters, most recent first.
func (r *EncounterRepository) List(ctx context.Context) ([]Encounter, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session, started_at, ended_at,
		        COALESCE(gold, 0), COALESCE(exp, 0)
		 FROM encounters ORDER BY started_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	var encounters []Encounter
	for rows.Next() {
		var enc Encounter
		if err := rows.Scan(&enc.ID, &enc.Session, &enc.StartedAt, &enc.EndedAt, &enc.Gold, &enc.Exp); err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		encounters = append(encounters, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating encounters: %w", err)
	}
	return encounters, nil
}
