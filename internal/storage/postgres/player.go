package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retrommo-tools/retrotracker/internal/game/player"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when attempting to create a duplicate username.
var ErrPlayerExists = errors.New("player already exists")

// PlayerRecord is a stored party member build. Derived stats are not stored:
// they are recomputed from class, level, gear, and boosts on load so a
// rebalanced base table or gear catalog retroactively applies.
type PlayerRecord struct {
	ID        int64
	Username  string
	Player    *player.Player
	CreatedAt time.Time
}

// PlayerRepository provides player persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player build under a username.
//
// Precondition: username must be non-empty; p must be a validly constructed
// player.
// Postcondition: Returns the stored record with ID and CreatedAt set, or
// ErrPlayerExists if the username is taken.
func (r *PlayerRepository) Create(ctx context.Context, username string, p *player.Player) (PlayerRecord, error) {
	rec := PlayerRecord{Username: username, Player: p}
	err := r.db.QueryRow(ctx,
		`INSERT INTO players (
			username, class, level,
			gear_head, gear_body, gear_main, gear_off,
			boost_hp, boost_mp, boost_str, boost_def,
			boost_agi, boost_int, boost_wis, boost_lck
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at`,
		username, string(p.Class), p.Level,
		p.Gear.Head, p.Gear.Body, p.Gear.Main, p.Gear.Off,
		p.Boosts.HP, p.Boosts.MP, p.Boosts.Strength, p.Boosts.Defense,
		p.Boosts.Agility, p.Boosts.Intelligence, p.Boosts.Wisdom, p.Boosts.Luck,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return PlayerRecord{}, ErrPlayerExists
		}
		return PlayerRecord{}, fmt.Errorf("inserting player: %w", err)
	}

	p.ID = rec.ID
	return rec, nil
}

// GetByUsername retrieves a player build by username and rebuilds its
// derived stats.
//
// Precondition: username must be non-empty.
// Postcondition: Returns the record or ErrPlayerNotFound.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (PlayerRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, class, level,
		        gear_head, gear_body, gear_main, gear_off,
		        boost_hp, boost_mp, boost_str, boost_def,
		        boost_agi, boost_int, boost_wis, boost_lck,
		        created_at
		 FROM players WHERE username = $1`,
		username,
	)
	rec, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlayerRecord{}, ErrPlayerNotFound
		}
		return PlayerRecord{}, fmt.Errorf("querying player: %w", err)
	}
	return rec, nil
}

// List retrieves all stored player builds ordered by username.
func (r *PlayerRepository) List(ctx context.Context) ([]PlayerRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, username, class, level,
		        gear_head, gear_body, gear_main, gear_off,
		        boost_hp, boost_mp, boost_str, boost_def,
		        boost_agi, boost_int, boost_wis, boost_lck,
		        created_at
		 FROM players ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		rec, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating players: %w", err)
	}
	return records, nil
}

func scanPlayer(row pgx.Row) (PlayerRecord, error) {
	var (
		rec    PlayerRecord
		class  string
		level  int
		gear   player.Gear
		boosts player.Stats
	)
	err := row.Scan(
		&rec.ID, &rec.Username, &class, &level,
		&gear.Head, &gear.Body, &gear.Main, &gear.Off,
		&boosts.HP, &boosts.MP, &boosts.Strength, &boosts.Defense,
		&boosts.Agility, &boosts.Intelligence, &boosts.Wisdom, &boosts.Luck,
		&rec.CreatedAt,
	)
	if err != nil {
		return PlayerRecord{}, err
	}

	p, err := player.New(player.Class(class), level, gear, boosts)
	if err != nil {
		return PlayerRecord{}, fmt.Errorf("rebuilding player %q: %w", rec.Username, err)
	}
	p.ID = rec.ID
	rec.Player = p
	return rec, nil
}
