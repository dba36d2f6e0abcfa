package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HitSample is one recorded damage roll for an ability, used by the query
// tooling to build per-ability damage distributions.
type HitSample struct {
	Ability string
	Damage  int
}

// HitRepository stores individual damage samples for both hit directions.
type HitRepository struct {
	db *pgxpool.Pool
}

// NewHitRepository creates a HitRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewHitRepository(db *pgxpool.Pool) *HitRepository {
	return &HitRepository{db: db}
}

// RecordPlayerHit stores one player-damages-monster sample.
//
// Precondition: playerID and monsterID must reference existing rows.
// encounterID may be zero when no encounter is open.
func (r *HitRepository) RecordPlayerHit(ctx context.Context, encounterID, playerID int64, ability string, monsterID int64, damage int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO player_hit_monster (player_id, encounter_id, monster_id, ability, damage)
		 VALUES ($1, $2, $3, $4, $5)`,
		playerID, nullableID(encounterID), monsterID, ability, damage,
	)
	if err != nil {
		return fmt.Errorf("inserting player hit: %w", err)
	}
	return nil
}

// RecordMonsterHit stores one monster-damages-player sample.
//
// Precondition: playerID and monsterID must reference existing rows.
// encounterID may be zero when no encounter is open.
func (r *HitRepository) RecordMonsterHit(ctx context.Context, encounterID, monsterID int64, ability string, playerID int64, damage int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO monster_hit_player (player_id, encounter_id, monster_id, ability, damage)
		 VALUES ($1, $2, $3, $4, $5)`,
		playerID, nullableID(encounterID), monsterID, ability, damage,
	)
	if err != nil {
		return fmt.Errorf("inserting monster hit: %w", err)
	}
	return nil
}

// PlayerHitSamples returns every damage sample a player has dealt to a
// monster species, ordered by ability.
func (r *HitRepository) PlayerHitSamples(ctx context.Context, username, monster string) ([]HitSample, error) {
	return r.samples(ctx,
		`SELECT h.ability, h.damage
		 FROM player_hit_monster AS h
		 JOIN players AS p ON h.player_id = p.id
		 JOIN monsters AS m ON h.monster_id = m.id
		 WHERE p.username = $1 AND m.name = $2
		 ORDER BY h.ability, h.id`,
		username, monster,
	)
}

// MonsterHitSamples returns every damage sample a monster species has dealt
// to a player, ordered by ability.
func (r *HitRepository) MonsterHitSamples(ctx context.Context, username, monster string) ([]HitSample, error) {
	return r.samples(ctx,
		`SELECT h.ability, h.damage
		 FROM monster_hit_player AS h
		 JOIN players AS p ON h.player_id = p.id
		 JOIN monsters AS m ON h.monster_id = m.id
		 WHERE p.username = $1 AND m.name = $2
		 ORDER BY h.ability, h.id`,
		username, monster,
	)
}

func (r *HitRepository) samples(ctx context.Context, query string, args ...any) ([]HitSample, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hit samples: %w", err)
	}
	defer rows.Close()

	var samples []HitSample
	for rows.Next() {
		var s HitSample
		if err := rows.Scan(&s.Ability, &s.Damage); err != nil {
			return nil, fmt.Errorf("scanning hit sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hit samples: %w", err)
	}
	return samples, nil
}

// nullableID maps the zero id to SQL NULL.
func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
