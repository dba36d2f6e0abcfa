package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMonsterNotFound is returned when a monster lookup yields no results.
var ErrMonsterNotFound = errors.New("monster not found")

// Monster is a monster species row.
type Monster struct {
	ID   int64
	Name string
}

// MonsterRepository provides monster species persistence. Species ids are
// resolved on every damage line, so resolved names are cached in process;
// species rows are never deleted, which keeps the cache trivially valid.
type MonsterRepository struct {
	db *pgxpool.Pool

	mu    sync.Mutex
	cache map[string]int64
}

// NewMonsterRepository creates a MonsterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMonsterRepository(db *pgxpool.Pool) *MonsterRepository {
	return &MonsterRepository{db: db, cache: make(map[string]int64)}
}

// ResolveID returns the id for a monster species, inserting the species on
// first sight.
//
// Precondition: name must be non-empty.
// Postcondition: the species exists and its id is cached.
func (r *MonsterRepository) ResolveID(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	if id, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	// Concurrent first-sight inserts race benignly: the conflict clause
	// makes both writers converge on the same row.
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO monsters (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving monster %q: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
	return id, nil
}

// GetByName retrieves a monster species by name without creating it.
//
// Postcondition: Returns the Monster or ErrMonsterNotFound.
func (r *MonsterRepository) GetByName(ctx context.Context, name string) (Monster, error) {
	var m Monster
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM monsters WHERE name = $1`,
		name,
	).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Monster{}, ErrMonsterNotFound
		}
		return Monster{}, fmt.Errorf("querying monster: %w", err)
	}
	return m, nil
}

// List retrieves all known monster species ordered by name.
func (r *MonsterRepository) List(ctx context.Context) ([]Monster, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM monsters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing monsters: %w", err)
	}
	defer rows.Close()

	var monsters []Monster
	for rows.Next() {
		var m Monster
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning monster row: %w", err)
		}
		monsters = append(monsters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monsters: %w", err)
	}
	return monsters, nil
}

// Names returns all known species names for seeding the noun corrector.
func (r *MonsterRepository) Names(ctx context.Context) ([]string, error) {
	monsters, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(monsters))
	for _, m := range monsters {
		names = append(names, m.Name)
	}
	return names, nil
}
