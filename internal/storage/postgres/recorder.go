package postgres

import (
	"context"
	"fmt"
	"sync"
)

// StatsRecorder binds the hit and monster repositories to one open
// encounter. It satisfies the tracker's Recorder interface: every hit it
// stores is tagged with the encounter, and every monster species it resolves
// is attached to the encounter on first sight.
type StatsRecorder struct {
	hits     *HitRepository
	monsters *MonsterRepository
	enc      *EncounterRepository

	encounterID int64

	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewStatsRecorder creates a recorder scoped to one encounter.
//
// Precondition: encounterID must reference an open encounter; repositories
// must be non-nil. A zero encounterID records hits without encounter tagging.
func NewStatsRecorder(hits *HitRepository, monsters *MonsterRepository, enc *EncounterRepository, encounterID int64) *StatsRecorder {
	return &StatsRecorder{
		hits:        hits,
		monsters:    monsters,
		enc:         enc,
		encounterID: encounterID,
		seen:        make(map[int64]struct{}),
	}
}

// ResolveMonsterID resolves a species name, attaching the species to the
// encounter the first time it appears.
func (s *StatsRecorder) ResolveMonsterID(ctx context.Context, name string) (int64, error) {
	id, err := s.monsters.ResolveID(ctx, name)
	if err != nil {
		return 0, err
	}
	if s.encounterID == 0 {
		return id, nil
	}

	s.mu.Lock()
	_, known := s.seen[id]
	if !known {
		s.seen[id] = struct{}{}
	}
	s.mu.Unlock()

	if !known {
		if err := s.enc.AddMonster(ctx, s.encounterID, id); err != nil {
			return 0, fmt.Errorf("attaching monster to encounter: %w", err)
		}
	}
	return id, nil
}

// RecordPlayerHit stores one player-damages-monster sample under the encounter.
func (s *StatsRecorder) RecordPlayerHit(ctx context.Context, playerID int64, ability string, monsterID int64, damage int) error {
	return s.hits.RecordPlayerHit(ctx, s.encounterID, playerID, ability, monsterID, damage)
}

// RecordMonsterHit stores one monster-damages-player sample under the encounter.
func (s *StatsRecorder) RecordMonsterHit(ctx context.Context, monsterID int64, ability string, playerID int64, damage int) error {
	return s.hits.RecordMonsterHit(ctx, s.encounterID, monsterID, ability, playerID, damage)
}
