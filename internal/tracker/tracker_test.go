package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRecorder captures persisted hits in memory and assigns monster ids in
// first-seen order.
type fakeRecorder struct {
	monsters    map[string]int64
	playerHits  []recordedHit
	monsterHits []recordedHit
	failWith    error
}

type recordedHit struct {
	playerID  int64
	monsterID int64
	ability   string
	damage    int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{monsters: make(map[string]int64)}
}

func (f *fakeRecorder) ResolveMonsterID(_ context.Context, name string) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	if id, ok := f.monsters[name]; ok {
		return id, nil
	}
	id := int64(len(f.monsters) + 1)
	f.monsters[name] = id
	return id, nil
}

func (f *fakeRecorder) RecordPlayerHit(_ context.Context, playerID int64, ability string, monsterID int64, damage int) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.playerHits = append(f.playerHits, recordedHit{playerID: playerID, monsterID: monsterID, ability: ability, damage: damage})
	return nil
}

func (f *fakeRecorder) RecordMonsterHit(_ context.Context, monsterID int64, ability string, playerID int64, damage int) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.monsterHits = append(f.monsterHits, recordedHit{playerID: playerID, monsterID: monsterID, ability: ability, damage: damage})
	return nil
}

// fakeParty implements Membership and PlayerIDs over a username -> id map.
type fakeParty map[string]int64

func (f fakeParty) Contains(username string) bool {
	_, ok := f[username]
	return ok
}

func (f fakeParty) PlayerID(username string) (int64, bool) {
	id, ok := f[username]
	return id, ok
}

func newTestTracker(t *testing.T, party fakeParty, rec *fakeRecorder) *Tracker {
	t.Helper()
	logger := zap.NewNop()
	tr := New(rec, party, party, NewNounCorrector(4, logger), NewDamageNormalizer(110, logger), logger)
	for name := range party {
		tr.RegisterNouns(name)
	}
	tr.RegisterNouns("goblin", "large rat")
	return tr
}

// feed runs lines through the tracker and returns the events produced.
func feed(t *testing.T, tr *Tracker, lines ...string) []Event {
	t.Helper()
	var events []Event
	for _, line := range lines {
		ev, err := tr.ProcessLine(context.Background(), line)
		require.NoError(t, err, "line %q", line)
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func TestMonsterHitsPlayer(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"brakus": 7}, rec)

	events := feed(t, tr,
		"an enemy approaches.",
		"select an action.",
		"goblin uses claw on brakus.",
		"brakus takes 12 damage.",
	)

	require.Len(t, events, 2)
	assert.Equal(t, EnemiesApproach{}, events[0])
	assert.Equal(t, MonsterHit{Source: "goblin", Ability: "claw", Target: "brakus", Damage: 12}, events[1])
	assert.Equal(t, PhaseSelectingAction, tr.Phase())

	require.Len(t, rec.monsterHits, 1)
	assert.Equal(t, recordedHit{playerID: 7, monsterID: rec.monsters["goblin"], ability: "claw", damage: 12}, rec.monsterHits[0])
}

func TestPlayerHitNormalizesDamageAndStripsInstanceSuffix(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"zintis": 3}, rec)

	events := feed(t, tr,
		"an enemy approaches.",
		"zintis uses fireball on goblin-2.",
		"goblin-2 takes 215 damage.",
	)

	require.Len(t, events, 2)
	hit, ok := events[1].(PlayerHit)
	require.True(t, ok, "expected PlayerHit, got %T", events[1])
	assert.Equal(t, "goblin", hit.Target)
	assert.Equal(t, 15, hit.Damage)

	require.Len(t, rec.playerHits, 1)
	assert.Equal(t, 15, rec.playerHits[0].damage)
}

func TestGoldAndExperienceAccumulate(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	events := feed(t, tr,
		"you find 50 gold.",
		"you find 30 gold.",
		"you gain 120 experience.",
	)

	require.Len(t, events, 3)
	assert.Equal(t, GoldFound{Amount: 50, Total: 50}, events[0])
	assert.Equal(t, GoldFound{Amount: 30, Total: 80}, events[1])
	assert.Equal(t, ExperienceGained{Amount: 120, Total: 120}, events[2])
	assert.Equal(t, 80, tr.Gold())
	assert.Equal(t, 120, tr.Experience())
}

func TestGoldParsesOCRArtifacts(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	events := feed(t, tr, "?ou find 1o gold.")
	require.Len(t, events, 1)
	assert.Equal(t, GoldFound{Amount: 10, Total: 10}, events[0])
}

func TestStrayDamageLineProducesNoEvent(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"brakus": 1}, rec)

	ev, err := tr.ProcessLine(context.Background(), "brakus takes 12 damage.")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, PhaseSelectingAction, tr.Phase())
	assert.Empty(t, rec.monsterHits)
	assert.Empty(t, rec.playerHits)
}

func TestStraySelectActionIsNoOp(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	feed(t, tr, "an enemy approaches.")
	require.Equal(t, PhaseSelectingAction, tr.Phase())

	events := feed(t, tr, "select an action.")
	assert.Empty(t, events)
	assert.Equal(t, PhaseSelectingAction, tr.Phase())
}

func TestEnemiesApproachMidBattleResynchronizes(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	feed(t, tr,
		"an enemy approaches.",
		"goblin uses claw on brakus.",
	)
	require.Equal(t, PhaseMonsterAttacking, tr.Phase())

	events := feed(t, tr, "enemies approach.")
	require.Len(t, events, 1)
	assert.Equal(t, EnemiesApproach{}, events[0])
	assert.Equal(t, PhaseSelectingAction, tr.Phase())
}

func TestNounCorrectionAttributesGarbledNames(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"brakus": 9}, rec)

	events := feed(t, tr,
		"an enemy approaches.",
		"gobiin uses claw on brakvs.",
		"brakvs takes 8 damage.",
	)

	require.Len(t, events, 2)
	assert.Equal(t, MonsterHit{Source: "goblin", Ability: "claw", Target: "brakus", Damage: 8}, events[1])
	require.Len(t, rec.monsterHits, 1)
	assert.Equal(t, int64(9), rec.monsterHits[0].playerID)
}

func TestUnknownSourceAndTargetResetsToIdle(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	feed(t, tr,
		"an enemy approaches.",
		"wyvern uses tailwhip on manticore.",
	)
	assert.Equal(t, PhaseIdle, tr.Phase())
}

func TestPlayerMultiAttackHitsEachTarget(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"zintis": 3}, rec)

	events := feed(t, tr,
		"an enemy approaches.",
		"zintis uses chain lightning.",
		"goblin-1 takes 9 damage.",
		"goblin-2 takes 11 damage.",
	)

	require.Len(t, events, 3)
	first, ok := events[1].(PlayerHit)
	require.True(t, ok)
	assert.Equal(t, "chain lightning", first.Ability)
	assert.Equal(t, 9, first.Damage)

	second, ok := events[2].(PlayerHit)
	require.True(t, ok)
	assert.Equal(t, "chain lightning", second.Ability)
	assert.Equal(t, 11, second.Damage)

	// Both instances resolve to the same species.
	require.Len(t, rec.playerHits, 2)
	assert.Equal(t, rec.playerHits[0].monsterID, rec.playerHits[1].monsterID)
	assert.Equal(t, PhasePlayerAttackingMulti, tr.Phase())
}

func TestMonsterMultiAttackIsNotModeled(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"brakus": 1}, rec)

	feed(t, tr,
		"an enemy approaches.",
		"goblin uses fire breath.",
	)
	assert.Equal(t, PhaseIdle, tr.Phase())

	ev, err := tr.ProcessLine(context.Background(), "brakus takes 6 damage.")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Empty(t, rec.monsterHits)
}

// A multi-attack has no end-of-sequence signal, so a stray damage line after
// the last real target is still attributed to the multi-attack. This is a
// known limitation carried over deliberately.
func TestTrailingDamageAfterMultiAttackIsMisattributed(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"zintis": 3}, rec)

	feed(t, tr,
		"an enemy approaches.",
		"zintis uses chain lightning.",
		"goblin-1 takes 9 damage.",
	)
	require.Equal(t, PhasePlayerAttackingMulti, tr.Phase())

	events := feed(t, tr, "large rat takes 4 damage.")
	require.Len(t, events, 1)
	hit, ok := events[0].(PlayerHit)
	require.True(t, ok)
	assert.Equal(t, "chain lightning", hit.Ability)
	assert.Equal(t, "large rat", hit.Target)
}

// An unresolved multi-target action outlives the battle it was announced in:
// victory keeps it, and the next battle's opening line does not clear it, so
// a damage line arriving before any new action still attributes to it.
func TestPendingMultiAttackSurvivesBattleBoundary(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"zintis": 3}, rec)

	feed(t, tr,
		"an enemy approaches.",
		"zintis uses chain lightning.",
		"goblin takes 9 damage.",
		"the enemy is defeated!",
	)
	require.Equal(t, PhaseIdle, tr.Phase())

	feed(t, tr, "enemies approach.")
	require.Equal(t, PhaseSelectingAction, tr.Phase())
	assert.Equal(t, pendingAction{source: "zintis", ability: "chain lightning"}, tr.pending)

	// A fresh action overwrites the stale one.
	events := feed(t, tr,
		"zintis uses attack on large rat.",
		"large rat takes 6 damage.",
	)
	require.Len(t, events, 1)
	hit, ok := events[0].(PlayerHit)
	require.True(t, ok)
	assert.Equal(t, "attack", hit.Ability)
}

func TestEnemyDefeatedEndsBattle(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"zintis": 3}, newFakeRecorder())

	feed(t, tr,
		"an enemy approaches.",
		"zintis uses fireball on goblin.",
		"goblin takes 15 damage.",
		"goblin is defeated.",
		"the enemy is defeated!",
	)
	assert.Equal(t, PhaseIdle, tr.Phase())
}

func TestRecoveryEventsCarryPendingAction(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"caelia": 2, "brakus": 1}, newFakeRecorder())
	tr.RegisterNouns("caelia")

	events := feed(t, tr,
		"an enemy approaches.",
		"caelia uses minor heal on brakus.",
		"brakus recovers 14 hp.",
	)

	require.Len(t, events, 2)
	assert.Equal(t, HPRecovered{Source: "caelia", Ability: "minor heal", Target: "brakus", Amount: 14}, events[1])
	assert.Equal(t, PhaseSelectingAction, tr.Phase())
}

func TestMPRecovery(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"zintis": 3}, newFakeRecorder())

	events := feed(t, tr,
		"an enemy approaches.",
		"zintis uses meditate on zintis.",
		"zintis recovers psu mp.",
	)

	require.Len(t, events, 2)
	assert.Equal(t, MPRecovered{Source: "zintis", Ability: "meditate", Target: "zintis", Amount: 20}, events[1])
}

func TestMalformedNumberIsFatalForTheLine(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	feed(t, tr,
		"an enemy approaches.",
		"goblin uses claw on brakus.",
	)

	_, err := tr.ProcessLine(context.Background(), "brakus takes #@ damage.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes-damage")
}

func TestPersistenceFailurePropagates(t *testing.T) {
	rec := newFakeRecorder()
	rec.failWith = errors.New("connection refused")
	tr := newTestTracker(t, fakeParty{"brakus": 1}, rec)

	feed(t, tr,
		"an enemy approaches.",
		"goblin uses claw on brakus.",
	)

	_, err := tr.ProcessLine(context.Background(), "brakus takes 5 damage.")
	require.Error(t, err)
	assert.ErrorIs(t, err, rec.failWith)
}

func TestUnknownPlayerHitEmitsEventWithoutPersisting(t *testing.T) {
	rec := newFakeRecorder()
	// Party membership without a stored record: id lookup fails.
	trNoIDs := New(rec, fakeParty{"brakus": 1}, fakeParty{}, NewNounCorrector(4, zap.NewNop()), NewDamageNormalizer(110, zap.NewNop()), zap.NewNop())
	trNoIDs.RegisterNouns("brakus", "goblin")

	events := feed(t, trNoIDs,
		"an enemy approaches.",
		"goblin uses claw on brakus.",
		"brakus takes 12 damage.",
	)

	require.Len(t, events, 2)
	assert.IsType(t, MonsterHit{}, events[1])
	assert.Empty(t, rec.monsterHits)
}

func TestUnmatchedLineIsIgnored(t *testing.T) {
	tr := newTestTracker(t, fakeParty{"brakus": 1}, newFakeRecorder())

	ev, err := tr.ProcessLine(context.Background(), "sa 0) garbled menu text")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, PhaseIdle, tr.Phase())
}

func TestFullBattleTranscript(t *testing.T) {
	rec := newFakeRecorder()
	tr := newTestTracker(t, fakeParty{"brakus": 1, "zintis": 2}, rec)

	events := feed(t, tr,
		"enemies approach.",
		"select an action.",
		"brakus uses attack on large rat-1.",
		"large rat-1 takes 7 damage.",
		"select an action.",
		"large rat uses bite on brakus.",
		"brakus takes 3 damage.",
		"select an action.",
		"zintis uses fireball on large rat-1.",
		"large rat-1 takes 118 damage.",
		"large rat-1 is defeated.",
		"the enemy is defeated!",
		"you find 12 gold.",
		"you gain 30 experience.",
	)

	var kinds []string
	for _, ev := range events {
		kinds = append(kinds, fmt.Sprintf("%T", ev))
	}
	assert.Equal(t, []string{
		"tracker.EnemiesApproach",
		"tracker.PlayerHit",
		"tracker.MonsterHit",
		"tracker.PlayerHit",
		"tracker.GoldFound",
		"tracker.ExperienceGained",
	}, kinds)

	// 118 is above the plausibility threshold and loses its leading digit.
	last := events[3].(PlayerHit)
	assert.Equal(t, 18, last.Damage)

	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.Equal(t, 12, tr.Gold())
	assert.Equal(t, 30, tr.Experience())
	assert.Len(t, rec.playerHits, 2)
	assert.Len(t, rec.monsterHits, 1)
}
