// Package tracker turns noisy OCR combat-log lines into structured combat
// events and persisted hit samples. It keeps a small state machine that
// mirrors the game's battle flow and tolerates missed or garbled lines by
// logging the inconsistency and resynchronizing instead of refusing input.
package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Phase is the tracker's position in the battle flow.
type Phase int

const (
	// PhaseIdle means no battle is in progress.
	PhaseIdle Phase = iota
	// PhaseSelectingAction means the action menu is open.
	PhaseSelectingAction
	// PhasePlayerAttacking means a single-target player action is pending.
	PhasePlayerAttacking
	// PhasePlayerAttackingMulti means a multi-target player action is
	// resolving, so further damage lines belong to the same action.
	PhasePlayerAttackingMulti
	// PhaseMonsterAttacking means a single-target monster action is pending.
	PhaseMonsterAttacking
	// PhaseMonsterAttackingMulti means a multi-target monster action is
	// resolving.
	PhaseMonsterAttackingMulti
	// PhaseMultiAttack means a multi-target action was announced but no
	// damage line has arrived yet, so the attacker's side is still unknown
	// when the announcement itself was garbled.
	PhaseMultiAttack
	// PhaseItemUse is reserved for item-use lines, which the current
	// template set does not yet capture.
	PhaseItemUse
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelectingAction:
		return "selecting_action"
	case PhasePlayerAttacking:
		return "player_attacking"
	case PhasePlayerAttackingMulti:
		return "player_attacking_multi"
	case PhaseMonsterAttacking:
		return "monster_attacking"
	case PhaseMonsterAttackingMulti:
		return "monster_attacking_multi"
	case PhaseMultiAttack:
		return "multi_attack"
	case PhaseItemUse:
		return "item_use"
	default:
		return "unknown"
	}
}

func isAttacking(p Phase) bool {
	switch p {
	case PhasePlayerAttacking, PhasePlayerAttackingMulti, PhaseMonsterAttacking, PhaseMonsterAttackingMulti:
		return true
	}
	return false
}

func isMulti(p Phase) bool {
	switch p {
	case PhasePlayerAttackingMulti, PhaseMonsterAttackingMulti, PhaseMultiAttack:
		return true
	}
	return false
}

func isPlayerAttacking(p Phase) bool {
	return p == PhasePlayerAttacking || p == PhasePlayerAttackingMulti
}

func isMonsterAttacking(p Phase) bool {
	return p == PhaseMonsterAttacking || p == PhaseMonsterAttackingMulti
}

// Membership answers whether a corrected noun is a party member. Satisfied by
// roster.Roster.
type Membership interface {
	Contains(username string) bool
}

// Recorder persists resolved hits. Satisfied by the postgres stats recorder;
// tests substitute an in-memory fake.
type Recorder interface {
	// ResolveMonsterID returns the stable id for a monster species,
	// creating the species on first sight.
	ResolveMonsterID(ctx context.Context, name string) (int64, error)
	// RecordPlayerHit stores one player-damages-monster sample.
	RecordPlayerHit(ctx context.Context, playerID int64, ability string, monsterID int64, damage int) error
	// RecordMonsterHit stores one monster-damages-player sample.
	RecordMonsterHit(ctx context.Context, monsterID int64, ability string, playerID int64, damage int) error
}

// PlayerIDs maps party usernames to their persistent ids. Satisfied by the
// roster-backed lookup in cmd/tracker.
type PlayerIDs interface {
	// PlayerID returns the persistent id for a username, or false when the
	// player has no stored record.
	PlayerID(username string) (int64, bool)
}

// pendingAction is the announced-but-unresolved action carried between a
// uses line and the damage lines it produces.
type pendingAction struct {
	source  string
	target  string
	ability string
}

// Tracker is the combat-log state machine. Not safe for concurrent use:
// the capture pipeline delivers lines strictly in order to one consumer.
type Tracker struct {
	logger     *zap.Logger
	recorder   Recorder
	players    Membership
	playerIDs  PlayerIDs
	corrector  *NounCorrector
	normalizer *DamageNormalizer

	phase   Phase
	pending pendingAction

	gold       int
	experience int
}

// New creates a tracker in the idle phase.
//
// Precondition: all collaborators must be non-nil.
func New(
	recorder Recorder,
	players Membership,
	playerIDs PlayerIDs,
	corrector *NounCorrector,
	normalizer *DamageNormalizer,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		logger:     logger,
		recorder:   recorder,
		players:    players,
		playerIDs:  playerIDs,
		corrector:  corrector,
		normalizer: normalizer,
		phase:      PhaseIdle,
	}
}

// Phase returns the current phase.
func (t *Tracker) Phase() Phase { return t.phase }

// Gold returns the session's accumulated gold.
func (t *Tracker) Gold() int { return t.gold }

// Experience returns the session's accumulated experience.
func (t *Tracker) Experience() int { return t.experience }

// RegisterNouns adds known proper nouns to the corrector so garbled OCR
// tokens can snap to them.
func (t *Tracker) RegisterNouns(names ...string) {
	t.corrector.Register(names...)
}

// expect checks whether the current phase is one the line's template should
// arrive in. The check is advisory: on mismatch it logs the inconsistency,
// discards the in-flight action, and drops back to idle, then the handler
// proceeds anyway. OCR drops lines often enough that a strict machine would
// wedge.
func (t *Tracker) expect(line *Line, want ...Phase) bool {
	for _, p := range want {
		if t.phase == p {
			return true
		}
	}
	t.logger.Warn("unexpected phase for line",
		zap.Stringer("kind", line.Kind),
		zap.Stringer("phase", t.phase),
	)
	t.reset(PhaseIdle)
	return false
}

// reset moves to the given phase and clears the pending action.
func (t *Tracker) reset(p Phase) {
	t.phase = p
	t.pending = pendingAction{}
}

// ProcessLine classifies one normalized line and advances the state machine.
//
// Postcondition: returns the structured event the line produced (nil when the
// line matched no template or produced no event), or a non-nil error when a
// numeric field was unrecoverable or persistence failed. The machine never
// wedges: any line is accepted in any phase.
func (t *Tracker) ProcessLine(ctx context.Context, text string) (Event, error) {
	line, err := Classify(text)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, nil
	}

	switch line.Kind {
	case LineEnemiesApproach:
		return t.handleEnemiesApproach(line), nil
	case LineSelectAction:
		t.handleSelectAction(line)
		return nil, nil
	case LineUsesOn:
		t.handleUsesOn(line)
		return nil, nil
	case LineUsesMulti:
		t.handleUsesMulti(line)
		return nil, nil
	case LineTakesDamage:
		return t.handleTakesDamage(ctx, line)
	case LineRecoversMP:
		return t.handleRecoversMP(line), nil
	case LineRecoversHP:
		return t.handleRecoversHP(line), nil
	case LineNameDefeated:
		// Defeat of a named combatant carries no tracked information.
		return nil, nil
	case LineEnemyDefeated:
		t.handleEnemyDefeated()
		return nil, nil
	case LineFindGold:
		return t.handleFindGold(line), nil
	case LineGainExp:
		return t.handleGainExp(line), nil
	default:
		return nil, fmt.Errorf("unhandled line kind %v", line.Kind)
	}
}

// handleEnemiesApproach keeps the pending action on the expected path: an
// unresolved multi-target action rides across the battle boundary until a
// new uses line overwrites it.
func (t *Tracker) handleEnemiesApproach(line *Line) Event {
	t.expect(line, PhaseIdle)
	t.phase = PhaseSelectingAction
	return EnemiesApproach{}
}

// handleSelectAction joins the battle at the menu even when its start was
// missed, so a session begun mid-fight still tracks. The pending action is
// kept on the expected path since the next uses line overwrites it anyway.
func (t *Tracker) handleSelectAction(line *Line) {
	t.expect(line,
		PhaseSelectingAction,
		PhasePlayerAttacking, PhasePlayerAttackingMulti,
		PhaseMonsterAttacking, PhaseMonsterAttackingMulti,
	)
	t.phase = PhaseSelectingAction
}

func (t *Tracker) handleUsesOn(line *Line) {
	t.expect(line,
		PhaseSelectingAction,
		PhasePlayerAttacking, PhasePlayerAttackingMulti,
		PhaseMonsterAttacking, PhaseMonsterAttackingMulti,
	)

	source := t.corrector.Correct(line.Source)
	target := t.corrector.Correct(line.Target)
	t.pending = pendingAction{source: source, target: target, ability: line.Ability}

	switch {
	case t.players.Contains(source):
		t.phase = PhasePlayerAttacking
	case t.players.Contains(target):
		t.phase = PhaseMonsterAttacking
	default:
		t.logger.Warn("action with no party member on either side",
			zap.String("source", source),
			zap.String("target", target),
			zap.String("ability", line.Ability),
		)
		t.reset(PhaseIdle)
	}
}

func (t *Tracker) handleUsesMulti(line *Line) {
	t.expect(line,
		PhaseSelectingAction,
		PhasePlayerAttacking, PhasePlayerAttackingMulti,
		PhaseMonsterAttacking, PhaseMonsterAttackingMulti,
		PhaseMultiAttack,
	)

	source := t.corrector.Correct(line.Source)
	t.pending = pendingAction{source: source, ability: line.Ability}
	if t.players.Contains(source) {
		// Target type stays undetermined until the first damage line:
		// a party multi-target ability can hit monsters or heal players.
		t.phase = PhaseMultiAttack
	} else {
		// Monster multi-attacks are not modeled.
		t.logger.Warn("multi action from non-party source",
			zap.String("source", source),
			zap.String("ability", line.Ability),
		)
		t.reset(PhaseIdle)
	}
}

func (t *Tracker) handleTakesDamage(ctx context.Context, line *Line) (Event, error) {
	t.expect(line,
		PhasePlayerAttacking, PhasePlayerAttackingMulti,
		PhaseMonsterAttacking, PhaseMonsterAttackingMulti,
		PhaseMultiAttack,
	)

	if t.pending.source == "" {
		t.logger.Warn("damage line with no pending action",
			zap.String("target", line.Target),
			zap.Int("amount", line.Amount),
		)
		t.reset(PhaseSelectingAction)
		return nil, nil
	}

	target := t.corrector.Correct(line.Target)
	damage := t.normalizer.Normalize(line.Amount)

	// A bare multi-attack announcement left the attacker's side open;
	// the first damage line decides it by roster membership.
	if t.phase == PhaseMultiAttack {
		if t.players.Contains(t.pending.source) {
			t.phase = PhasePlayerAttackingMulti
		} else {
			t.phase = PhaseMonsterAttackingMulti
		}
	}

	var ev Event
	switch {
	case isPlayerAttacking(t.phase):
		if err := t.recordPlayerHit(ctx, t.pending.source, t.pending.ability, target, damage); err != nil {
			return nil, err
		}
		ev = PlayerHit{Source: t.pending.source, Ability: t.pending.ability, Target: target, Damage: damage}
	case isMonsterAttacking(t.phase):
		if err := t.recordMonsterHit(ctx, t.pending.source, t.pending.ability, target, damage); err != nil {
			return nil, err
		}
		ev = MonsterHit{Source: t.pending.source, Ability: t.pending.ability, Target: target, Damage: damage}
	default:
		t.logger.Warn("damage line in non-attacking phase",
			zap.Stringer("phase", t.phase),
			zap.String("target", target),
		)
		t.reset(PhaseIdle)
		return nil, nil
	}

	// Multi-target actions keep resolving across damage lines; a
	// single-target action is spent after one.
	if !isMulti(t.phase) {
		t.reset(PhaseSelectingAction)
	}
	return ev, nil
}

func (t *Tracker) recordPlayerHit(ctx context.Context, source, ability, target string, damage int) error {
	playerID, ok := t.playerIDs.PlayerID(source)
	if !ok {
		t.logger.Warn("player hit not persisted, player has no stored record",
			zap.String("player", source),
		)
		return nil
	}
	monsterID, err := t.recorder.ResolveMonsterID(ctx, target)
	if err != nil {
		return fmt.Errorf("resolving monster %q: %w", target, err)
	}
	if err := t.recorder.RecordPlayerHit(ctx, playerID, ability, monsterID, damage); err != nil {
		return fmt.Errorf("recording player hit: %w", err)
	}
	return nil
}

func (t *Tracker) recordMonsterHit(ctx context.Context, source, ability, target string, damage int) error {
	playerID, ok := t.playerIDs.PlayerID(target)
	if !ok {
		t.logger.Warn("monster hit not persisted, player has no stored record",
			zap.String("player", target),
		)
		return nil
	}
	monsterID, err := t.recorder.ResolveMonsterID(ctx, source)
	if err != nil {
		return fmt.Errorf("resolving monster %q: %w", source, err)
	}
	if err := t.recorder.RecordMonsterHit(ctx, monsterID, ability, playerID, damage); err != nil {
		return fmt.Errorf("recording monster hit: %w", err)
	}
	return nil
}

func (t *Tracker) handleRecoversMP(line *Line) Event {
	t.expect(line, PhasePlayerAttacking)
	target := t.corrector.Correct(line.Target)
	ev := MPRecovered{
		Source:  t.pending.source,
		Ability: t.pending.ability,
		Target:  target,
		Amount:  line.Amount,
	}
	t.reset(PhaseSelectingAction)
	return ev
}

func (t *Tracker) handleRecoversHP(line *Line) Event {
	t.expect(line, PhasePlayerAttacking)
	target := t.corrector.Correct(line.Target)
	ev := HPRecovered{
		Source:  t.pending.source,
		Ability: t.pending.ability,
		Target:  target,
		Amount:  line.Amount,
	}
	t.reset(PhaseSelectingAction)
	return ev
}

// handleEnemyDefeated leaves the pending action in place: a multi-target
// action can fell one enemy and keep resolving against the rest.
func (t *Tracker) handleEnemyDefeated() {
	t.phase = PhaseIdle
}

func (t *Tracker) handleFindGold(line *Line) Event {
	t.gold += line.Amount
	ev := GoldFound{Amount: line.Amount, Total: t.gold}
	t.logger.Info("gold found",
		zap.Int("amount", line.Amount),
		zap.Int("total", t.gold),
	)
	return ev
}

func (t *Tracker) handleGainExp(line *Line) Event {
	t.experience += line.Amount
	ev := ExperienceGained{Amount: line.Amount, Total: t.experience}
	t.logger.Info("experience gained",
		zap.Int("amount", line.Amount),
		zap.Int("total", t.experience),
	)
	return ev
}
