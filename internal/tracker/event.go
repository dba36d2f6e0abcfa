package tracker

import "fmt"

// Event is a structured combat event produced by processing one classified
// line. The set of variants is closed: only types in this package satisfy the
// interface, and each variant carries exactly the fields its kind requires,
// so reading a field that does not belong to a variant is a compile error
// rather than a runtime guard.
type Event interface {
	fmt.Stringer
	event()
}

// PlayerHit records a party member damaging a monster.
type PlayerHit struct {
	// Source is the attacking player's username.
	Source string
	// Ability is the attack or spell used.
	Ability string
	// Target is the monster species name (instance suffix already stripped).
	Target string
	// Damage is the normalized damage dealt.
	Damage int
}

func (PlayerHit) event() {}

func (e PlayerHit) String() string {
	return fmt.Sprintf("%s used %s on %s (%d damage)", e.Source, e.Ability, e.Target, e.Damage)
}

// MonsterHit records a monster damaging a party member.
type MonsterHit struct {
	// Source is the monster species name.
	Source string
	// Ability is the attack used.
	Ability string
	// Target is the damaged player's username.
	Target string
	// Damage is the normalized damage dealt.
	Damage int
}

func (MonsterHit) event() {}

func (e MonsterHit) String() string {
	return fmt.Sprintf("%s used %s on %s (%d damage)", e.Source, e.Ability, e.Target, e.Damage)
}

// GoldFound records gold looted after a battle.
type GoldFound struct {
	// Amount is the gold gained by this event.
	Amount int
	// Total is the running gold total for the session after this event.
	Total int
}

func (GoldFound) event() {}

func (e GoldFound) String() string {
	return fmt.Sprintf("you found %d gold", e.Amount)
}

// ExperienceGained records experience earned after a battle.
type ExperienceGained struct {
	// Amount is the experience gained by this event.
	Amount int
	// Total is the running experience total for the session after this event.
	Total int
}

func (ExperienceGained) event() {}

func (e ExperienceGained) String() string {
	return fmt.Sprintf("you gained %d experience", e.Amount)
}

// HPRecovered records a healing ability restoring hit points.
type HPRecovered struct {
	// Source is the caster recorded by the pending action, if any.
	Source string
	// Ability is the healing ability recorded by the pending action, if any.
	Ability string
	// Target is who recovered.
	Target string
	// Amount is the hit points restored.
	Amount int
}

func (HPRecovered) event() {}

func (e HPRecovered) String() string {
	return fmt.Sprintf("%s used %s on %s (%d hp)", e.Source, e.Ability, e.Target, e.Amount)
}

// MPRecovered records an ability restoring magic points.
type MPRecovered struct {
	Source  string
	Ability string
	Target  string
	Amount  int
}

func (MPRecovered) event() {}

func (e MPRecovered) String() string {
	return fmt.Sprintf("%s used %s on %s (%d mp)", e.Source, e.Ability, e.Target, e.Amount)
}

// EnemiesApproach records the start of a battle.
type EnemiesApproach struct{}

func (EnemiesApproach) event() {}

func (EnemiesApproach) String() string {
	return "enemies approach"
}
