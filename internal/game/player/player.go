// Package player models party members: class, level, gear, and derived stats.
package player

import (
	"fmt"
)

// Class is a playable character class.
type Class string

const (
	Warrior Class = "warrior"
	Wizard  Class = "wizard"
	Cleric  Class = "cleric"
)

// ValidClass reports whether c is a known class.
func ValidClass(c Class) bool {
	switch c {
	case Warrior, Wizard, Cleric:
		return true
	}
	return false
}

// Stats is the full stat block shared by base tables, gear bonuses, boosts,
// and derived totals.
type Stats struct {
	HP           int `yaml:"hp"`
	MP           int `yaml:"mp"`
	Strength     int `yaml:"strength"`
	Defense      int `yaml:"defense"`
	Agility      int `yaml:"agility"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Luck         int `yaml:"luck"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.HP += o.HP
	s.MP += o.MP
	s.Strength += o.Strength
	s.Defense += o.Defense
	s.Agility += o.Agility
	s.Intelligence += o.Intelligence
	s.Wisdom += o.Wisdom
	s.Luck += o.Luck
}

// Values returns the stat block as an ordered slice (hp, mp, str, def, agi,
// int, wis, lck) for storage round-trips.
func (s Stats) Values() []int {
	return []int{s.HP, s.MP, s.Strength, s.Defense, s.Agility, s.Intelligence, s.Wisdom, s.Luck}
}

// StatsFromValues is the inverse of Values.
//
// Precondition: vals must have exactly 8 elements.
func StatsFromValues(vals []int) (Stats, error) {
	if len(vals) != 8 {
		return Stats{}, fmt.Errorf("stat block needs 8 values, got %d", len(vals))
	}
	return Stats{
		HP: vals[0], MP: vals[1],
		Strength: vals[2], Defense: vals[3],
		Agility: vals[4], Intelligence: vals[5],
		Wisdom: vals[6], Luck: vals[7],
	}, nil
}

// MaxLevel is the level cap the base tables cover.
const MaxLevel = 10

// Per-class base stats indexed by level; index 0 is unused padding.
// Values transcribed from the game's observed progression.
var baseTables = map[Class]map[string][MaxLevel + 1]int{
	Warrior: {
		"hp":  {0, 20, 26, 33, 40, 46, 53, 59, 66, 73, 79},
		"mp":  {0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		"str": {0, 14, 17, 20, 23, 26, 28, 31, 34, 37, 40},
		"def": {0, 11, 13, 18, 16, 20, 22, 24, 27, 29, 31},
		"agi": {0, 8, 10, 11, 13, 14, 16, 18, 19, 21, 22},
		"int": {0, 6, 7, 8, 9, 10, 11, 12, 14, 15, 16},
		"wis": {0, 7, 9, 10, 12, 13, 14, 16, 17, 19, 20},
		"lck": {0, 8, 10, 12, 14, 15, 17, 19, 20, 22, 24},
	},
	Wizard: {
		"hp":  {0, 12, 16, 20, 24, 28, 32, 36, 40, 44, 48},
		"mp":  {0, 19, 25, 31, 38, 44, 50, 56, 63, 69, 75},
		"str": {0, 6, 7, 9, 10, 11, 12, 13, 15, 16, 17},
		"def": {0, 8, 9, 11, 12, 14, 16, 17, 19, 20, 22},
		"agi": {0, 11, 13, 16, 18, 20, 22, 24, 27, 29, 31},
		"int": {0, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42},
		"wis": {0, 13, 15, 18, 20, 23, 26, 28, 31, 33, 36},
		"lck": {0, 10, 12, 14, 16, 18, 20, 22, 23, 25, 27},
	},
	Cleric: {
		"hp":  {0, 17, 23, 29, 35, 40, 46, 52, 58, 63, 69},
		"mp":  {0, 11, 15, 19, 23, 26, 30, 34, 38, 41, 45},
		"str": {0, 8, 9, 11, 12, 14, 16, 17, 19, 20, 22},
		"def": {0, 9, 11, 12, 14, 16, 18, 20, 21, 23, 25},
		"agi": {0, 10, 12, 14, 16, 18, 20, 22, 23, 25, 27},
		"int": {0, 12, 15, 17, 20, 22, 25, 27, 30, 32, 35},
		"wis": {0, 12, 14, 16, 19, 21, 23, 26, 28, 30, 33},
		"lck": {0, 11, 13, 16, 18, 20, 22, 24, 27, 29, 31},
	},
}

// BaseStats returns the class base stat block for the given level.
//
// Precondition: class must be valid; 1 <= level <= MaxLevel.
func BaseStats(class Class, level int) (Stats, error) {
	table, ok := baseTables[class]
	if !ok {
		return Stats{}, fmt.Errorf("unknown class %q", class)
	}
	if level < 1 || level > MaxLevel {
		return Stats{}, fmt.Errorf("level must be 1-%d, got %d", MaxLevel, level)
	}
	return Stats{
		HP:           table["hp"][level],
		MP:           table["mp"][level],
		Strength:     table["str"][level],
		Defense:      table["def"][level],
		Agility:      table["agi"][level],
		Intelligence: table["int"][level],
		Wisdom:       table["wis"][level],
		Luck:         table["lck"][level],
	}, nil
}

// GearSlots is the fixed slot order: head, body, mainhand, offhand.
var GearSlots = [4]string{"head", "body", "main", "off"}

// gearCatalog maps gear names to their stat bonuses, keyed per slot.
var gearCatalog = map[string]map[string]Stats{
	"head": {
		"dented_helm": {Defense: 3},
		"mage_hat":    {Defense: 1, Intelligence: 1, Wisdom: 2},
	},
	"body": {
		"leather_armor":  {Defense: 3},
		"tattered_cloak": {Defense: 1, Wisdom: 1},
	},
	"main": {
		"tenderizer":   {Strength: 8},
		"crooked_wand": {Strength: 1, Intelligence: 5},
	},
	"off": {
		"studded_shield": {Defense: 3, Wisdom: 1},
		"bone_bracelet":  {Strength: 1, Defense: 1, Agility: 1, Intelligence: 1, Wisdom: 1, Luck: 1},
	},
}

// GearBonus returns the stat bonus of a named piece of gear in a slot.
func GearBonus(slot, name string) (Stats, error) {
	slotGear, ok := gearCatalog[slot]
	if !ok {
		return Stats{}, fmt.Errorf("unknown gear slot %q", slot)
	}
	bonus, ok := slotGear[name]
	if !ok {
		return Stats{}, fmt.Errorf("unknown %s gear %q", slot, name)
	}
	return bonus, nil
}

// GearOptions lists the gear names available for a slot.
func GearOptions(slot string) []string {
	slotGear := gearCatalog[slot]
	names := make([]string, 0, len(slotGear))
	for n := range slotGear {
		names = append(names, n)
	}
	return names
}

// Gear is a full loadout by slot name.
type Gear struct {
	Head string `yaml:"head"`
	Body string `yaml:"body"`
	Main string `yaml:"main"`
	Off  string `yaml:"off"`
}

// bySlot returns the loadout in GearSlots order.
func (g Gear) bySlot() [4]string {
	return [4]string{g.Head, g.Body, g.Main, g.Off}
}

// Player is a party member build. Stats is derived: base(class, level) plus
// each gear bonus plus boosts.
type Player struct {
	// ID is the persistent database identifier; zero until stored.
	ID int64
	// Class is the player's character class.
	Class Class
	// Level is the character level, 1..MaxLevel.
	Level int
	// Gear is the equipped loadout.
	Gear Gear
	// Boosts are permanent stat boosts consumed by this character.
	Boosts Stats
	// Stats is the derived total stat block.
	Stats Stats
}

// New builds a player and computes its derived stats.
//
// Precondition: class must be valid; level must be 1..MaxLevel; every gear
// name must exist in its slot's catalog.
func New(class Class, level int, gear Gear, boosts Stats) (*Player, error) {
	stats, err := BaseStats(class, level)
	if err != nil {
		return nil, err
	}
	for i, slot := range GearSlots {
		name := gear.bySlot()[i]
		bonus, err := GearBonus(slot, name)
		if err != nil {
			return nil, err
		}
		stats.Add(bonus)
	}
	stats.Add(boosts)

	return &Player{
		Class:  class,
		Level:  level,
		Gear:   gear,
		Boosts: boosts,
		Stats:  stats,
	}, nil
}
