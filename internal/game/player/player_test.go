package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseStatsBounds(t *testing.T) {
	_, err := BaseStats(Warrior, 0)
	assert.Error(t, err)
	_, err = BaseStats(Warrior, MaxLevel+1)
	assert.Error(t, err)
	_, err = BaseStats(Class("bard"), 1)
	assert.Error(t, err)

	s, err := BaseStats(Warrior, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, s.HP)
	assert.Equal(t, 14, s.Strength)
}

func TestNewDerivesStats(t *testing.T) {
	p, err := New(Warrior, 2, Gear{
		Head: "dented_helm",
		Body: "leather_armor",
		Main: "tenderizer",
		Off:  "studded_shield",
	}, Stats{Strength: 2})
	require.NoError(t, err)

	base, err := BaseStats(Warrior, 2)
	require.NoError(t, err)

	assert.Equal(t, base.HP, p.Stats.HP)
	assert.Equal(t, base.Strength+8+2, p.Stats.Strength)
	assert.Equal(t, base.Defense+3+3+3, p.Stats.Defense)
	assert.Equal(t, base.Wisdom+1, p.Stats.Wisdom)
}

func TestNewRejectsUnknownGear(t *testing.T) {
	_, err := New(Wizard, 1, Gear{
		Head: "mage_hat",
		Body: "tattered_cloak",
		Main: "excalibur",
		Off:  "bone_bracelet",
	}, Stats{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excalibur")
}

func TestStatsValuesRoundTrip(t *testing.T) {
	s := Stats{HP: 1, MP: 2, Strength: 3, Defense: 4, Agility: 5, Intelligence: 6, Wisdom: 7, Luck: 8}
	got, err := StatsFromValues(s.Values())
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = StatsFromValues([]int{1, 2, 3})
	assert.Error(t, err)
}

func writePartyFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "party.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParty(t *testing.T) {
	path := writePartyFile(t, `
party:
  - username: brakus
    class: warrior
    level: 3
    gear:
      head: dented_helm
      body: leather_armor
      main: tenderizer
      off: studded_shield
  - username: zintis
    class: wizard
    level: 3
    gear:
      head: mage_hat
      body: tattered_cloak
      main: crooked_wand
      off: bone_bracelet
    boosts:
      intelligence: 3
`)

	members, err := LoadParty(path)
	require.NoError(t, err)
	require.Len(t, members, 2)

	base, err := BaseStats(Wizard, 3)
	require.NoError(t, err)
	assert.Equal(t, base.Intelligence+1+5+1+3, members["zintis"].Stats.Intelligence)
}

func TestLoadPartyRejectsDuplicates(t *testing.T) {
	path := writePartyFile(t, `
party:
  - username: brakus
    class: warrior
    level: 1
    gear: {head: dented_helm, body: leather_armor, main: tenderizer, off: studded_shield}
  - username: brakus
    class: cleric
    level: 1
    gear: {head: dented_helm, body: leather_armor, main: tenderizer, off: studded_shield}
`)

	_, err := LoadParty(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate username")
}

func TestLoadPartyRejectsEmpty(t *testing.T) {
	path := writePartyFile(t, "party: []\n")
	_, err := LoadParty(path)
	assert.Error(t, err)
}
