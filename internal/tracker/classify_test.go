package tracker

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// classifyOK accepts require.TestingT so it serves both plain tests and
// rapid property callbacks.
func classifyOK(t require.TestingT, text string) *Line {
	line, err := Classify(text)
	require.NoError(t, err)
	require.NotNil(t, line, "expected %q to match a template", text)
	return line
}

func TestClassifyTemplates(t *testing.T) {
	tests := []struct {
		text string
		want Line
	}{
		{"an enemy approaches.", Line{Kind: LineEnemiesApproach}},
		{"enemies approach!", Line{Kind: LineEnemiesApproach}},
		{"select an action.", Line{Kind: LineSelectAction}},
		{"goblin uses claw on brakus.", Line{Kind: LineUsesOn, Source: "goblin", Ability: "claw", Target: "brakus"}},
		{"goblin grunt-2 uses claw on brakus.", Line{Kind: LineUsesOn, Source: "goblin grunt", Ability: "claw", Target: "brakus"}},
		{"zintis uses chain lightning.", Line{Kind: LineUsesMulti, Source: "zintis", Ability: "chain lightning"}},
		{"goblin-1 takes 12 damage.", Line{Kind: LineTakesDamage, Target: "goblin", Amount: 12}},
		{"zintis recovers 8 mp.", Line{Kind: LineRecoversMP, Target: "zintis", Amount: 8}},
		{"brakus recovers 14 hp.", Line{Kind: LineRecoversHP, Target: "brakus", Amount: 14}},
		{"goblin-1 is defeated.", Line{Kind: LineNameDefeated, Target: "goblin"}},
		{"the enemy is defeated!", Line{Kind: LineEnemyDefeated}},
		{"you find 50 gold.", Line{Kind: LineFindGold, Amount: 50}},
		{"?ou gain 25 experience.", Line{Kind: LineGainExp, Amount: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := classifyOK(t, tt.text)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestClassifyUsesOnBeforeUsesMulti(t *testing.T) {
	// The multi template is a prefix of the targeted one, so ordering
	// decides which wins. A targeted line must never classify as multi.
	got := classifyOK(t, "brakus uses attack on goblin.")
	assert.Equal(t, LineUsesOn, got.Kind)
	assert.Equal(t, "goblin", got.Target)
}

func TestClassifyNoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"walking west",
		"sa 0) menu artifact",
		"brakus- uses on.",
	} {
		line, err := Classify(text)
		require.NoError(t, err)
		assert.Nil(t, line, "expected no match for %q", text)
	}
}

func TestClassifyMalformedNumbers(t *testing.T) {
	for _, text := range []string{
		"goblin takes #@ damage.",
		"you find ___ gold.",
		"you gain -- experience.",
		"brakus recovers xx hp.",
	} {
		_, err := Classify(text)
		assert.Error(t, err, "expected malformed number error for %q", text)
	}
}

func TestParseOCRInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"1o", 10},
		{"l2", 12},
		{"i", 1},
		{"s", 5},
		{"2&", 28},
		{"y", 7},
		{"?", 7},
		{"psu", 20},
		{"2o5", 205},
	}
	for _, tt := range tests {
		got, err := ParseOCRInt(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := ParseOCRInt("#@")
	assert.Error(t, err)
	_, err = ParseOCRInt("")
	assert.Error(t, err)
}

func TestParseOCRIntNeverGuesses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.StringMatching(`[a-z&?]{1,6}`).Draw(t, "in")
		n, err := ParseOCRInt(in)
		if err != nil {
			return
		}
		// Anything that parses must round back through digit translation.
		assert.GreaterOrEqual(t, n, 0)
	})
}

func TestClassifyDigitsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.IntRange(1, 999).Draw(t, "amount")
		line := classifyOK(t, "goblin takes "+strconv.Itoa(amount)+" damage.")
		assert.Equal(t, LineTakesDamage, line.Kind)
		assert.Equal(t, amount, line.Amount)
	})
}
