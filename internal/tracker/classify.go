package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineKind identifies which sentence template a captured line matched.
type LineKind int

const (
	LineEnemiesApproach LineKind = iota
	LineSelectAction
	LineUsesOn
	LineUsesMulti
	LineTakesDamage
	LineRecoversMP
	LineRecoversHP
	LineNameDefeated
	LineEnemyDefeated
	LineFindGold
	LineGainExp
)

// String returns the template name for logging.
func (k LineKind) String() string {
	switch k {
	case LineEnemiesApproach:
		return "enemies_approach"
	case LineSelectAction:
		return "select_action"
	case LineUsesOn:
		return "uses_on"
	case LineUsesMulti:
		return "uses_multi"
	case LineTakesDamage:
		return "takes_damage"
	case LineRecoversMP:
		return "recovers_mp"
	case LineRecoversHP:
		return "recovers_hp"
	case LineNameDefeated:
		return "name_defeated"
	case LineEnemyDefeated:
		return "enemy_defeated"
	case LineFindGold:
		return "find_gold"
	case LineGainExp:
		return "gain_exp"
	default:
		return "unknown"
	}
}

// Line is one classified combat-log line with its extracted fields. Only the
// fields relevant to Kind are populated; names carry raw (uncorrected) text.
type Line struct {
	Kind    LineKind
	Source  string
	Target  string
	Ability string
	// Amount is the parsed damage, recovery, gold, or experience value.
	Amount int
}

// reName matches a proper noun up to an optional dash-suffixed instance
// disambiguator ("goblin grunt-2"), which is captured away and discarded:
// the tracker attributes hits to species, not instances.
const reName = `([^-]+)(?:-+.+)?`

// Dots stand in for characters OCR reads unreliably (the leading "y" of
// "you" in particular).
var (
	reEnemiesApproach = regexp.MustCompile(`^(an enemy|enemies) approach(es)?.`)
	reSelectAction    = regexp.MustCompile(`^select an action.`)
	reUsesOn          = regexp.MustCompile(`^` + reName + ` uses (.+) on ` + reName + `\.`)
	reUsesMulti       = regexp.MustCompile(`^` + reName + ` uses (.+)\.`)
	reTakesDamage     = regexp.MustCompile(`^` + reName + ` takes (.+) damage.`)
	reRecoversMP      = regexp.MustCompile(`^` + reName + ` recovers (.+) mp\.`)
	reRecoversHP      = regexp.MustCompile(`^` + reName + ` recovers (.+) hp\.`)
	reNameDefeated    = regexp.MustCompile(`^` + reName + ` is defeated\.`)
	reEnemyDefeated   = regexp.MustCompile(`^the enemy is defeated!`)
	reFindGold        = regexp.MustCompile(`^.ou find (.+) gold.`)
	reGainExp         = regexp.MustCompile(`^.ou gain (.+) experience.`)
)

// ocrDigits maps characters OCR habitually confuses with digits.
var ocrDigits = strings.NewReplacer(
	"o", "0",
	"l", "1",
	"i", "1",
	"s", "5",
	"&", "8",
	"y", "7",
	"?", "7",
)

// ParseOCRInt parses an integer from OCR output, translating known
// look-alike characters to digits first. The literal token "psu" is a
// consistent artifact for one specific UI value and parses as 20.
//
// Postcondition: Returns the parsed value, or an error when the token is
// unrecoverable. Callers must not substitute a guessed value on error.
func ParseOCRInt(s string) (int, error) {
	if s == "psu" {
		return 20, nil
	}
	n, err := strconv.Atoi(ocrDigits.Replace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return n, nil
}

// Classify matches a captured line against the sentence templates in
// priority order and extracts its typed fields. Order matters: uses-on must
// be tried before uses-multi because the latter is a prefix of the former.
//
// Precondition: line is lowercase ASCII (the capture stream guarantees this).
// Postcondition: Returns the classified line, or (nil, nil) when no template
// matches, or a non-nil error when a numeric field is malformed beyond
// OCR correction.
func Classify(line string) (*Line, error) {
	if m := reEnemiesApproach.FindStringSubmatch(line); m != nil {
		return &Line{Kind: LineEnemiesApproach}, nil
	}
	if reSelectAction.MatchString(line) {
		return &Line{Kind: LineSelectAction}, nil
	}
	if m := reUsesOn.FindStringSubmatch(line); m != nil {
		return &Line{Kind: LineUsesOn, Source: m[1], Ability: m[2], Target: m[3]}, nil
	}
	if m := reUsesMulti.FindStringSubmatch(line); m != nil {
		return &Line{Kind: LineUsesMulti, Source: m[1], Ability: m[2]}, nil
	}
	if m := reTakesDamage.FindStringSubmatch(line); m != nil {
		amount, err := ParseOCRInt(m[2])
		if err != nil {
			return nil, fmt.Errorf("takes-damage line %q: %w", line, err)
		}
		return &Line{Kind: LineTakesDamage, Target: m[1], Amount: amount}, nil
	}
	if m := reRecoversMP.FindStringSubmatch(line); m != nil {
		amount, err := ParseOCRInt(m[2])
		if err != nil {
			return nil, fmt.Errorf("recovers-mp line %q: %w", line, err)
		}
		return &Line{Kind: LineRecoversMP, Target: m[1], Amount: amount}, nil
	}
	if m := reRecoversHP.FindStringSubmatch(line); m != nil {
		amount, err := ParseOCRInt(m[2])
		if err != nil {
			return nil, fmt.Errorf("recovers-hp line %q: %w", line, err)
		}
		return &Line{Kind: LineRecoversHP, Target: m[1], Amount: amount}, nil
	}
	if m := reNameDefeated.FindStringSubmatch(line); m != nil {
		return &Line{Kind: LineNameDefeated, Target: m[1]}, nil
	}
	if reEnemyDefeated.MatchString(line) {
		return &Line{Kind: LineEnemyDefeated}, nil
	}
	if m := reFindGold.FindStringSubmatch(line); m != nil {
		amount, err := ParseOCRInt(m[1])
		if err != nil {
			return nil, fmt.Errorf("find-gold line %q: %w", line, err)
		}
		return &Line{Kind: LineFindGold, Amount: amount}, nil
	}
	if m := reGainExp.FindStringSubmatch(line); m != nil {
		amount, err := ParseOCRInt(m[1])
		if err != nil {
			return nil, fmt.Errorf("gain-exp line %q: %w", line, err)
		}
		return &Line{Kind: LineGainExp, Amount: amount}, nil
	}
	return nil, nil
}
