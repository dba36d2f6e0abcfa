package capture

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reIgnore drops known UI artifacts the capture region occasionally bleeds
// in: the meal buff indicator and a recurring menu fragment.
var reIgnore = regexp.MustCompile(`(?i)^(meal\)|sa 0\))`)

// asciiFold decomposes accented characters and strips the combining marks,
// so OCR output with stray diacritics folds down to plain ASCII.
var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	norm.NFC,
)

// Stream turns raw capture blobs into clean, deduplicated lines. OCR captures
// the same screen region a few times per second, so consecutive identical
// blobs and consecutive identical lines are both dropped.
//
// Not safe for concurrent use.
type Stream struct {
	minLineLength int

	prevBlob string
	prevLine string
}

// NewStream creates a stream that drops lines shorter than minLineLength
// characters, which are OCR fragments rather than log sentences.
func NewStream(minLineLength int) *Stream {
	return &Stream{minLineLength: minLineLength}
}

// Lines normalizes one captured blob and returns its new lines in order.
//
// Postcondition: returned lines are lowercase ASCII, longer than the minimum
// length, free of UI artifacts, and not equal to the previously emitted line.
func (s *Stream) Lines(blob string) []string {
	folded, _, err := transform.String(asciiFold, blob)
	if err != nil {
		// Folding is best-effort; an undecodable blob passes through
		// and the classifier simply fails to match it.
		folded = blob
	}
	folded = strings.TrimSpace(folded)
	if folded == s.prevBlob {
		return nil
	}
	s.prevBlob = folded

	var lines []string
	for _, raw := range strings.Split(folded, "\n") {
		raw = strings.TrimSpace(raw)
		if len(raw) < s.minLineLength || reIgnore.MatchString(raw) {
			continue
		}
		line := strings.ToLower(raw)
		if line == s.prevLine {
			continue
		}
		s.prevLine = line
		lines = append(lines, line)
	}
	return lines
}
