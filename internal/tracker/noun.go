package tracker

import (
	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// NounCorrector maps noisy OCR tokens onto the closest known proper noun
// (player usernames and monster species names) by Levenshtein distance.
// Lookups are memoized; the cache is only valid while the registry is
// unchanged, so registering nouns drops it entirely.
//
// Not safe for concurrent use: lines are processed strictly sequentially.
type NounCorrector struct {
	logger      *zap.Logger
	maxDistance int

	// nouns preserves insertion order so distance ties resolve
	// deterministically to the first-registered noun.
	nouns   []string
	present map[string]struct{}
	cache   map[string]string
}

// NewNounCorrector creates an empty corrector.
//
// Precondition: maxDistance must be >= 1; logger must be non-nil.
func NewNounCorrector(maxDistance int, logger *zap.Logger) *NounCorrector {
	return &NounCorrector{
		logger:      logger,
		maxDistance: maxDistance,
		present:     make(map[string]struct{}),
		cache:       make(map[string]string),
	}
}

// Register adds nouns to the registry and invalidates the similarity cache.
// Duplicates are ignored.
//
// Postcondition: every name is a known noun; the cache is empty.
func (c *NounCorrector) Register(names ...string) {
	for _, n := range names {
		if _, ok := c.present[n]; ok {
			continue
		}
		c.present[n] = struct{}{}
		c.nouns = append(c.nouns, n)
	}
	c.cache = make(map[string]string)
}

// Known reports whether s is an exact registered noun.
func (c *NounCorrector) Known(s string) bool {
	_, ok := c.present[s]
	return ok
}

// Correct resolves a raw OCR token to the closest known noun. A known noun
// returns unchanged. Otherwise the minimum-distance noun wins, with the
// search seeded at maxDistance and compared strictly below it, so a token
// farther than maxDistance-1 edits from every noun is returned unchanged
// (treated as unknown rather than forced onto a bad match).
//
// Postcondition: Correct(Correct(s)) == Correct(s).
func (c *NounCorrector) Correct(raw string) string {
	if cached, ok := c.cache[raw]; ok {
		return cached
	}

	best := raw
	bestDist := c.maxDistance
	if _, ok := c.present[raw]; !ok {
		for _, noun := range c.nouns {
			if d := levenshtein.ComputeDistance(raw, noun); d < bestDist {
				bestDist = d
				best = noun
			}
		}
	}

	c.cache[raw] = best
	if best != raw {
		c.logger.Debug("corrected noun",
			zap.String("raw", raw),
			zap.String("corrected", best),
			zap.Int("distance", bestDist),
		)
	}
	return best
}
