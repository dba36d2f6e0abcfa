package tracker

import "go.uber.org/zap"

// DamageNormalizer corrects a recurring OCR artifact where a spurious digit
// is prepended to a 1-2 digit damage value ("215" read for "15"). True
// damage never exceeds the threshold in the observed game balance, so any
// larger value has its leading hundreds stripped.
type DamageNormalizer struct {
	logger    *zap.Logger
	threshold int
}

// NewDamageNormalizer creates a normalizer with the given plausibility threshold.
//
// Precondition: threshold must be >= 1; logger must be non-nil.
func NewDamageNormalizer(threshold int, logger *zap.Logger) *DamageNormalizer {
	return &DamageNormalizer{logger: logger, threshold: threshold}
}

// Normalize returns the corrected damage value.
//
// Postcondition: Normalize(Normalize(x)) == Normalize(x).
func (n *DamageNormalizer) Normalize(raw int) int {
	if raw <= n.threshold {
		return raw
	}
	corrected := raw - (raw/100)*100
	n.logger.Debug("damage looks too high, stripping leading digits",
		zap.Int("raw", raw),
		zap.Int("corrected", corrected),
	)
	return corrected
}
