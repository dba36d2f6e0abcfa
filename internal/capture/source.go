// Package capture feeds raw text into the tracker. A Captor produces one
// text blob per capture (a screen-region OCR pass in production, a reader in
// tests and replays), and the Stream turns blobs into deduplicated,
// normalized lines.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrSourceExhausted signals that a captor has no more text to produce.
// Finite sources (files, replays) return it; live sources never do.
var ErrSourceExhausted = errors.New("capture source exhausted")

// Captor produces one raw text blob per call. Blobs may repeat when the
// captured region has not changed; the Stream deduplicates.
type Captor interface {
	Capture(ctx context.Context) (string, error)
}

// ReaderSource is a Captor over an io.Reader, yielding one line per capture.
// It backs replay-from-file sessions and tests.
type ReaderSource struct {
	scanner *bufio.Scanner
}

// NewReaderSource creates a captor reading lines from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{scanner: bufio.NewScanner(r)}
}

// Capture returns the next line, or ErrSourceExhausted at end of input.
func (s *ReaderSource) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading capture source: %w", err)
		}
		return "", ErrSourceExhausted
	}
	return s.scanner.Text(), nil
}
