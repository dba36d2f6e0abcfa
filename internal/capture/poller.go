package capture

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Poller drives a Captor on a fixed interval and delivers the resulting
// clean lines to a single consumer channel.
type Poller struct {
	logger   *zap.Logger
	captor   Captor
	stream   *Stream
	interval time.Duration

	lines chan string
}

// NewPoller creates a poller.
//
// Precondition: interval must be > 0; all collaborators must be non-nil.
func NewPoller(captor Captor, stream *Stream, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		logger:   logger,
		captor:   captor,
		stream:   stream,
		interval: interval,
		lines:    make(chan string),
	}
}

// Lines returns the channel the poller delivers on. Closed when Run returns.
func (p *Poller) Lines() <-chan string {
	return p.lines
}

// Run polls the captor until the context is canceled or the source is
// exhausted. Capture errors other than exhaustion are logged and the poll
// retried on the next tick: a transient OCR failure must not end the session.
//
// Postcondition: the lines channel is closed.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.lines)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		blob, err := p.captor.Capture(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceExhausted) {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("capture failed", zap.Error(err))
			continue
		}

		for _, line := range p.stream.Lines(blob) {
			p.logger.Debug("captured line", zap.String("line", line))
			select {
			case p.lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
