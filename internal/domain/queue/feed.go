package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Feed delivers the current active patient to a subscriber until the returned
// stop function is called. The default implementation polls; a push-based one
// may be substituted without changing subscribers.
type Feed interface {
	Subscribe(fn func(*ActivePatient)) (stop func())
}

// PollingFeed re-reads the active patient on a fixed interval. Encounters are
// long relative to the interval, so polling is an acceptable stand-in for a
// push channel.
type PollingFeed struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewPollingFeed(svc *Service, interval time.Duration, logger zerolog.Logger) *PollingFeed {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PollingFeed{svc: svc, interval: interval, logger: logger}
}

func (f *PollingFeed) Subscribe(fn func(*ActivePatient)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p, err := f.svc.ActivePatient(ctx)
				if err != nil && !errors.Is(err, ErrNoActivePatient) {
					if ctx.Err() != nil {
						return
					}
					f.logger.Warn().Err(err).Msg("active patient poll failed")
					continue
				}
				fn(p)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}
