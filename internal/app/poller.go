package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/backoffice/internal/appointments"
	"github.com/five82/backoffice/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Lister re-lists the current appointment filter. *appointments.Service
// implements it.
type Lister interface {
	Refresh(ctx context.Context) (state.Snapshot[appointments.View], error)
}

// StartPoller launches a background goroutine that re-lists the current
// filter at a fixed cadence, backing off while calls fail. onError sees each
// failure; when it returns true the poller stops. StartPoller returns
// immediately.
func StartPoller(ctx context.Context, lister Lister, interval time.Duration, logger *slog.Logger, onError func(error) bool) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			_, err := lister.Refresh(ctx)
			switch {
			case err == nil:
				failures = 0
			case errors.Is(err, appointments.ErrSuperseded):
				// A user-triggered list took over; its outcome counts instead.
			default:
				failures++
				logger.Warn("appointment poll failed",
					slog.Int("consecutive_failures", failures),
					slog.Any("error", err),
				)
				if onError != nil && onError(err) {
					return
				}
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff returns the poll delay after the given number of
// consecutive failures: base, 2x, 4x ... capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
