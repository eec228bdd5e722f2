package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
	"github.com/five82/backoffice/internal/logging"
	"github.com/five82/backoffice/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 100, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 70; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeLister struct {
	mu    sync.Mutex
	calls int
	errs  []error // returned in order; nil once exhausted
}

func (f *fakeLister) Refresh(context.Context) (state.Snapshot[appointments.View], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return state.Snapshot[appointments.View]{}, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return state.Snapshot[appointments.View]{}, err
}

func (f *fakeLister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartPoller_RefreshesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lister := &fakeLister{}

	StartPoller(ctx, lister, 5*time.Millisecond, logging.Discard(), nil)

	deadline := time.Now().Add(2 * time.Second)
	for lister.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 3", lister.count())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
}

func TestStartPoller_StopsWhenSessionEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expired := &api.Error{Kind: api.KindRequest, Status: 401, Expired: true}
	lister := &fakeLister{errs: []error{appointments.ErrSuperseded, expired}}

	seen := make(chan error, 4)
	StartPoller(ctx, lister, time.Millisecond, logging.Discard(), func(err error) bool {
		seen <- err
		return api.SessionExpired(err)
	})

	select {
	case err := <-seen:
		if !errors.Is(err, expired) {
			t.Fatalf("onError got %v, want the expired error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onError was not called")
	}

	time.Sleep(20 * time.Millisecond)
	if got := lister.count(); got != 2 {
		t.Fatalf("poller made %d calls after session ended, want 2", got)
	}
}
