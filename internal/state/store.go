package state

import (
	"context"
	"sync"
	"time"
)

// Phase is the load state of a view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Ticket identifies one load. Only the newest ticket may resolve.
type Ticket uint64

// Snapshot represents the latest data available to the UI.
type Snapshot[T any] struct {
	Data                T
	Phase               Phase
	HasData             bool // at least one load succeeded
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when loads have failed several times in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent loads and updates of one view.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
	current  Ticket
	cancel   context.CancelFunc
	clone    func(T) T
}

// NewStore builds a Store. clone copies T for snapshots; nil copies by value.
func NewStore[T any](clone func(T) T) *Store[T] {
	return &Store[T]{clone: clone}
}

// Begin starts a new load, cancelling the context of the previous one. The
// returned context is cancelled when a newer load begins.
func (s *Store[T]) Begin(ctx context.Context) (context.Context, Ticket) {
	loadCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.current++
	s.cancel = cancel
	s.snapshot.Phase = PhaseLoading
	return loadCtx, s.current
}

// Resolve applies the outcome of the load identified by t. When err is
// non-nil the previous data is kept but the error is recorded. A stale ticket
// changes nothing and Resolve reports false.
func (s *Store[T]) Resolve(t Ticket, data T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.current {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.Phase = PhaseFailed
		s.snapshot.ConsecutiveFailures++
		return true
	}
	s.snapshot.Data = s.copy(data)
	s.snapshot.HasData = true
	s.snapshot.Phase = PhaseLoaded
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Abandon drops the load identified by t without recording anything. The
// phase falls back to what the data supports.
func (s *Store[T]) Abandon(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.current {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	switch {
	case s.snapshot.LastError != nil:
		s.snapshot.Phase = PhaseFailed
	case s.snapshot.HasData:
		s.snapshot.Phase = PhaseLoaded
	default:
		s.snapshot.Phase = PhaseIdle
	}
}

// Mutate applies fn to the loaded data without touching the phase. It
// reports false, and does nothing, when no load has succeeded yet.
func (s *Store[T]) Mutate(fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snapshot.HasData {
		return false
	}
	s.snapshot.Data = fn(s.copy(s.snapshot.Data))
	s.snapshot.LastUpdated = time.Now()
	return true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Data = s.copy(s.snapshot.Data)
	return snap
}

func (s *Store[T]) copy(v T) T {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}
