package state

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func newStore() *Store[[]int] {
	return NewStore(slices.Clone[[]int])
}

func TestStore_ResolveAndSnapshotClone(t *testing.T) {
	s := newStore()

	if snap := s.Snapshot(); snap.Phase != PhaseIdle || snap.HasData {
		t.Fatalf("initial snapshot = %#v, want idle without data", snap)
	}

	_, ticket := s.Begin(context.Background())
	if got := s.Snapshot().Phase; got != PhaseLoading {
		t.Fatalf("Phase = %v, want loading", got)
	}

	before := time.Now()
	if !s.Resolve(ticket, []int{1, 2}, nil) {
		t.Fatal("Resolve() = false, want true for current ticket")
	}

	snap := s.Snapshot()
	if snap.Phase != PhaseLoaded || !snap.HasData {
		t.Fatalf("snapshot = %#v, want loaded with data", snap)
	}
	if len(snap.Data) != 2 || snap.Data[0] != 1 {
		t.Fatalf("Data = %v, want [1 2]", snap.Data)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Data[0] = 999
	if got := s.Snapshot().Data[0]; got != 1 {
		t.Fatalf("Snapshot should clone data; got %d want 1", got)
	}
}

func TestStore_FailureKeepsPreviousData(t *testing.T) {
	s := newStore()

	_, t1 := s.Begin(context.Background())
	s.Resolve(t1, []int{7}, nil)

	_, t2 := s.Begin(context.Background())
	s.Resolve(t2, nil, errors.New("boom"))

	snap := s.Snapshot()
	if snap.Phase != PhaseFailed {
		t.Fatalf("Phase = %v, want failed", snap.Phase)
	}
	if len(snap.Data) != 1 || snap.Data[0] != 7 {
		t.Fatalf("Data changed on error: got %v want [7]", snap.Data)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
}

func TestStore_StaleTicketIsIgnored(t *testing.T) {
	s := newStore()

	ctx1, t1 := s.Begin(context.Background())
	_, t2 := s.Begin(context.Background())

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("Begin should cancel the previous load context")
	}

	if !s.Resolve(t2, []int{2}, nil) {
		t.Fatal("Resolve(t2) = false, want true")
	}
	if s.Resolve(t1, []int{1}, nil) {
		t.Fatal("Resolve(t1) = true, want false for stale ticket")
	}
	if s.Resolve(t1, nil, errors.New("late")) {
		t.Fatal("Resolve(t1, err) = true, want false for stale ticket")
	}

	snap := s.Snapshot()
	if len(snap.Data) != 1 || snap.Data[0] != 2 {
		t.Fatalf("Data = %v, want [2]", snap.Data)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
}

func TestStore_AbandonRestoresPhase(t *testing.T) {
	s := newStore()

	_, t1 := s.Begin(context.Background())
	s.Abandon(t1)
	if got := s.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("Phase = %v, want idle", got)
	}

	_, t2 := s.Begin(context.Background())
	s.Resolve(t2, []int{1}, nil)
	_, t3 := s.Begin(context.Background())
	s.Abandon(t3)

	snap := s.Snapshot()
	if snap.Phase != PhaseLoaded || snap.ConsecutiveFailures != 0 {
		t.Fatalf("snapshot = %#v, want loaded with no failures", snap)
	}
}

func TestStore_MutateRequiresData(t *testing.T) {
	s := newStore()
	prepend := func(v []int) []int { return append([]int{0}, v...) }

	if s.Mutate(prepend) {
		t.Fatal("Mutate() = true before any load, want false")
	}

	_, ticket := s.Begin(context.Background())
	s.Resolve(ticket, []int{1}, nil)

	if !s.Mutate(prepend) {
		t.Fatal("Mutate() = false after load, want true")
	}
	if got := s.Snapshot().Data; !slices.Equal(got, []int{0, 1}) {
		t.Fatalf("Data = %v, want [0 1]", got)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	s := newStore()

	fail := func(msg string) {
		_, ticket := s.Begin(context.Background())
		s.Resolve(ticket, nil, errors.New(msg))
	}

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	fail("fail 1")
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	fail("fail 2")
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	_, ticket := s.Begin(context.Background())
	s.Resolve(ticket, []int{1}, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
