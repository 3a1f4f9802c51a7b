package striped

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLockUnlockExcludes(t *testing.T) {
	s := New(4)
	s.Lock(1)
	locked := make(chan struct{})
	go func() {
		s.Lock(1)
		close(locked)
		s.Unlock(1)
	}()

	select {
	case <-locked:
		t.Fatalf("second Lock on the same stripe acquired while the first still held it")
	case <-time.After(20 * time.Millisecond):
	}
	s.Unlock(1)
	<-locked
}

func TestSetIndexWraps(t *testing.T) {
	s := New(4)
	// idx 5 and idx 1 must be the same stripe (5 % 4 == 1); locking one
	// must block the other.
	s.Lock(5)
	locked := make(chan struct{})
	go func() {
		s.Lock(1)
		close(locked)
		s.Unlock(1)
	}()

	select {
	case <-locked:
		t.Fatalf("idx 1 acquired while idx 5 (same stripe) was held")
	case <-time.After(20 * time.Millisecond):
	}
	s.Unlock(5)
	<-locked
}

func TestSetNewClampsToOne(t *testing.T) {
	s := New(0)
	if got := s.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 for a non-positive stripe count", got)
	}
}

func TestSetDistinctStripesDontBlock(t *testing.T) {
	s := New(4)
	s.Lock(0)
	done := make(chan struct{})
	go func() {
		s.Lock(2)
		s.Unlock(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("distinct stripes should not block each other")
	}
	s.Unlock(0)
}

func TestLockTimedInvokesObserver(t *testing.T) {
	s := New(1)
	var waited time.Duration
	var mu sync.Mutex
	obs := func(d time.Duration) {
		mu.Lock()
		waited = d
		mu.Unlock()
	}

	s.Lock(0)
	release := make(chan struct{})
	go func() {
		<-release
		time.Sleep(10 * time.Millisecond)
		s.Unlock(0)
	}()
	close(release)
	s.LockTimed(0, obs)
	s.Unlock(0)

	mu.Lock()
	defer mu.Unlock()
	if waited <= 0 {
		t.Fatalf("observer was not invoked with a positive wait duration")
	}
}

func TestLockTimedNilObserverIsSafe(t *testing.T) {
	s := New(1)
	s.LockTimed(0, nil)
	s.Unlock(0)
}

// TestLockTimedLogsWhenNoObserverRegistered covers the NewLogged fallback:
// with no WaitObserver supplied, a contended LockTimed call must still
// surface the wait sample through the logger rather than dropping it.
func TestLockTimedLogsWhenNoObserverRegistered(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewLogged(1, zap.New(core))

	s.Lock(0)
	release := make(chan struct{})
	go func() {
		<-release
		time.Sleep(10 * time.Millisecond)
		s.Unlock(0)
	}()
	close(release)
	s.LockTimed(0, nil)
	s.Unlock(0)

	entries := logs.FilterMessage("striped: ref lock wait sample").All()
	if len(entries) != 1 {
		t.Fatalf("got %d matching log entries, want 1", len(entries))
	}
}
