package conversation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSessionLocksSerializeSameID(t *testing.T) {
	locks := newSessionLocks()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("a")
			defer unlock()

			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside.Load())
	}
	if locks.size() != 0 {
		t.Fatalf("expected released locks to be forgotten, %d left", locks.size())
	}
}

func TestSessionLocksIndependentIDs(t *testing.T) {
	locks := newSessionLocks()
	unlockA := locks.lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	if locks.size() != 1 {
		t.Fatalf("expected only a to be tracked, got %d", locks.size())
	}
}
