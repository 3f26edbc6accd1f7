// Package storetest holds the behavioural suite every domain.SessionStore
// driver must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) domain.SessionStore

func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("GetOrCreateIsIdempotent", func(t *testing.T) { testGetOrCreateIdempotent(t, newStore(t)) })
	t.Run("AppendRequiresSession", func(t *testing.T) { testAppendRequiresSession(t, newStore(t)) })
	t.Run("RecentTurnsIsBoundedAndOrdered", func(t *testing.T) { testRecentTurnsBounded(t, newStore(t)) })
	t.Run("SessionsAreIsolated", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("ConcurrentGetOrCreateSharesHistory", func(t *testing.T) { testConcurrentGetOrCreate(t, newStore(t)) })
	t.Run("UntrustedIdentifiers", func(t *testing.T) { testUntrustedIDs(t, newStore(t)) })
}

func testGetOrCreateIdempotent(t *testing.T, store domain.SessionStore) {
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first.ID != "s1" || second.ID != "s1" {
		t.Fatalf("unexpected ids %q / %q", first.ID, second.ID)
	}

	turns, err := store.RecentTurns(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(turns))
	}
}

func testAppendRequiresSession(t *testing.T, store domain.SessionStore) {
	err := store.AppendTurn(context.Background(), "never-created", domain.UserTurn("hi"))
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func testRecentTurnsBounded(t *testing.T, store domain.SessionStore) {
	ctx := context.Background()
	if _, err := store.GetOrCreate(ctx, "s1"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	const total = 25
	for i := 0; i < total; i++ {
		turn := domain.UserTurn(fmt.Sprintf("turn-%02d", i))
		if i%2 == 1 {
			turn = domain.AssistantTurn(fmt.Sprintf("turn-%02d", i))
		}
		if err := store.AppendTurn(ctx, "s1", turn); err != nil {
			t.Fatalf("AppendTurn %d failed: %v", i, err)
		}
	}

	recent, err := store.RecentTurns(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("expected 10 turns, got %d", len(recent))
	}
	for i, turn := range recent {
		want := fmt.Sprintf("turn-%02d", total-10+i)
		if turn.Content != want {
			t.Errorf("recent[%d] = %q, want %q", i, turn.Content, want)
		}
	}
	if recent[9].Role != domain.RoleUser {
		t.Errorf("expected last turn to be user (turn-24), got %q", recent[9].Role)
	}

	all, err := store.RecentTurns(ctx, "s1", 100)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(all) != total {
		t.Fatalf("expected %d turns, got %d", total, len(all))
	}
}

func testIsolation(t *testing.T, store domain.SessionStore) {
	ctx := context.Background()
	for _, id := range []domain.SessionID{"a", "b"} {
		if _, err := store.GetOrCreate(ctx, id); err != nil {
			t.Fatalf("GetOrCreate %s failed: %v", id, err)
		}
	}
	if err := store.AppendTurn(ctx, "a", domain.UserTurn("only in a")); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	b, err := store.RecentTurns(ctx, "b", 10)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(b) != 0 {
		t.Fatalf("session b leaked turns: %+v", b)
	}
}

func testConcurrentGetOrCreate(t *testing.T, store domain.SessionStore) {
	ctx := context.Background()
	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.GetOrCreate(ctx, "shared"); err != nil {
				errs <- err
				return
			}
			errs <- store.AppendTurn(ctx, "shared", domain.UserTurn(fmt.Sprintf("w%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("worker failed: %v", err)
		}
	}

	turns, err := store.RecentTurns(ctx, "shared", 100)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(turns) != workers {
		t.Fatalf("expected one history with %d turns, got %d", workers, len(turns))
	}
}

func testUntrustedIDs(t *testing.T, store domain.SessionStore) {
	ctx := context.Background()
	ids := []domain.SessionID{"", "a/b/c", "session_1700000000000_x9y8z7", "ünïcödé ✓", "../../etc"}
	for _, id := range ids {
		if _, err := store.GetOrCreate(ctx, id); err != nil {
			t.Fatalf("GetOrCreate(%q) failed: %v", id, err)
		}
		if err := store.AppendTurn(ctx, id, domain.UserTurn(string(id)+"!")); err != nil {
			t.Fatalf("AppendTurn(%q) failed: %v", id, err)
		}
	}
	for _, id := range ids {
		turns, err := store.RecentTurns(ctx, id, 10)
		if err != nil {
			t.Fatalf("RecentTurns(%q) failed: %v", id, err)
		}
		if len(turns) != 1 || turns[0].Content != string(id)+"!" {
			t.Fatalf("RecentTurns(%q) = %+v", id, turns)
		}
	}
}
