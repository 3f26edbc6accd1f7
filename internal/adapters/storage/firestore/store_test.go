package firestore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	firestorestore "github.com/PabloGalante/voicebot/internal/adapters/storage/firestore"
	"github.com/PabloGalante/voicebot/internal/adapters/storage/storetest"
	"github.com/PabloGalante/voicebot/internal/domain"
)

// These tests need the Firestore emulator, e.g.
// gcloud emulators firestore start --host-port=localhost:8787
func TestStoreContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// Each subtest gets its own project so collections never overlap.
	storetest.Run(t, func(t *testing.T) domain.SessionStore {
		project := fmt.Sprintf("voicebot-test-%d", time.Now().UnixNano())
		store, err := firestorestore.NewStore(context.Background(), project)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestNewStoreRequiresProject(t *testing.T) {
	if _, err := firestorestore.NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty project")
	}
}
