package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// Turn appends on one session contend on its turn_count.
const maxTxAttempts = 20

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (VOICEBOT_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

// Session ids come from the client and may contain '/', so documents are
// keyed by a digest and the raw id is kept as a field.
func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	sum := sha256.Sum256([]byte(id))
	return s.sessionsCol().Doc(hex.EncodeToString(sum[:]))
}

func (s *Store) turnsCol(id domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(id).Collection("turns")
}

func (s *Store) turnDoc(id domain.SessionID, seq int64) *firestore.DocumentRef {
	return s.turnsCol(id).Doc(fmt.Sprintf("%010d", seq))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	SessionID string    `firestore:"session_id"`
	TurnCount int64     `firestore:"turn_count"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type turnDoc struct {
	Seq       int64     `firestore:"seq"`
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) GetOrCreate(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var out *domain.Session

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.sessionDoc(id)

		snap, err := tx.Get(ref)
		if err == nil {
			var doc sessionDoc
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode sessionDoc: %w", err)
			}
			out = &domain.Session{ID: id, CreatedAt: doc.CreatedAt}
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := s.now().UTC()
		out = &domain.Session{ID: id, CreatedAt: now}
		return tx.Create(ref, sessionDoc{
			SessionID: string(id),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}, firestore.MaxAttempts(maxTxAttempts))
	if err != nil {
		return nil, fmt.Errorf("firestore GetOrCreate: %w", err)
	}
	return out, nil
}

func (s *Store) AppendTurn(ctx context.Context, id domain.SessionID, turn domain.Turn) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.sessionDoc(id)

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrSessionNotFound
			}
			return err
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode sessionDoc: %w", err)
		}

		now := s.now().UTC()
		seq := doc.TurnCount + 1

		if err := tx.Create(s.turnDoc(id, seq), turnDoc{
			Seq:       seq,
			Role:      string(turn.Role),
			Content:   turn.Content,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "turn_count", Value: seq},
			{Path: "updated_at", Value: now},
		})
	}, firestore.MaxAttempts(maxTxAttempts))
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore AppendTurn: %w", err)
	}
	return nil
}

func (s *Store) RecentTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		return []domain.Turn{}, nil
	}

	iter := s.turnsCol(id).OrderBy("seq", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var newestFirst []domain.Turn
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore RecentTurns: %w", err)
		}

		var doc turnDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode turnDoc: %w", err)
		}
		newestFirst = append(newestFirst, domain.Turn{
			Role:    domain.Role(doc.Role),
			Content: doc.Content,
		})
	}

	out := make([]domain.Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(newestFirst)-1-i] = t
	}
	return out, nil
}
