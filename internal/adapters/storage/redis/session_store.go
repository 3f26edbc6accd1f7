package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/voicebot/internal/domain"
)

const (
	// Redis key prefix for sessions
	sessionKeyPrefix = "voicebot:session:"
	// Default TTL for session keys (24 hours)
	defaultTTL = 24 * time.Hour
)

// Store implements domain.SessionStore on Redis. A session is two keys: a
// JSON metadata string created with SETNX, and a list of JSON turns. Both
// expire together after ttl of inactivity.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

type sessionDoc struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStore creates a Redis-backed session store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewStoreFromURL parses a redis:// URL and connects lazily.
func NewStoreFromURL(rawURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewStore(redis.NewClient(opts), ttl), nil
}

// Ping checks connectivity, used at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) GetOrCreate(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	metaKey := s.metaKey(id)

	// The key can expire between SETNX and GET; one more round settles it.
	for attempt := 0; attempt < 2; attempt++ {
		now := s.now().UTC()
		val, err := json.Marshal(sessionDoc{ID: string(id), CreatedAt: now})
		if err != nil {
			return nil, err
		}

		created, err := s.client.SetNX(ctx, metaKey, val, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis GetOrCreate: %w", err)
		}
		if created {
			return &domain.Session{ID: id, CreatedAt: now}, nil
		}

		raw, err := s.client.Get(ctx, metaKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis GetOrCreate: %w", err)
		}

		var doc sessionDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("redis GetOrCreate decode: %w", err)
		}

		s.refresh(ctx, id)
		return &domain.Session{ID: id, CreatedAt: doc.CreatedAt}, nil
	}
	return nil, fmt.Errorf("redis GetOrCreate: session %q kept expiring", id)
}

func (s *Store) AppendTurn(ctx context.Context, id domain.SessionID, turn domain.Turn) error {
	n, err := s.client.Exists(ctx, s.metaKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis AppendTurn: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}

	val, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	turnsKey := s.turnsKey(id)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, turnsKey, val)
		pipe.Expire(ctx, turnsKey, s.ttl)
		pipe.Expire(ctx, s.metaKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis AppendTurn: %w", err)
	}
	return nil
}

func (s *Store) RecentTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		return []domain.Turn{}, nil
	}

	vals, err := s.client.LRange(ctx, s.turnsKey(id), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis RecentTurns: %w", err)
	}

	out := make([]domain.Turn, 0, len(vals))
	for _, v := range vals {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, fmt.Errorf("redis RecentTurns decode: %w", err)
		}
		out = append(out, turn)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// refresh extends both keys' TTL; failures only shorten a session's life.
func (s *Store) refresh(ctx context.Context, id domain.SessionID) {
	_, _ = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, s.metaKey(id), s.ttl)
		pipe.Expire(ctx, s.turnsKey(id), s.ttl)
		return nil
	})
}

func (s *Store) metaKey(id domain.SessionID) string {
	return sessionKeyPrefix + string(id)
}

func (s *Store) turnsKey(id domain.SessionID) string {
	return sessionKeyPrefix + string(id) + ":turns"
}
