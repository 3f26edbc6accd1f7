package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PabloGalante/voicebot/internal/domain"
)

const (
	defaultMaxSessions = 10_000
	defaultSessionTTL  = 24 * time.Hour
)

// SessionStore keeps sessions in process memory. It is NOT persistent.
// Sessions are bounded by count (least recently used goes first) and by
// idle time; every write refreshes a session's idle timer.
type SessionStore struct {
	// mu makes get-or-create atomic; turn writes only take the entry lock.
	mu       sync.Mutex
	sessions *expirable.LRU[domain.SessionID, *entry]
	now      func() time.Time
}

type entry struct {
	session *domain.Session

	mu    sync.RWMutex
	turns []domain.Turn
}

type Option func(*storeConfig)

type storeConfig struct {
	maxSessions int
	ttl         time.Duration
	onEvict     func(id domain.SessionID, turns int)
}

// WithMaxSessions caps how many sessions are held. 0 keeps the default.
func WithMaxSessions(n int) Option {
	return func(c *storeConfig) {
		c.maxSessions = n
	}
}

// WithTTL sets the idle timeout after which a session is dropped.
func WithTTL(ttl time.Duration) Option {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithEvictionHook is called for every session dropped by the LRU or TTL
// policy. It runs under the cache lock and must not call back into the store.
func WithEvictionHook(fn func(id domain.SessionID, turns int)) Option {
	return func(c *storeConfig) {
		c.onEvict = fn
	}
}

func NewSessionStore(opts ...Option) *SessionStore {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxSessions <= 0 {
		cfg.maxSessions = defaultMaxSessions
	}
	if cfg.ttl <= 0 {
		cfg.ttl = defaultSessionTTL
	}

	var onEvict expirable.EvictCallback[domain.SessionID, *entry]
	if cfg.onEvict != nil {
		hook := cfg.onEvict
		onEvict = func(id domain.SessionID, e *entry) {
			e.mu.RLock()
			n := len(e.turns)
			e.mu.RUnlock()
			hook(id, n)
		}
	}

	return &SessionStore{
		sessions: expirable.NewLRU[domain.SessionID, *entry](cfg.maxSessions, onEvict, cfg.ttl),
		now:      time.Now,
	}
}

func (s *SessionStore) GetOrCreate(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions.Get(id); ok {
		s.sessions.Add(id, e)
		return e.session, nil
	}

	e := &entry{
		session: &domain.Session{
			ID:        id,
			CreatedAt: s.now(),
		},
	}
	s.sessions.Add(id, e)
	return e.session, nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, id domain.SessionID, turn domain.Turn) error {
	e, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}

	e.mu.Lock()
	e.turns = append(e.turns, turn)
	e.mu.Unlock()

	s.touch(id, e)
	return nil
}

func (s *SessionStore) RecentTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.Turn, error) {
	e, ok := s.sessions.Get(id)
	if !ok || limit <= 0 {
		return []domain.Turn{}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	turns := e.turns
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Len returns how many sessions are currently held.
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

// touch resets the idle timer, unless the session was replaced or evicted
// since e was read.
func (s *SessionStore) touch(id domain.SessionID, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.sessions.Peek(id); ok && cur == e {
		s.sessions.Add(id, e)
	}
}
