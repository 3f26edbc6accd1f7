package conversation

import (
	"sync"

	"github.com/PabloGalante/voicebot/internal/domain"
)

// sessionLocks hands out one mutex per session id and forgets it once no
// request holds or waits on it, so idle sessions cost nothing here.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[domain.SessionID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[domain.SessionID]*refLock)}
}

// lock blocks until id is free and returns the matching unlock func.
func (l *sessionLocks) lock(id domain.SessionID) func() {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &refLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
