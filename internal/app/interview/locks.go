package interview

import (
	"sync"

	"github.com/prepwise/interview-agent/internal/domain"
)

// sessionLocks serializes turn processing per session. Distinct
// sessions proceed in parallel; a mutex is created on first use and
// kept for the life of the process (entries are tiny and bounded by the
// number of sessions seen).
type sessionLocks struct {
	mu    sync.Mutex
	locks map[domain.SessionID]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{
		locks: make(map[domain.SessionID]*sync.Mutex),
	}
}

// lock acquires the per-session mutex and returns the unlock func.
func (l *sessionLocks) lock(id domain.SessionID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
