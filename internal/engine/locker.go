package engine

import (
	"sync"

	"github.com/evetabi/settlement/internal/identity"
)

// marketLocker serializes instructions targeting the same market while
// letting instructions against disjoint markets run concurrently. The
// market's derived id is the lock token — identity derivation makes the
// lock point explicit rather than incidental.
type marketLocker struct {
	mu    sync.Mutex
	locks map[identity.ID]*sync.Mutex
}

func newMarketLocker() *marketLocker {
	return &marketLocker{locks: make(map[identity.ID]*sync.Mutex)}
}

// lock blocks until marketID's mutex is acquired and returns a function that
// releases it. Callers must defer the returned function.
func (l *marketLocker) lock(marketID identity.ID) func() {
	l.mu.Lock()
	m, ok := l.locks[marketID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[marketID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
