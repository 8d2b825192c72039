package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedLocker hands out one exclusive slot per key. Entries are reference
// counted and dropped once nobody holds or waits for them, so idle chats cost
// nothing.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		entries: make(map[uuid.UUID]*lockEntry),
	}
}

// Lock blocks until key is free or ctx is done. The returned unlock func is
// idempotent.
func (l *KeyedLocker) Lock(ctx context.Context, key uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) release(key uuid.UUID, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
