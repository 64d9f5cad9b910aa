package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockHeld indicates the lock could not be acquired within the retry
// budget.
var ErrLockHeld = errors.New("lock already held")

// Locker serializes verification state transitions per Discord identity.
// Acquire blocks until the key's lock is held or ctx is done, then returns a
// release function.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// keyedLock is one in-process lock with a waiter count, so idle entries can
// be dropped from the map.
type keyedLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker implements Locker with in-process keyed locks. Sufficient for
// a single-instance deployment; use RedisLocker when multiple instances share
// the binding store.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

// NewMemoryLocker creates a new in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyedLock)}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-kl.ch
			l.drop(key, kl)
		})
	}
	return release, nil
}

func (l *MemoryLocker) drop(key string, kl *keyedLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// Ensure MemoryLocker implements Locker
var _ Locker = (*MemoryLocker)(nil)
