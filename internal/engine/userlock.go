package engine

import (
	"context"
	"sync"
)

// userLocks hands out one lock per user so submissions for the same user
// run one at a time while different users proceed in parallel. Entries are
// dropped once nobody holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

// userLock is a one-slot semaphore so waiting can be cancelled.
type userLock struct {
	slot chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*userLock)}
}

// lock blocks until the caller owns userID or ctx is done, and returns the
// release func.
func (l *userLocks) lock(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{slot: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.slot <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}

	return func() {
		<-ul.slot
		l.release(userID, ul)
	}, nil
}

func (l *userLocks) release(userID uint, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
