package bidding

import (
	"context"
	"fmt"
	"sync"

	"auction-engine/internal/biddingerrors"
)

// itemLocks serializes bid commits per item. Items that nobody is bidding on hold no entry.
type itemLocks struct {
	mu    sync.Mutex
	locks map[string]*itemLock
}

type itemLock struct {
	sem  chan struct{}
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[string]*itemLock)}
}

// acquire blocks until the item is free or ctx is done. The returned func releases it.
func (l *itemLocks) acquire(ctx context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[itemID]
	if !ok {
		lk = &itemLock{sem: make(chan struct{}, 1)}
		l.locks[itemID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		return func() {
			<-lk.sem
			l.unref(itemID, lk)
		}, nil
	case <-ctx.Done():
		l.unref(itemID, lk)
		return nil, fmt.Errorf("service: %w - waiting for item %s: %w",
			biddingerrors.ErrStorageUnavailable, itemID, ctx.Err())
	}
}

func (l *itemLocks) unref(itemID string, lk *itemLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, itemID)
	}
}

// size reports how many items currently have waiters or holders
func (l *itemLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
