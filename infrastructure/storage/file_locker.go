package storage

import (
	"context"
	"file-relay/domain"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// IFileLocker is the single-writer-per-file extension point. The protocol
// itself gives no guarantee for concurrent calls on one id; deployments that
// need one swap NoopLocker for KeyedLocker.
// Waiting for a lock gives up with the context error once ctx is done.
type IFileLocker interface {
	LockWrite(ctx context.Context, id domain.FileID) (unlock func(), err error)
	LockRead(ctx context.Context, id domain.FileID) (unlock func(), err error)
}

// NoopLocker keeps the undefined interleaving of concurrent calls.
type NoopLocker struct{}

func (NoopLocker) LockWrite(context.Context, domain.FileID) (func(), error) { return func() {}, nil }

func (NoopLocker) LockRead(context.Context, domain.FileID) (func(), error) { return func() {}, nil }

// lockWeight is held whole by a writer, a reader takes one unit of it.
const lockWeight = 1 << 30

// KeyedLocker serializes uploads per id and lets downloads share the file.
// Waiters are served in arrival order, so a queued upload holds back the
// downloads that come after it.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[domain.FileID]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[domain.FileID]*keyedLock)}
}

func (k *KeyedLocker) LockWrite(ctx context.Context, id domain.FileID) (func(), error) {
	return k.lock(ctx, id, lockWeight)
}

func (k *KeyedLocker) LockRead(ctx context.Context, id domain.FileID) (func(), error) {
	return k.lock(ctx, id, 1)
}

func (k *KeyedLocker) lock(ctx context.Context, id domain.FileID, weight int64) (func(), error) {
	l := k.acquire(id)
	if err := l.sem.Acquire(ctx, weight); err != nil {
		k.release(id)
		return nil, fmt.Errorf("wait for lock on %s: %w", id, err)
	}
	return func() {
		l.sem.Release(weight)
		k.release(id)
	}, nil
}

// Held reports how many callers hold or wait on id.
func (k *KeyedLocker) Held(id domain.FileID) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.locks[id]; ok {
		return l.refs
	}
	return 0
}

func (k *KeyedLocker) acquire(id domain.FileID) *keyedLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyedLock{sem: semaphore.NewWeighted(lockWeight)}
		k.locks[id] = l
	}
	l.refs++
	return l
}

func (k *KeyedLocker) release(id domain.FileID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
}
