package distlock

import (
	"context"
	"sync"
)

var (
	localMu   sync.Mutex
	localHeld = make(map[string]*LocalLock)
)

// LocalLock implements DistLock within a single process. It is used when
// neither Redis nor PostgreSQL is configured.
type LocalLock struct {
	key string
}

// NewLocalLock creates a process-local lock for key.
func NewLocalLock(key string) *LocalLock {
	return &LocalLock{key: key}
}

// Acquire takes the lock if no other LocalLock holds the same key.
func (l *LocalLock) Acquire(_ context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if _, held := localHeld[l.key]; held {
		return false, nil
	}
	localHeld[l.key] = l
	return true, nil
}

// Release frees the key if this lock holds it.
func (l *LocalLock) Release(_ context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()
	if localHeld[l.key] == l {
		delete(localHeld, l.key)
	}
	return nil
}
