// Package locking provides process-local exclusive locks keyed by string, with
// acquisition bounded by a context.
package locking

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Keyed hands out one exclusive lock per key. The zero value is not usable; use New.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func New() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Acquire blocks until key is free or ctx is done. The returned release func is safe to
// call more than once.
func (k *Keyed) Acquire(ctx context.Context, key string) (release func(), err error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, e)
		return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.unref(key, e)
		})
	}, nil
}

// AcquireTimeout is Acquire with a deadline of at most d. A non-positive d waits for ctx only.
func (k *Keyed) AcquireTimeout(ctx context.Context, key string, d time.Duration) (func(), error) {
	if d <= 0 {
		return k.Acquire(ctx, key)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return k.Acquire(ctx, key)
}

// Len is the number of keys currently held or waited on.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *Keyed) unref(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func AccountKey(accountID uint) string {
	return fmt.Sprintf("account:%d", accountID)
}

func PositionKey(accountID, instrumentID uint) string {
	return fmt.Sprintf("position:%d:%d", accountID, instrumentID)
}
