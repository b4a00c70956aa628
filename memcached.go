package main

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

var ErrMemcachedClosed = errors.New("memcached closed")

type cached[V any] struct {
	value    V
	expireAt int64
}

// Memcached keeps sessions in memory for ttlTimeout after their last use.
// During shutdown it refuses new keys and waits for existing ones to expire.
type Memcached[V any] struct {
	mu          sync.RWMutex
	cleanerOnce sync.Once
	cleanerCh   chan struct{}
	items       map[string]cached[V]
	ttlTimeout  time.Duration
	inShutdown  atomic.Bool
	closed      atomic.Bool
}

func NewMemcached[V any](ttlTimeout, cleanupTimeout time.Duration) *Memcached[V] {
	mc := &Memcached[V]{
		cleanerCh:  make(chan struct{}),
		items:      make(map[string]cached[V]),
		ttlTimeout: ttlTimeout,
	}

	go func() {
		ticker := time.NewTicker(cleanupTimeout)
		defer ticker.Stop()

		for {
			select {
			case <-mc.cleanerCh:
				return
			case <-ticker.C:
				mc.cleanExpiredItems()
			}
		}
	}()
	return mc
}

// Set stores value under key and restarts its ttl. New keys are ignored
// once shutdown has begun; Set reports whether value was stored.
func (mc *Memcached[V]) Set(key string, value V) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	_, isExists := mc.items[key]
	if mc.inShutdown.Load() && !isExists {
		return false
	}

	expireAt := time.Now().Add(mc.ttlTimeout).UnixNano()
	mc.items[key] = cached[V]{
		value:    value,
		expireAt: expireAt,
	}
	return true
}

func (mc *Memcached[V]) Get(key string) (V, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var zero V
	item, exists := mc.items[key]
	if !exists {
		return zero, false
	}

	if time.Now().UnixNano() > item.expireAt {
		return zero, false
	}
	return item.value, true
}

func (mc *Memcached[V]) Delete(key string) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	_, exists := mc.items[key]
	delete(mc.items, key)
	return exists
}

func (mc *Memcached[V]) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.items)
}

const shutdownIntervalMax = 500 * time.Millisecond

func (mc *Memcached[V]) Shutdown(ctx context.Context) error {
	mc.mu.Lock()
	mc.inShutdown.Store(true)
	mc.mu.Unlock()
	mc.closeCleaner()

	intervalBase := time.Millisecond
	nextInterval := func() time.Duration {
		interval := intervalBase + time.Duration(rand.Intn(int(intervalBase/10)))

		intervalBase *= 2
		if intervalBase > shutdownIntervalMax {
			intervalBase = shutdownIntervalMax
		}
		return interval
	}

	timer := time.NewTimer(nextInterval())
	defer timer.Stop()
	for {
		mc.cleanExpiredItems()
		if mc.IsEmpty() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(nextInterval())
		}
	}
}

// Close drops every item at once. It also ends a Shutdown that ran out of
// time.
func (mc *Memcached[V]) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.closed.Swap(true) {
		return ErrMemcachedClosed
	}

	mc.inShutdown.Store(true)
	mc.closeCleaner()

	clear(mc.items)
	return nil
}

func (mc *Memcached[V]) cleanExpiredItems() {
	now := time.Now().UnixNano()
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for k, v := range mc.items {
		if now > v.expireAt {
			delete(mc.items, k)
		}
	}
}

func (mc *Memcached[V]) IsEmpty() bool {
	return mc.Len() == 0
}

func (mc *Memcached[V]) closeCleaner() {
	mc.cleanerOnce.Do(func() {
		close(mc.cleanerCh)
	})
}
