package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// maxCASRetries bounds compare-and-swap retries under contention.
const maxCASRetries = 100

type entry struct {
	value      int64
	expiration time.Time
}

// MemoryStore keeps counters in process memory. Entries are evicted
// lazily on read and by a periodic sweep.
type MemoryStore struct {
	data    sync.Map
	sweeper *time.Ticker
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewMemoryStore creates a memory store sweeping expired entries once a
// minute.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithSweepInterval(time.Minute)
}

// NewMemoryStoreWithSweepInterval creates a memory store with a custom
// sweep interval.
func NewMemoryStoreWithSweepInterval(interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sweeper: time.NewTicker(interval),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	value, ok := s.data.Load(key)
	if !ok {
		return 0, &ErrKeyNotFound{Key: key}
	}
	e := value.(*entry)
	if expired(e, time.Now()) {
		s.data.Delete(key)
		return 0, &ErrKeyNotFound{Key: key}
	}
	return e.value, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value int64, expiration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}
	s.data.Store(key, &entry{value: value, expiration: exp})
	return nil
}

// IncrementWithExpiry implements Store. The increment is lock-free: a
// fresh entry is swapped in via CAS, retrying on contention.
func (s *MemoryStore) IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}

	for retries := 0; retries < maxCASRetries; retries++ {
		value, ok := s.data.Load(key)
		if !ok {
			fresh := &entry{value: delta, expiration: exp}
			if actual, loaded := s.data.LoadOrStore(key, fresh); loaded {
				value = actual
			} else {
				return delta, nil
			}
		}

		e := value.(*entry)

		if expired(e, time.Now()) {
			// The window elapsed: restart the counter with a new expiry.
			fresh := &entry{value: delta, expiration: exp}
			if s.data.CompareAndSwap(key, e, fresh) {
				return delta, nil
			}
			continue
		}

		next := &entry{value: e.value + delta, expiration: e.expiration}
		if s.data.CompareAndSwap(key, e, next) {
			return next.value, nil
		}
	}

	return 0, fmt.Errorf("increment failed after %d retries", maxCASRetries)
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.Delete(key)
	return nil
}

// Close implements Store. Idempotent.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.sweeper.Stop()
	close(s.done)
	return nil
}

// Size returns the number of live entries. Test helper.
func (s *MemoryStore) Size() int {
	count := 0
	s.data.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (s *MemoryStore) sweep() {
	for {
		select {
		case <-s.sweeper.C:
			now := time.Now()
			s.data.Range(func(key, value interface{}) bool {
				if expired(value.(*entry), now) {
					s.data.Delete(key)
				}
				return true
			})
		case <-s.done:
			return
		}
	}
}

func expired(e *entry, now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}
