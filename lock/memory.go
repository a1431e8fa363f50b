package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Locker. The ttl argument is ignored since holders
// share the process lifetime.
type Memory struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemory returns an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]chan struct{})}
}

// Acquire implements Locker.
func (m *Memory) Acquire(ctx context.Context, key string, _ time.Duration) (Release, error) {
	for {
		m.mu.Lock()
		held, busy := m.locks[key]
		if !busy {
			ch := make(chan struct{})
			m.locks[key] = ch
			m.mu.Unlock()
			return m.release(key, ch), nil
		}
		m.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		}
	}
}

func (m *Memory) release(key string, ch chan struct{}) Release {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			m.mu.Lock()
			if m.locks[key] == ch {
				delete(m.locks, key)
			}
			m.mu.Unlock()
			close(ch)
		})
		return nil
	}
}
