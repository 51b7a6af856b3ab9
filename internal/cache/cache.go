package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"balancete/internal/log"
)

// Cache is a keyed store of values that may forget entries on its own.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

var _ Cache[string] = (*LRUCache[string])(nil)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches periodically until its context ends or
// Stop is called.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentSession)}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the total removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup runs Sweep every interval in the background. Calling it while
// a sweeper is running has no effect.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.group, ctx = errgroup.WithContext(ctx)
	m.group.Go(func() error {
		m.cleanup(ctx, interval)
		return nil
	})
}

func (m *Manager) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.DebugContext(ctx, "Expired entries removed", log.FieldCount, n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends the sweeper and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, group := m.cancel, m.group
	m.cancel, m.group = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		_ = group.Wait()
	}
}
