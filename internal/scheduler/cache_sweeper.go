// Package scheduler hosts the app's periodic background work. The only
// persistent activity is the cache sweeper.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/logger"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 10 * time.Minute

// CacheSweeper eagerly evicts expired cache entries on a fixed
// interval, independent of read-triggered lazy eviction.
type CacheSweeper struct {
	cache     *cache.Cache
	logger    logger.Logger
	interval  time.Duration
	stopCh    chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewCacheSweeper creates a sweeper; interval <= 0 selects the default.
func NewCacheSweeper(c *cache.Cache, log logger.Logger, interval time.Duration) *CacheSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &CacheSweeper{
		cache:    c,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the periodic sweep. It returns immediately; sweeping
// runs until Stop is called or ctx is cancelled. Only the first call
// starts the loop.
func (s *CacheSweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ticker := time.NewTicker(s.interval)
		go func() {
			defer close(s.done)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					// A tick raced with Stop: never sweep after Stop.
					select {
					case <-s.stopCh:
						return
					default:
					}
					if removed := s.cache.Cleanup(); removed > 0 {
						s.logger.Debug("evicted expired cache entries",
							logger.Int("removed", removed))
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	})
}

// Stop halts the sweeper and waits for the loop to exit, so no sweep
// runs after it returns. Safe to call more than once, and before
// Start.
func (s *CacheSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	// If Start never ran, spend its once so done is closed.
	s.startOnce.Do(func() { close(s.done) })
	<-s.done
}
