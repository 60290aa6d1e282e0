package keywords

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/keywatch/keywatch/internal/agent/match"
)

// Fetcher retrieves the current keyword set from the server.
type Fetcher interface {
	FetchKeywords(ctx context.Context) ([]match.Rule, error)
}

// Cache holds the latest known keyword set. The snapshot is swapped
// atomically as a whole, so readers always observe either the old or the new
// complete set and never take a lock the refresh path holds across I/O.
type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	snapshot atomic.Pointer[[]match.Rule]
}

func NewCache(fetcher Fetcher, interval time.Duration) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		interval: interval,
	}
	empty := []match.Rule{}
	c.snapshot.Store(&empty)
	return c
}

// Snapshot returns the current rule set. Never blocks, never triggers I/O.
func (c *Cache) Snapshot() []match.Rule {
	return *c.snapshot.Load()
}

// Refresh replaces the snapshot with a freshly fetched set. On failure the
// previous snapshot stays fully intact.
func (c *Cache) Refresh(ctx context.Context) error {
	rules, err := c.fetcher.FetchKeywords(ctx)
	if err != nil {
		return err
	}
	c.snapshot.Store(&rules)
	return nil
}

// Run refreshes on the configured interval until ctx is cancelled. A failed
// refresh is logged and the loop continues with the previous set.
func (c *Cache) Run(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("initial keyword refresh failed", "error", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				slog.Warn("keyword refresh failed, keeping previous set", "error", err)
				continue
			}
			slog.Debug("keyword set refreshed", "rules", len(c.Snapshot()))
		}
	}
}
