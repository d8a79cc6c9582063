package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fmuoria/vocational-dashboard/internal/ingestion"
	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// Cache holds the last successfully fetched snapshot of one worksheet.
//
// A snapshot is never modified once published; fills and refreshes replace
// it wholesale. Each process owns its own Cache, there is no sharing between
// processes.
type Cache struct {
	name    string
	source  ingestion.RowSource
	timeout time.Duration

	mu          sync.RWMutex
	snapshot    *models.RowSet
	lastRefresh time.Time

	group singleflight.Group
}

// New creates a new empty cache over source. A positive timeout bounds
// every fetch.
func New(name string, source ingestion.RowSource, timeout time.Duration) *Cache {
	return &Cache{
		name:    name,
		source:  source,
		timeout: timeout,
	}
}

// Name returns the cache label used in logs
func (c *Cache) Name() string {
	return c.name
}

// Snapshot returns the cached row-set, fetching it first when the cache is
// empty. Concurrent callers on an empty cache share a single fetch.
func (c *Cache) Snapshot(ctx context.Context) (*models.RowSet, error) {
	if rs := c.current(); rs != nil {
		return rs, nil
	}
	return c.fill(ctx, false)
}

// Refresh fetches the worksheet again. On failure the previous snapshot is
// kept and the error returned.
func (c *Cache) Refresh(ctx context.Context) error {
	log.Printf("Refreshing %s", c.name)
	_, err := c.fill(ctx, true)
	return err
}

// fill fetches the worksheet once for all concurrent callers. The shared
// fetch outlives a cancelled caller; each caller stops waiting when its own
// context ends.
func (c *Cache) fill(ctx context.Context, force bool) (*models.RowSet, error) {
	key := "fill"
	if force {
		key = "refresh"
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if !force {
			if rs := c.current(); rs != nil {
				return rs, nil
			}
		}

		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}

		rs, err := c.source.Fetch(fetchCtx)
		if err != nil {
			log.Printf("Failed to load %s: %v", c.name, err)
			return nil, fmt.Errorf("load %s: %w", c.name, err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// a lazy fill never replaces a snapshot a refresh stored meanwhile
		if !force && c.snapshot != nil {
			return c.snapshot, nil
		}
		c.snapshot = rs
		c.lastRefresh = time.Now()

		log.Printf("Cached %d %s rows", rs.Len(), c.name)
		return rs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RowSet), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) current() *models.RowSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Count returns the number of rows in the snapshot, fetching it if needed.
// A failed fetch counts as zero rows.
func (c *Cache) Count(ctx context.Context) int {
	rs, err := c.Snapshot(ctx)
	if err != nil {
		return 0
	}
	return rs.Len()
}

// Columns returns the header row of the snapshot, fetching it if needed
func (c *Cache) Columns(ctx context.Context) []string {
	rs, err := c.Snapshot(ctx)
	if err != nil || rs == nil {
		return nil
	}
	// Return a copy to prevent external modification
	cols := make([]string, len(rs.Columns))
	copy(cols, rs.Columns)
	return cols
}

// LastRefresh returns the time of the last successful fetch, false if none
func (c *Cache) LastRefresh() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh, !c.lastRefresh.IsZero()
}

// Loaded reports whether a snapshot is present without fetching
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot != nil
}
