package httpserver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedDatabase answers DatabaseExists from the last result for ttl, so a
// burst of GET /database requests runs the check once. Concurrent misses
// share a single call. Failed checks are cached too. Results of a check whose
// context ended are not kept. Healthcheck is passed through.
type CachedDatabase struct {
	db  Database
	ttl time.Duration

	group singleflight.Group

	mu      sync.Mutex
	cached  bool
	checked time.Time
	exists  bool
	err     error
}

// CacheDatabase wraps db. A ttl of zero or less disables caching.
func CacheDatabase(db Database, ttl time.Duration) *CachedDatabase {
	return &CachedDatabase{db: db, ttl: ttl}
}

// Healthcheck calls the wrapped Healthcheck.
func (c *CachedDatabase) Healthcheck(ctx context.Context) error {
	return c.db.Healthcheck(ctx)
}

// DatabaseExists returns the cached result while it is younger than ttl and
// runs the wrapped check otherwise.
func (c *CachedDatabase) DatabaseExists(ctx context.Context) (bool, error) {
	if c.ttl <= 0 {
		return c.db.DatabaseExists(ctx)
	}

	c.mu.Lock()
	if c.cached && time.Since(c.checked) < c.ttl {
		exists, err := c.exists, c.err
		c.mu.Unlock()
		return exists, err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("exists", func() (any, error) {
		exists, err := c.db.DatabaseExists(ctx)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.cached, c.checked, c.exists, c.err = true, time.Now(), exists, err
			c.mu.Unlock()
		}
		return exists, err
	})
	return v.(bool), err
}
