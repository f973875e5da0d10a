package cache

import "time"

// Option configures a Cache
type Option func(*Cache)

// WithSnapshot persists the cache to path every interval. A zero interval only
// saves on Stop.
func WithSnapshot(path string, interval time.Duration) Option {
	return func(c *Cache) {
		c.snapshotPath = path
		c.saveInterval = interval
	}
}
