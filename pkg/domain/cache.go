package domain

import (
	"sync"
)

// Cache is an explicit, size-bounded cache of domain configurations, passed
// by reference to whatever needs domain lookups. It replaces process-global
// memoization: callers own the cache and can reset it after config changes.
type Cache struct {
	mu      sync.Mutex
	dir     string
	maxSize int
	entries map[string]*Config
	order   []string // insertion order, oldest first
}

// NewCache creates a cache loading domain files from dir, holding at most
// maxSize configs. maxSize < 1 is treated as 1.
func NewCache(dir string, maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		dir:     dir,
		maxSize: maxSize,
		entries: make(map[string]*Config),
	}
}

// Get returns the configuration for a domain code, loading it on first use.
// When the cache is full the oldest entry is evicted.
func (c *Cache) Get(code string) (*Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.entries[code]; ok {
		return cfg, nil
	}

	cfg, err := LoadFromDir(c.dir, code)
	if err != nil {
		return nil, err
	}

	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[code] = cfg
	c.order = append(c.order, code)
	return cfg, nil
}

// Reset drops all cached configurations.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Config)
	c.order = nil
}

// Len returns the number of cached configurations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
