package cache

import (
	"context"
	"sync"
)

// MemoryCache keeps values in process memory. Nothing survives a restart.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]byte

	// Writes counts successful Set calls.
	Writes int
}

func NewMemory() *MemoryCache {
	return &MemoryCache{m: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]byte(nil), value...)
	c.Writes++
	return nil
}

func (c *MemoryCache) Close() error { return nil }
