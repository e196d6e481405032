package kv

import (
	"context"
	"sync"
)

// CountingBackend wraps a Backend and counts calls per key.
// Useful for asserting how often the list store reaches the backend.
type CountingBackend struct {
	inner Backend

	mu   sync.Mutex
	gets map[string]int
	puts map[string]int
}

// NewCountingBackend wraps inner.
func NewCountingBackend(inner Backend) *CountingBackend {
	return &CountingBackend{
		inner: inner,
		gets:  make(map[string]int),
		puts:  make(map[string]int),
	}
}

// Get implements Backend.
func (c *CountingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets[key]++
	c.mu.Unlock()
	return c.inner.Get(ctx, key)
}

// Put implements Backend.
func (c *CountingBackend) Put(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.puts[key]++
	c.mu.Unlock()
	return c.inner.Put(ctx, key, value)
}

// List implements Lister if the wrapped backend does.
func (c *CountingBackend) List(ctx context.Context, prefix string) ([]string, error) {
	keys, ok, err := List(ctx, c.inner, prefix)
	if !ok {
		return nil, ErrListUnsupported
	}
	return keys, err
}

// Gets returns the number of Get calls for key.
func (c *CountingBackend) Gets(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets[key]
}

// Puts returns the number of Put calls for key.
func (c *CountingBackend) Puts(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts[key]
}

// TotalGets returns the number of Get calls across all keys.
func (c *CountingBackend) TotalGets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.gets {
		n += v
	}
	return n
}

// TotalPuts returns the number of Put calls across all keys.
func (c *CountingBackend) TotalPuts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.puts {
		n += v
	}
	return n
}

// ResetCounts clears all counters.
func (c *CountingBackend) ResetCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets = make(map[string]int)
	c.puts = make(map[string]int)
}
