package session

import (
	"context"
	"sync"

	"montchatsouvenir/pkg/domain"
)

// MemoryCache is the in-process session cache used in tests and local runs
// without Redis. Same claim semantics as the Redis implementation.
type MemoryCache struct {
	mu    sync.Mutex
	gens  map[string]int64
	slots map[string]domain.Conversation
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		gens:  make(map[string]int64),
		slots: make(map[string]domain.Conversation),
	}
}

func (c *MemoryCache) NextGeneration(_ context.Context, sessionID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[sessionID]++
	return c.gens[sessionID], nil
}

func (c *MemoryCache) Store(_ context.Context, sessionID string, generation int64, conv domain.Conversation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[sessionID] != generation {
		return ErrStaleGeneration
	}
	c.slots[sessionID] = conv
	return nil
}

func (c *MemoryCache) Retrieve(_ context.Context, sessionID string) (domain.Conversation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.slots[sessionID]
	return conv, ok, nil
}

func (c *MemoryCache) Clear(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, sessionID)
	return nil
}
