package matcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	id "veritrail/pkg/domain"
)

// Cache stores computed match lists keyed by (evidence id, standard-set
// hash, strategy). Entries are immutable snapshots: they are never
// invalidated in place, and a request with different inputs produces a new
// key. Implementations must be safe for concurrent use; a key collision
// resolves to last write wins with the whole list stored atomically.
type Cache interface {
	Get(ctx context.Context, key string) ([]StandardMatch, bool)
	Set(ctx context.Context, key string, matches []StandardMatch)
}

// cacheKey derives the deterministic cache key. The standard set is hashed
// order-independently: sorted ids, SHA-256.
func cacheKey(evidenceID id.EvidenceID, standardIDs []id.StandardID, strategy Strategy) string {
	sorted := make([]string, len(standardIDs))
	for i, s := range standardIDs {
		sorted[i] = string(s)
	}
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return string(evidenceID) + ":" + hex.EncodeToString(sum[:]) + ":" + string(strategy)
}

// MemoryCache is the in-process Cache reference implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]StandardMatch
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]StandardMatch)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]StandardMatch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	matches, ok := c.entries[key]
	return matches, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, matches []StandardMatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = matches
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
