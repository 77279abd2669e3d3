package driver

import "sync"

// minimal per-process cache by path + cache key
type memEntry struct {
	key     Digest
	payload *DiskPayload
}

// MemCache keeps results in memory between runs of one process, so a
// watch loop re-checks only the files that changed. Payloads are stored
// without file ids and rebound on a hit.
type MemCache struct {
	mu     sync.RWMutex
	byPath map[string]memEntry
}

// NewMemCache creates a MemCache with the given capacity hint.
func NewMemCache(capHint int) *MemCache {
	return &MemCache{byPath: make(map[string]memEntry, capHint)}
}

// Get returns the payload stored for path when it was stored under key.
func (c *MemCache) Get(path string, key Digest) (*DiskPayload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return nil, false
	}
	return rec.payload, true
}

// Put replaces whatever was stored for path.
func (c *MemCache) Put(path string, key Digest, payload *DiskPayload) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byPath[path] = memEntry{key: key, payload: payload}
	c.mu.Unlock()
}

// Len reports how many paths are stored.
func (c *MemCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}
