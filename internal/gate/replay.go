package gate

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// replayEntry pairs a resolved nonce with the instant it can be forgotten.
type replayEntry struct {
	nonce     uuid.UUID
	expiresAt time.Time
}

// ReplayCache remembers recently resolved nonces so replayed decisions can
// be rejected without a database round trip. It is bounded two ways:
// entries age out after the retention window, and when the cache is full
// the oldest entry is evicted to admit the new one. Because entries are
// inserted in resolution order, FIFO eviction and time eviction agree.
type ReplayCache struct {
	mu        sync.Mutex
	retention time.Duration
	capacity  int
	entries   map[uuid.UUID]struct{}
	order     []replayEntry
	now       func() time.Time
}

// NewReplayCache creates a cache that retains nonces for the given window,
// holding at most capacity entries. Panics if capacity or retention is
// non-positive.
func NewReplayCache(retention time.Duration, capacity int) *ReplayCache {
	if retention <= 0 {
		panic("retention must be positive")
	}
	if capacity <= 0 {
		panic("capacity must be positive")
	}

	return &ReplayCache{
		retention: retention,
		capacity:  capacity,
		entries:   make(map[uuid.UUID]struct{}, capacity),
		now:       time.Now,
	}
}

// MarkSeen records the nonce as resolved and reports whether it had been
// seen already. A true return means the caller is looking at a replay.
func (c *ReplayCache) MarkSeen(nonce uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	if _, seen := c.entries[nonce]; seen {
		return true
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest.nonce)
	}

	c.entries[nonce] = struct{}{}
	c.order = append(c.order, replayEntry{nonce: nonce, expiresAt: now.Add(c.retention)})
	return false
}

// Len returns the number of live entries.
func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(c.now())
	return len(c.entries)
}

// sweep drops aged-out entries from the front of the order queue.
// Caller must hold the mutex.
func (c *ReplayCache) sweep(now time.Time) {
	for len(c.order) > 0 && !c.order[0].expiresAt.After(now) {
		delete(c.entries, c.order[0].nonce)
		c.order = c.order[1:]
	}
}
