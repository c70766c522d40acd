package index

import (
	"github.com/decred/dcrd/lru"
	"github.com/nostrdb-go/notedb/note"
)

// SeenIDCache is a bounded, recently-seen-id membership set. InsertNote
// records each newly inserted id in it; the insert path's uniqueness check
// and LookupKey always read the IdToKey sub-database and do not consult
// the cache, so it is never a source of truth for dedup.
//
// Built on github.com/decred/dcrd/lru's Cache, a concurrent-safe
// string-keyed recently-used set (no stored values, membership only).
type SeenIDCache struct {
	c *lru.Cache
}

// NewSeenIDCache builds a cache holding at most limit recently-inserted ids.
func NewSeenIDCache(limit uint) *SeenIDCache {
	return &SeenIDCache{c: lru.NewCache(limit)}
}

// Contains reports whether id was recently marked Add'd. A false does not
// imply the id was never seen — only that it isn't in the hot set.
func (c *SeenIDCache) Contains(id note.ID) bool {
	return c.c.Contains(string(id[:]))
}

// Add marks id as recently committed.
func (c *SeenIDCache) Add(id note.ID) {
	c.c.Add(string(id[:]))
}
