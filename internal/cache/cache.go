// internal/cache/cache.go
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog/log"
)

// Cache memoizes retrieval results by search term for the lifetime of a run.
type Cache interface {
	// Get returns a copy of the cached records and whether the key was found.
	Get(key string) ([]models.Record, bool)

	// Set stores records under key. Existing entries are replaced.
	Set(key string, records []models.Record, ttl time.Duration)

	// Delete removes key. Missing keys are ignored.
	Delete(key string)

	// Clear removes all entries.
	Clear()

	// Close releases the cache.
	Close()
}

type cacheEntry struct {
	Key       string
	Records   []models.Record
	ExpiresAt time.Time
}

// MemoryCache is an LRU bounded by entry count.
type MemoryCache struct {
	store      map[string]*list.Element
	lruList    *list.List
	mu         sync.Mutex
	maxEntries int
	hits       uint64
	misses     uint64
	now        func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries terms.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryCache{
		store:      make(map[string]*list.Element),
		lruList:    list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves cached records and marks the entry most recently used.
func (mc *MemoryCache) Get(key string) ([]models.Record, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	entry := element.Value.(*cacheEntry)
	if !entry.ExpiresAt.IsZero() && mc.now().After(entry.ExpiresAt) {
		mc.misses++
		mc.removeElement(element)
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++

	log.Debug().Str("key", key).Int("records", len(entry.Records)).Msg("Term cache hit")
	return append([]models.Record(nil), entry.Records...), true
}

// Set stores records. A ttl <= 0 keeps the entry until evicted.
func (mc *MemoryCache) Set(key string, records []models.Record, ttl time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry := &cacheEntry{
		Key:     key,
		Records: append([]models.Record(nil), records...),
	}
	if ttl > 0 {
		entry.ExpiresAt = mc.now().Add(ttl)
	}

	if element, exists := mc.store[key]; exists {
		element.Value = entry
		mc.lruList.MoveToFront(element)
		return
	}

	for mc.lruList.Len() >= mc.maxEntries {
		mc.evictLRU()
	}

	mc.store[key] = mc.lruList.PushFront(entry)
}

// Delete removes a cached entry
func (mc *MemoryCache) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}
}

// Clear removes all cached entries
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.hits = 0
	mc.misses = 0
}

// Close drops all entries.
func (mc *MemoryCache) Close() {
	mc.Clear()
	log.Debug().Msg("Term cache closed")
}

// Len returns the number of cached terms.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lruList.Len()
}

// Stats returns hit and miss counters.
func (mc *MemoryCache) Stats() (hits, misses uint64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.hits, mc.misses
}

// must be called with lock held
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	log.Debug().Str("key", element.Value.(*cacheEntry).Key).Msg("Evicted term from cache (LRU)")
	mc.removeElement(element)
}

// must be called with lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
}
