package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"pvbess-model/internal/model"
)

// CacheEntry represents a parsed timeline held in memory.
type CacheEntry struct {
	Timeline  []model.HourlySample
	ExpiresAt time.Time
}

// TimelineCache keeps parsed timeline files so repeated API requests against the
// same preset do not re-read and re-parse a full year of CSV. Entries are keyed by
// path, size and modification time, so an edited file is picked up on the next load.
type TimelineCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewTimelineCache returns a cache with the given TTL (<= 0 means one hour).
func NewTimelineCache(ttl time.Duration) *TimelineCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TimelineCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Load returns the cached timeline for path or reads it through LoadTimeline.
// A nil cache always reads from disk.
func (c *TimelineCache) Load(path string) ([]model.HourlySample, error) {
	if c == nil {
		return LoadTimeline(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := GenerateCacheKey(path, info.Size(), info.ModTime())
	if tl, ok := c.Get(key); ok {
		return tl, nil
	}
	tl, err := LoadTimeline(path)
	if err != nil {
		return nil, err
	}
	c.Set(key, tl)
	return tl, nil
}

// Get retrieves a cached timeline if available and not expired
func (c *TimelineCache) Get(key string) ([]model.HourlySample, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Timeline, true
}

func (c *TimelineCache) Set(key string, timeline []model.HourlySample) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Timeline:  timeline,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

func (c *TimelineCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Prune removes expired entries and returns how many were dropped.
func (c *TimelineCache) Prune() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
			dropped++
		}
	}
	return dropped
}

// StartJanitor prunes expired entries every interval until ctx is done.
func (c *TimelineCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if c == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Prune()
			}
		}
	}()
}

// GenerateCacheKey creates a cache key from the file identity.
func GenerateCacheKey(path string, size int64, modTime time.Time) string {
	keyStr := fmt.Sprintf("%s:%d:%d", path, size, modTime.UnixNano())
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
