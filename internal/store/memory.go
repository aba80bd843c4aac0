package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	run       *Run
	expiresAt time.Time
}

// MemoryStore keeps runs in process memory. A zero TTL keeps runs until deleted.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
	close sync.Once
	done  chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
		done: make(chan struct{}),
	}
}

func (s *MemoryStore) Save(ctx context.Context, run *Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := s.now()
	prepare(run, now)

	entry := memoryEntry{run: run}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.mu.Lock()
	s.runs[run.ID] = entry
	s.mu.Unlock()
	return run.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return nil, ErrNotFound
	}
	return entry.run, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

// Len counts stored runs, expired ones included until the next Prune.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Prune drops expired runs and returns how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, entry := range s.runs {
		if s.expired(entry) {
			delete(s.runs, id)
			n++
		}
	}
	return n
}

// StartJanitor prunes expired runs every interval until ctx is done or the store is closed.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.Prune()
			}
		}
	}()
}

func (s *MemoryStore) Close() error {
	s.close.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
