package activity

import (
	"context"
	"slices"
	"sync"

	"github.com/opsdesk/opsdesk/internal/types"
)

// MemoryStore implements Store using in-memory slices.
// Intended for demos and testing; no database required.
type MemoryStore struct {
	mu     sync.RWMutex
	events []types.AuditEvent
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, events []types.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// matches applies every predicate condition except the cursor, which the
// pager clamps in process.
func matches(e types.AuditEvent, p Predicate) bool {
	if e.TenantID != p.TenantID {
		return false
	}
	if p.EntityType != "" && e.EntityType != p.EntityType {
		return false
	}
	if p.EntityID != "" && e.EntityID != p.EntityID {
		return false
	}
	if len(p.ActorIDs) > 0 {
		if e.ActorUserID == nil || !slices.Contains(p.ActorIDs, *e.ActorUserID) {
			return false
		}
	}
	if p.From != nil && e.CreatedAt.Before(*p.From) {
		return false
	}
	if p.To != nil && e.CreatedAt.After(*p.To) {
		return false
	}
	return true
}

func (s *MemoryStore) FetchBatch(_ context.Context, p Predicate, take int) ([]types.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.AuditEvent
	for _, e := range s.events {
		if matches(e, p) {
			matched = append(matched, e)
		}
	}

	slices.SortFunc(matched, func(a, b types.AuditEvent) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		if a.ID > b.ID {
			return -1
		}
		if a.ID < b.ID {
			return 1
		}
		return 0
	})

	if take > 0 && len(matched) > take {
		matched = matched[:take]
	}
	return matched, nil
}

func (s *MemoryStore) Count(_ context.Context, p Predicate) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if matches(e, p) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DistinctActors(_ context.Context, p Predicate) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var actors []string
	for _, e := range s.events {
		if e.ActorUserID == nil || !matches(e, p) {
			continue
		}
		if !seen[*e.ActorUserID] {
			seen[*e.ActorUserID] = true
			actors = append(actors, *e.ActorUserID)
		}
	}
	slices.Sort(actors)
	return actors, nil
}
