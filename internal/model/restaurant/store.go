package restaurant

import (
	"context"
	"sort"
	"strings"
)

// Store exposes catalog retrieval for the assistant. Implementations must
// return only active restaurants.
type Store interface {
	Popular(ctx context.Context, limit int) ([]Restaurant, error)
	ByCuisine(ctx context.Context, cuisine string, limit int) ([]Restaurant, error)
	ForBooking(ctx context.Context, limit int) ([]Restaurant, error)
	FindByID(ctx context.Context, id string) (Restaurant, bool, error)
}

// MemoryStore implements Store over a fixed slice, the default when no
// database is configured.
type MemoryStore struct {
	items []Restaurant
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied catalog.
func NewMemoryStore(items []Restaurant) *MemoryStore {
	return &MemoryStore{items: append([]Restaurant(nil), items...)}
}

// Popular returns active restaurants ordered by rating, best first.
func (s *MemoryStore) Popular(_ context.Context, limit int) ([]Restaurant, error) {
	active := s.active()
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Rating > active[j].Rating
	})
	return clip(active, limit), nil
}

// ByCuisine filters active restaurants by cuisine, case-insensitively.
func (s *MemoryStore) ByCuisine(_ context.Context, cuisine string, limit int) ([]Restaurant, error) {
	want := strings.ToLower(strings.TrimSpace(cuisine))
	matched := make([]Restaurant, 0, len(s.items))
	for _, item := range s.active() {
		if strings.ToLower(item.Cuisine) == want {
			matched = append(matched, item)
		}
	}
	return clip(matched, limit), nil
}

// ForBooking returns active restaurants that accept table reservations.
func (s *MemoryStore) ForBooking(_ context.Context, limit int) ([]Restaurant, error) {
	matched := make([]Restaurant, 0, len(s.items))
	for _, item := range s.active() {
		if item.DineIn {
			matched = append(matched, item)
		}
	}
	return clip(matched, limit), nil
}

// FindByID looks up a restaurant by identifier.
func (s *MemoryStore) FindByID(_ context.Context, id string) (Restaurant, bool, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return Restaurant{}, false, nil
}

func (s *MemoryStore) active() []Restaurant {
	out := make([]Restaurant, 0, len(s.items))
	for _, item := range s.items {
		if item.Active {
			out = append(out, item)
		}
	}
	return out
}

func clip(items []Restaurant, limit int) []Restaurant {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
