package booking

import (
	"context"
	"sort"
	"sync"
)

// MemRepository is an in-memory store. It backs tests and, when enabled,
// serves as the local fallback overlay applied when the primary store is
// unreachable, so an accepted edit is not lost.
type MemRepository struct {
	mu        sync.RWMutex
	bookings  map[string]Booking
	overrides map[string]int
	lectors   map[string]Lector
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		bookings:  make(map[string]Booking),
		overrides: make(map[string]int),
		lectors:   make(map[string]Lector),
	}
}

func (r *MemRepository) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	return r.ListRange(ctx, date, date)
}

func (r *MemRepository) ListRange(_ context.Context, from, to string) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Booking
	for _, b := range r.bookings {
		if b.Date >= from && b.Date <= to {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].SlotIndex < result[j].SlotIndex
	})
	return result, nil
}

func (r *MemRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r *MemRepository) Upsert(_ context.Context, b Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings[b.ID] = b
	return nil
}

func (r *MemRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.bookings, id)
	return nil
}

func (r *MemRepository) All(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overrides := make(map[string]int, len(r.overrides))
	for k, v := range r.overrides {
		overrides[k] = v
	}
	return overrides, nil
}

func (r *MemRepository) Put(_ context.Context, date string, weekday int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.overrides[date] = weekday
	return nil
}

func (r *MemRepository) Remove(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.overrides, date)
	return nil
}

func (r *MemRepository) GetLectorByID(_ context.Context, id string) (*Lector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lectors[id]
	if !ok {
		return nil, ErrLectorNotFound
	}
	return &l, nil
}

func (r *MemRepository) ListLectors(_ context.Context) ([]Lector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Lector, 0, len(r.lectors))
	for _, l := range r.lectors {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AddLector seeds a roster entry; used by tests and the mem-backed setups.
func (r *MemRepository) AddLector(l Lector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lectors[l.ID] = l
}
