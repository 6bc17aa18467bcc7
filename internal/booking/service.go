package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")

// DayCache caches a date's computed slot options. A (nil, nil) Get is a
// cache miss; cache failures are never fatal to the service.
type DayCache interface {
	GetOptions(ctx context.Context, date string) ([]SlotOption, error)
	SetOptions(ctx context.Context, date string, opts []SlotOption) error
	Invalidate(ctx context.Context, dates ...string) error
}

// Service wires the pure allocator to the storage collaborators. The
// allocator's conflict check is advisory: it is only as fresh as the snapshot
// read here, and with concurrent writers the last write wins at the store.
type Service struct {
	repo      Repository
	overrides OverrideRepository
	roster    RosterProvider
	cache     DayCache
	fallback  *MemRepository
	log       *zap.Logger
}

// ServiceOptions carries the optional collaborators. Cache may be nil (no
// caching); Fallback may be nil (storage failures surface to the caller).
type ServiceOptions struct {
	Cache    DayCache
	Fallback *MemRepository
}

func NewService(repo Repository, overrides OverrideRepository, roster RosterProvider, log *zap.Logger, opts ServiceOptions) *Service {
	return &Service{
		repo:      repo,
		overrides: overrides,
		roster:    roster,
		cache:     opts.Cache,
		fallback:  opts.Fallback,
		log:       log,
	}
}

// DayOptions returns the annotated slot list for a date. excludeID removes
// one booking from the occupancy check so an edit can keep its own slot.
func (s *Service) DayOptions(ctx context.Context, date string, excludeID string) ([]SlotOption, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}

	// Cached options never carry an exclusion, so only plain lookups hit it.
	if s.cache != nil && excludeID == "" {
		if opts, err := s.cache.GetOptions(ctx, date); err != nil {
			s.log.Debug("day cache read failed", zap.String("date", date), zap.Error(err))
		} else if opts != nil {
			return opts, nil
		}
	}

	overrides, err := s.loadOverrides(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	opts, err := ListOptions(date, overrides, existing, excludeID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && excludeID == "" {
		if err := s.cache.SetOptions(ctx, date, opts); err != nil {
			s.log.Debug("day cache write failed", zap.String("date", date), zap.Error(err))
		}
	}
	return opts, nil
}

// Save validates, normalizes and persists a booking. An empty req.ID creates,
// a non-empty one edits in place. When the primary store is unreachable and
// the fallback overlay is enabled, the finalized booking is kept there so the
// edit survives; otherwise the failure is surfaced as ErrStorageUnavailable.
func (s *Service) Save(ctx context.Context, req SaveRequest) (Booking, error) {
	if req.Date == "" || req.StartTime == "" {
		return Booking{}, ErrMissingRequiredField
	}
	existing, err := s.snapshot(ctx, req.Date)
	if err != nil {
		return Booking{}, err
	}

	lectorName := ""
	if req.LectorID != "" {
		lec, err := s.roster.GetLectorByID(ctx, req.LectorID)
		switch {
		case err == nil:
			lectorName = lec.Name
		case errors.Is(err, ErrLectorNotFound):
			// unknown lector: keep the request's own title
		default:
			s.log.Warn("roster lookup failed", zap.String("lector_id", req.LectorID), zap.Error(err))
		}
	}

	b, err := PrepareSave(req, existing, lectorName)
	if err != nil {
		return Booking{}, err
	}

	if err := s.repo.Upsert(ctx, b); err != nil {
		if s.fallback == nil {
			return Booking{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.log.Warn("primary store write failed, keeping booking in local fallback",
			zap.String("booking_id", b.ID), zap.Error(err))
		if err := s.fallback.Upsert(ctx, b); err != nil {
			return Booking{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	s.invalidate(ctx, b.Date)
	return b, nil
}

// Get returns a single booking by id, consulting the fallback overlay for
// writes that never reached the primary store.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return b, nil
	}
	if s.fallback != nil {
		if fb, fbErr := s.fallback.GetByID(ctx, id); fbErr == nil {
			return fb, nil
		}
	}
	if errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// Delete removes a booking. Deleting an absent id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	date := ""
	if b, err := s.Get(ctx, id); err == nil {
		date = b.Date
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if s.fallback == nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.log.Warn("primary store delete failed, deleting from local fallback",
			zap.String("booking_id", id), zap.Error(err))
	}
	if s.fallback != nil {
		_ = s.fallback.Delete(ctx, id)
	}

	if date != "" {
		s.invalidate(ctx, date)
	}
	return nil
}

// AgendaDay is one day of the weekly agenda.
type AgendaDay struct {
	Date     string    `json:"date"`
	Bookings []Booking `json:"bookings"`
}

// WeekAgenda returns the Monday-started week containing date, seven days,
// each day's bookings sorted by start time then slot index.
func (s *Service) WeekAgenda(ctx context.Context, date string) ([]AgendaDay, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	start := startOfWeek(d)
	from := start.Format(dateLayout)
	to := start.AddDate(0, 0, 6).Format(dateLayout)

	bookings, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.log.Warn("primary store read failed, serving agenda from local fallback", zap.Error(err))
		bookings, _ = s.fallback.ListRange(ctx, from, to)
	} else if s.fallback != nil {
		bookings = mergeOverlay(ctx, bookings, s.fallback, from, to)
	}

	byDate := make(map[string][]Booking)
	for _, b := range bookings {
		byDate[b.Date] = append(byDate[b.Date], b)
	}

	week := make([]AgendaDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		week = append(week, AgendaDay{Date: day, Bookings: byDate[day]})
	}
	return week, nil
}

// Overrides returns the full date -> weekday override mapping.
func (s *Service) Overrides(ctx context.Context) (map[string]int, error) {
	return s.loadOverrides(ctx)
}

// SetOverride forces the given date to follow another weekday's template.
func (s *Service) SetOverride(ctx context.Context, date string, weekday int) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if weekday < 0 || weekday > 6 {
		return ErrInvalidWeekday
	}
	if err := s.overrides.Put(ctx, date, weekday); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.invalidate(ctx, date)
	return nil
}

// RemoveOverride restores the date's natural weekday template.
func (s *Service) RemoveOverride(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if err := s.overrides.Remove(ctx, date); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.invalidate(ctx, date)
	return nil
}

// Lectors returns the roster.
func (s *Service) Lectors(ctx context.Context) ([]Lector, error) {
	return s.roster.ListLectors(ctx)
}

// ListByDate returns the stored bookings for one date.
func (s *Service) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, date)
}

// InvalidateDay drops the cached options for a date. Used by the change
// stream watcher when another writer touches the store; an empty date drops
// nothing but is accepted, since deletes carry no document.
func (s *Service) InvalidateDay(ctx context.Context, date string) {
	if date != "" {
		s.invalidate(ctx, date)
	}
}

// internals

func (s *Service) loadOverrides(ctx context.Context) (map[string]int, error) {
	overrides, err := s.overrides.All(ctx)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.log.Warn("override read failed, serving overrides from local fallback", zap.Error(err))
		return s.fallback.All(ctx)
	}
	return overrides, nil
}

// snapshot reads the date's bookings, overlaying any fallback writes that
// never reached the primary store.
func (s *Service) snapshot(ctx context.Context, date string) ([]Booking, error) {
	primary, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		s.log.Warn("primary store read failed, serving bookings from local fallback",
			zap.String("date", date), zap.Error(err))
		return s.fallback.ListByDate(ctx, date)
	}
	if s.fallback == nil {
		return primary, nil
	}
	return mergeOverlay(ctx, primary, s.fallback, date, date), nil
}

func mergeOverlay(ctx context.Context, primary []Booking, fallback *MemRepository, from, to string) []Booking {
	overlay, err := fallback.ListRange(ctx, from, to)
	if err != nil || len(overlay) == 0 {
		return primary
	}
	byID := make(map[string]int, len(primary))
	for i, b := range primary {
		byID[b.ID] = i
	}
	for _, b := range overlay {
		if i, ok := byID[b.ID]; ok {
			primary[i] = b
		} else {
			primary = append(primary, b)
		}
	}
	return primary
}

func (s *Service) invalidate(ctx context.Context, dates ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dates...); err != nil {
		s.log.Debug("day cache invalidation failed", zap.Strings("dates", dates), zap.Error(err))
	}
}

// startOfWeek returns the Monday beginning the week containing d.
func startOfWeek(d time.Time) time.Time {
	diff := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		diff = 6
	}
	return d.AddDate(0, 0, -diff)
}
