package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMissingRequiredField = errors.New("date and startTime are required")
	ErrSlotConflict         = errors.New("slot already taken by another booking")
)

// FallbackTitle is used when a save request carries neither a resolvable
// lector nor a title of its own.
const FallbackTitle = "Lector"

// ListOptions expands the date's template into concrete (time, slotIndex)
// pairs and marks each one occupied or free against the given snapshot of
// bookings for that date. A booking whose id equals excludeID is ignored, so
// an edit does not collide with its own slot.
//
// Order is deterministic: template order (time-ascending), then ascending
// slot index.
func ListOptions(date string, overrides map[string]int, existing []Booking, excludeID string) ([]SlotOption, error) {
	tpl, err := ResolveTemplate(date, overrides)
	if err != nil {
		return nil, err
	}

	type occupant struct {
		id    string
		title string
	}
	used := make(map[string]occupant)
	for _, b := range existing {
		if b.Date != date || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		used[slotKey(b.StartTime, b.SlotIndex)] = occupant{id: b.ID, title: b.Title}
	}

	var options []SlotOption
	for _, slot := range tpl {
		for i := 0; i < slot.Repetitions; i++ {
			opt := SlotOption{
				TimeOfDay: slot.TimeOfDay,
				SlotIndex: i,
				Label:     slotLabel(slot.TimeOfDay, i, slot.Repetitions),
			}
			if occ, ok := used[slotKey(slot.TimeOfDay, i)]; ok {
				opt.Occupied = true
				opt.BookingID = occ.id
				opt.Title = occ.title
			}
			options = append(options, opt)
		}
	}
	return options, nil
}

// PrepareSave validates and normalizes a save request against a snapshot of
// the date's bookings and returns the finalized record. It never touches
// storage: either the whole booking is accepted or nothing changes.
// lectorName is the resolved roster display name for req.LectorID, empty if
// none could be resolved.
func PrepareSave(req SaveRequest, existing []Booking, lectorName string) (Booking, error) {
	if req.Date == "" || req.StartTime == "" {
		return Booking{}, ErrMissingRequiredField
	}
	if _, err := ParseDate(req.Date); err != nil {
		return Booking{}, err
	}

	b := Booking{
		ID:        req.ID,
		Date:      req.Date,
		StartTime: NormalizeTime(req.StartTime),
		EndTime:   NormalizeTime(req.EndTime),
		SlotIndex: req.SlotIndex,
		Title:     req.Title,
		LectorID:  req.LectorID,
	}
	if b.SlotIndex < 0 {
		b.SlotIndex = 0
	}

	switch {
	case lectorName != "":
		b.Title = lectorName
	case b.Title != "":
		// keep the caller's title
	default:
		b.Title = FallbackTitle
	}

	for _, ex := range existing {
		if ex.Date != b.Date {
			continue
		}
		if ex.StartTime == b.StartTime && ex.SlotIndex == b.SlotIndex && ex.ID != b.ID {
			return Booking{}, ErrSlotConflict
		}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return b, nil
}

// NormalizeTime canonicalizes HH:MM to HH:MM:SS. Already-normalized and empty
// values pass through unchanged, so the function is idempotent.
func NormalizeTime(t string) string {
	if len(t) == 5 {
		return t + ":00"
	}
	return t
}

func slotKey(timeOfDay string, slotIndex int) string {
	return fmt.Sprintf("%s|%d", timeOfDay, slotIndex)
}

func slotLabel(timeOfDay string, slotIndex, repetitions int) string {
	short := timeOfDay
	if len(short) >= 5 {
		short = short[:5]
	}
	if repetitions > 1 {
		return fmt.Sprintf("%s - Reading %d", short, slotIndex+1)
	}
	return short
}
