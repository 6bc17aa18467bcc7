package booking

import (
	"context"
	"errors"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrLectorNotFound     = errors.New("lector not found")
	ErrStorageUnavailable = errors.New("booking store unavailable")
)

// Repository is the booking store contract the service needs. Two
// interchangeable implementations exist: Postgres (local durable store) and
// Mongo (remote document collection); tests use the in-memory one.
type Repository interface {
	ListByDate(ctx context.Context, date string) ([]Booking, error)
	ListRange(ctx context.Context, from, to string) ([]Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Upsert(ctx context.Context, b Booking) error
	// Delete is idempotent: deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// OverrideRepository persists the date -> weekday-index override mapping.
type OverrideRepository interface {
	All(ctx context.Context) (map[string]int, error)
	Put(ctx context.Context, date string, weekday int) error
	Remove(ctx context.Context, date string) error
}

// RosterProvider is the read-only lector roster.
type RosterProvider interface {
	GetLectorByID(ctx context.Context, id string) (*Lector, error)
	ListLectors(ctx context.Context) ([]Lector, error)
}
