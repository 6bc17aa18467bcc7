package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var endTime, lectorID *string

	err := row.Scan(
		&b.ID,
		&b.Date,
		&b.StartTime,
		&endTime,
		&b.SlotIndex,
		&b.Title,
		&lectorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if endTime != nil {
		b.EndTime = *endTime
	}
	if lectorID != nil {
		b.LectorID = *lectorID
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, start_time, end_time, slot_index, title, lector_id
		FROM bookings
		WHERE date = $1
		ORDER BY start_time, slot_index
	`, date)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) ListRange(ctx context.Context, from, to string) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, start_time, end_time, slot_index, title, lector_id
		FROM bookings
		WHERE date >= $1 AND date <= $2
		ORDER BY date, start_time, slot_index
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, date, start_time, end_time, slot_index, title, lector_id
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) Upsert(ctx context.Context, b Booking) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (id, date, start_time, end_time, slot_index, title, lector_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET date = EXCLUDED.date,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    slot_index = EXCLUDED.slot_index,
		    title = EXCLUDED.title,
		    lector_id = EXCLUDED.lector_id
	`, b.ID, b.Date, b.StartTime, nullableString(b.EndTime), b.SlotIndex, b.Title, nullableString(b.LectorID))
	if err != nil {
		return fmt.Errorf("upsert booking: %w", err)
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

func (r *PgRepository) All(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT date, weekday FROM day_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]int)
	for rows.Next() {
		var date string
		var weekday int
		if err := rows.Scan(&date, &weekday); err != nil {
			return nil, err
		}
		overrides[date] = weekday
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *PgRepository) Put(ctx context.Context, date string, weekday int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO day_overrides (date, weekday)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET weekday = EXCLUDED.weekday
	`, date, weekday)
	if err != nil {
		return fmt.Errorf("put day override: %w", err)
	}
	return nil
}

func (r *PgRepository) Remove(ctx context.Context, date string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM day_overrides WHERE date = $1`, date)
	if err != nil {
		return fmt.Errorf("remove day override: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLectorByID(ctx context.Context, id string) (*Lector, error) {
	var l Lector
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM lectors WHERE id = $1`, id).Scan(&l.ID, &l.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLectorNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PgRepository) ListLectors(ctx context.Context) ([]Lector, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM lectors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Lector
	for rows.Next() {
		var l Lector
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
