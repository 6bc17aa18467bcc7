package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lektora/slot-booking/internal/booking"
	"github.com/lektora/slot-booking/internal/db"
)

// Seeds the Postgres backend with a fake lector roster and fills a share of
// the upcoming weeks' slots through the allocator, so seeded data always
// satisfies the no-double-booking rule.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	lectorCount := envInt("SEED_LECTORS", 25)
	weeks := envInt("SEED_WEEKS", 4)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	lectors, err := seedLectors(ctx, pool, lectorCount)
	if err != nil {
		log.Fatalf("seed lectors: %v", err)
	}
	log.Printf("seeded %d lectors", len(lectors))

	repo := booking.NewPgRepository(pool)
	created, err := seedBookings(ctx, repo, lectors, weeks)
	if err != nil {
		log.Fatalf("seed bookings: %v", err)
	}
	log.Printf("seeded %d bookings over %d weeks", created, weeks)

	log.Println("seed complete")
}

func seedLectors(ctx context.Context, pool *pgxpool.Pool, count int) ([]booking.Lector, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lectors := make([]booking.Lector, 0, count)
	for i := 0; i < count; i++ {
		l := booking.Lector{ID: uuid.NewString(), Name: gofakeit.Name()}

		_, err := tx.Exec(ctx, `
			INSERT INTO lectors (id, name)
			VALUES ($1, $2)
		`, l.ID, l.Name)
		if err != nil {
			return nil, err
		}
		lectors = append(lectors, l)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return lectors, nil
}

// seedBookings walks day by day, asks the allocator for each date's free
// slots and books roughly two thirds of them with random lectors.
func seedBookings(ctx context.Context, repo *booking.PgRepository, lectors []booking.Lector, weeks int) (int, error) {
	overrides, err := repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load overrides: %w", err)
	}

	created := 0
	start := time.Now()
	for day := 0; day < weeks*7; day++ {
		date := start.AddDate(0, 0, day).Format("2006-01-02")

		existing, err := repo.ListByDate(ctx, date)
		if err != nil {
			return created, fmt.Errorf("list bookings for %s: %w", date, err)
		}

		options, err := booking.ListOptions(date, overrides, existing, "")
		if err != nil {
			return created, fmt.Errorf("list options for %s: %w", date, err)
		}

		for _, opt := range options {
			if opt.Occupied || gofakeit.Number(0, 2) == 0 {
				continue
			}
			lec := lectors[gofakeit.Number(0, len(lectors)-1)]

			b, err := booking.PrepareSave(booking.SaveRequest{
				Date:      date,
				StartTime: opt.TimeOfDay,
				SlotIndex: opt.SlotIndex,
				LectorID:  lec.ID,
			}, existing, lec.Name)
			if err != nil {
				return created, fmt.Errorf("prepare booking for %s %s: %w", date, opt.TimeOfDay, err)
			}
			if err := repo.Upsert(ctx, b); err != nil {
				return created, err
			}

			existing = append(existing, b)
			created++
		}
	}
	return created, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
