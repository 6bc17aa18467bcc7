package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/lektora/slot-booking/internal/booking"
	"github.com/lektora/slot-booking/internal/db"
)

// Copies the whole calendar (bookings, day overrides, roster) from the local
// Postgres store into the remote Mongo store. Documents keep their ids, so
// re-running the migration updates instead of duplicating.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("migrate starting")

	dsn := os.Getenv("POSTGRES_DSN")
	uri := os.Getenv("MONGO_URI")
	if dsn == "" || uri == "" {
		log.Fatal("POSTGRES_DSN and MONGO_URI are required")
	}
	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = "lektora"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	client, err := db.ConnectMongo(ctx, uri)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	src := booking.NewPgRepository(pool)
	dst := booking.NewMongoRepository(client.Database(database))

	bookings, err := src.ListRange(ctx, "0000-01-01", "9999-12-31")
	if err != nil {
		log.Fatalf("read bookings: %v", err)
	}
	for _, b := range bookings {
		if err := dst.Upsert(ctx, b); err != nil {
			log.Fatalf("migrate booking %s: %v", b.ID, err)
		}
	}
	log.Printf("migrated %d bookings", len(bookings))

	overrides, err := src.All(ctx)
	if err != nil {
		log.Fatalf("read day overrides: %v", err)
	}
	for date, wd := range overrides {
		if err := dst.Put(ctx, date, wd); err != nil {
			log.Fatalf("migrate override %s: %v", date, err)
		}
	}
	log.Printf("migrated %d day overrides", len(overrides))

	lectors, err := src.ListLectors(ctx)
	if err != nil {
		log.Fatalf("read lectors: %v", err)
	}
	for _, l := range lectors {
		if err := dst.UpsertLector(ctx, l); err != nil {
			log.Fatalf("migrate lector %s: %v", l.ID, err)
		}
	}
	log.Printf("migrated %d lectors", len(lectors))

	log.Println("migrate complete")
}
