package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/lektora/slot-booking/internal/booking"
)

type RouterConfig struct {
	Service        *booking.Service
	PgPool         *pgxpool.Pool // nil when the Mongo backend is active
	Mongo          *mongo.Client // nil when the Postgres backend is active
	Redis          *redis.Client // nil when the day cache is disabled
	Logger         *zap.Logger
	Env            string
	Version        string
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Mongo, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Slot resolution
	r.Get("/days/{date}/options", dayOptionsHandler(cfg.Service))
	r.Get("/agenda", agendaHandler(cfg.Service))

	// Bookings
	r.Get("/bookings", listBookingsHandler(cfg.Service))
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Service))
	r.Put("/bookings/{id}", updateBookingHandler(cfg.Service))
	r.Delete("/bookings/{id}", deleteBookingHandler(cfg.Service))

	// Roster
	r.Get("/lectors", lectorsHandler(cfg.Service))

	// Day overrides
	r.Get("/overrides", listOverridesHandler(cfg.Service))
	r.Put("/overrides/{date}", putOverrideHandler(cfg.Service))
	r.Delete("/overrides/{date}", deleteOverrideHandler(cfg.Service))

	// Import
	r.Post("/import", importHandler(cfg.Service))

	return r
}
