package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/lektora/slot-booking/internal/api"
	"github.com/lektora/slot-booking/internal/booking"
	"github.com/lektora/slot-booking/internal/config"
	"github.com/lektora/slot-booking/internal/db"
	"github.com/lektora/slot-booking/internal/logger"
	redisclient "github.com/lektora/slot-booking/internal/redis"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo        booking.Repository
		overrides   booking.OverrideRepository
		roster      booking.RosterProvider
		pgPool      *pgxpool.Pool
		mongoClient *mongo.Client
		mongoRepo   *booking.MongoRepository
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			zlog.Fatal("postgres connection error", zap.Error(err))
		}
		defer pool.Close()
		zlog.Info("connected to Postgres")

		pgPool = pool
		pgRepo := booking.NewPgRepository(pool)
		repo, overrides, roster = pgRepo, pgRepo, pgRepo

	case config.BackendMongo:
		mCtx, cancelM := context.WithTimeout(rootCtx, 10*time.Second)
		client, err := db.ConnectMongo(mCtx, cfg.MongoURI)
		cancelM()
		if err != nil {
			zlog.Fatal("mongo connection error", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		zlog.Info("connected to Mongo", zap.String("database", cfg.MongoDatabase))

		mongoClient = client
		mongoRepo = booking.NewMongoRepository(client.Database(cfg.MongoDatabase))
		repo, overrides, roster = mongoRepo, mongoRepo, mongoRepo
	}

	var (
		cache       booking.DayCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			zlog.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				zlog.Warn("error closing redis", zap.Error(err))
			}
		}()
		zlog.Info("connected to Redis, day cache enabled", zap.Duration("ttl", cfg.CacheTTL))

		redisClient = rdb
		cache = redisclient.NewDayOptionsCache(rdb, cfg.CacheTTL)
	}

	opts := booking.ServiceOptions{Cache: cache}
	if cfg.LocalFallback {
		opts.Fallback = booking.NewMemRepository()
	}
	svc := booking.NewService(repo, overrides, roster, zlog, opts)

	// With the document backend other clients write to the same collections,
	// so tail the change stream to keep the day cache honest.
	if mongoRepo != nil && cache != nil {
		go func() {
			if err := mongoRepo.WatchBookings(rootCtx, func(date string) {
				svc.InvalidateDay(rootCtx, date)
			}); err != nil {
				zlog.Warn("bookings change stream stopped", zap.Error(err))
			}
		}()
	}

	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		PgPool:         pgPool,
		Mongo:          mongoClient,
		Redis:          redisClient,
		Logger:         zlog,
		Env:            cfg.Env,
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
