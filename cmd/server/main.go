package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/jadwal-backend/internal/cache"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/database"
	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/handler"
	"github.com/stemsi/jadwal-backend/internal/logger"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/repository/memory"
	"github.com/stemsi/jadwal-backend/internal/router"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
	"github.com/stemsi/jadwal-backend/internal/seed"
	"github.com/stemsi/jadwal-backend/internal/service"
	"github.com/stemsi/jadwal-backend/internal/validator"
	"github.com/stemsi/jadwal-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Jadwal Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Load Option Catalog ───────────────────────────────────────────
	options, err := config.LoadOptions(cfg.OptionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.OptionsFile).Msg("Failed to load options")
	}
	catalog, err := scheduling.NewCatalog(options.Days, options.Rooms)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid option catalog")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	var (
		repos repository.Repositories
		store *memory.Store
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		repos = repository.NewPostgres(pool)
	case config.StoreDriverMemory:
		store = memory.New()
		repos = store.Repositories()
		log.Warn().Msg("Using in-memory store, data is lost on restart")
	default:
		log.Fatal().Str("store", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	snapshots, bus := sharedInfra(rdb, cfg, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	directoryService := service.NewDirectoryService(repos, snapshots, log)
	conflictService := service.NewConflictService(repos.Schedules, catalog, log)
	sectionService := service.NewSectionService(repos, directoryService, bus, log)
	scheduleService := service.NewScheduleService(repos, conflictService, sectionService, directoryService, bus, log)

	// ─── Start Background Workers ─────────────────────────────────────
	// Started before seeding so that seeded changes reach the audit log.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	auditWorker := worker.NewAuditWorker(rdb, bus, repos.Audit, log)
	workerDone := make(chan struct{})
	go func() {
		auditWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Seed Memory Store ────────────────────────────────────────────
	if store != nil && cfg.SeedFile != "" {
		f, err := seed.ReadFile(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read seed file")
		}
		loader := seed.NewLoader(store, sectionService, scheduleService, log)
		if _, err := loader.Load(ctx, f); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed memory store")
		}
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Directory: handler.NewDirectoryHandler(directoryService, options, log),
		Section:   handler.NewSectionHandler(sectionService, log),
		Schedule:  handler.NewScheduleHandler(scheduleService, conflictService, log),
		WS:        handler.NewWSHandler(bus, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	// Request contexts derive from ctx so that cancelling it ends the
	// hijacked WebSocket streams, which Shutdown does not track.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). Open change streams
	// end when their request context is cancelled below.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	// 2. Stop the audit worker and wait for its queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Audit worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// sharedInfra picks the Redis-backed cache and change feed when Redis is
// configured, and in-process stand-ins otherwise.
func sharedInfra(rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (cache.Snapshots, events.Bus) {
	if rdb == nil {
		return cache.Nop{}, events.NewLocal()
	}
	return cache.NewRedisSnapshots(rdb, cfg.CacheTTL), events.NewRedisBus(rdb, log)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
