package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/jadwal-backend/internal/cache"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/database"
	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/logger"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
	"github.com/stemsi/jadwal-backend/internal/seed"
	"github.com/stemsi/jadwal-backend/internal/service"
)

func main() {
	var seedPath string
	flag.StringVar(&seedPath, "file", "config/seed.yaml", "Path to the catalog seed file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	f, err := seed.ReadFile(seedPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read seed file")
	}

	options, err := config.LoadOptions(cfg.OptionsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load options")
	}
	catalog, err := scheduling.NewCatalog(options.Days, options.Rooms)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid option catalog")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Running servers are told about the new sections through Redis and
	// drop their cached directory lists.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	var (
		snapshots cache.Snapshots = cache.Nop{}
		bus       events.Bus
	)
	if rdb != nil {
		defer rdb.Close()
		snapshots = cache.NewRedisSnapshots(rdb, cfg.CacheTTL)
		bus = events.NewRedisBus(rdb, log)
	}

	repos := repository.NewPostgres(pool)
	directory := service.NewDirectoryService(repos, snapshots, log)
	conflicts := service.NewConflictService(repos.Schedules, catalog, log)
	sections := service.NewSectionService(repos, directory, bus, log)
	schedules := service.NewScheduleService(repos, conflicts, sections, directory, bus, log)

	fmt.Printf("=== Seeding catalog from %s ===\n", seedPath)

	sum, err := seed.NewLoader(repository.NewCatalogWriter(pool), sections, schedules, log).Load(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Str("partial", sum.String()).Msg("Seeding failed")
	}
	directory.InvalidateAll(ctx)

	fmt.Printf("Seeded %s\n", sum)
}
