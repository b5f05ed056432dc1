// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package main is the entry point for the Guidepost match server.
//
// Guidepost precomputes mentor/mentee compatibility scores for a whole user
// population and serves them from a DuckDB-backed cache. Reads never compute
// scores; recalculation happens out of band, triggered by profile-change
// events, the sweep scheduler, or the recalculation endpoints.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Database: DuckDB with versioned migrations and optional seed data
//  3. Rarity index: usage-count snapshot behind a circuit breaker, with a
//     heuristic fallback until the first successful load
//  4. Match engine: algorithm registry, attribute fetcher, chunked cache
//     writer
//  5. Events: in-process profile.updated subscription that recalculates the
//     affected user
//  6. HTTP server: REST API with health endpoints and Prometheus metrics
//
// All long-running components run under a Suture supervision tree and are
// restarted on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SERVER_PORT, DATABASE_PATH, MATCH_CHUNK_SIZE, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Finishes the in-flight cache chunk, then stops recalculating
//   - Drains the event router and closes the database
//
// # Example Usage
//
// Development with an in-memory database and seed population:
//
//	export DATABASE_PATH=:memory:
//	export DATABASE_SEED_MOCK_DATA=true
//	export SWEEP_ENABLED=true
//	export SWEEP_RUN_ON_STARTUP=true
//	./guidepost
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guidepost-dev/guidepost/internal/api"
	"github.com/guidepost-dev/guidepost/internal/config"
	"github.com/guidepost-dev/guidepost/internal/database"
	"github.com/guidepost-dev/guidepost/internal/events"
	"github.com/guidepost-dev/guidepost/internal/logging"
	"github.com/guidepost-dev/guidepost/internal/match"
	"github.com/guidepost-dev/guidepost/internal/match/algorithms"
	"github.com/guidepost-dev/guidepost/internal/match/rarity"
	"github.com/guidepost-dev/guidepost/internal/supervisor"
	"github.com/guidepost-dev/guidepost/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Strs("algorithms", cfg.Match.Algorithms).
		Bool("sweep_enabled", cfg.Sweep.Enabled).
		Msg("Starting Guidepost")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Rarity index starts on the heuristic fallback; the first successful
	// reload swaps in real usage counts.
	rarityLoader := rarity.NewLoader(db, rarityBands(&cfg.Rarity), logging.Logger())
	if err := rarityLoader.Reload(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Initial rarity load failed, using fallback heuristics")
	}

	registry, err := buildRegistry(cfg.Match.Algorithms)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build algorithm registry")
	}
	defaultVersion := cfg.Match.Algorithms[0]

	fetcher := match.NewFetcher(db, cfg.Match.BulkBatchSize, logging.Logger())

	engine, err := match.NewEngine(&match.Config{
		ChunkSize:           cfg.Match.ChunkSize,
		ChunkDelay:          cfg.Match.ChunkDelay,
		WritesPerSecond:     cfg.Match.WritesPerSecond,
		MaxParallelSubjects: cfg.Match.MaxParallelSubjects,
	}, registry, fetcher, db, db, rarityLoader, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create match engine")
	}

	querySvc := match.NewQueryService(db, db, registry,
		cfg.API.DefaultLimit, cfg.API.MaxLimit, logging.Logger())

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Profile-change events: the embedding application publishes, the
	// engine recalculates the affected user.
	var bus *events.Bus
	if cfg.Events.Enabled {
		wmLogger := events.NewLoggerAdapter(logging.Logger())
		bus = events.NewBus(cfg.Events.BufferSize, wmLogger)
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()

		router, err := events.NewRouter(bus, engine, wmLogger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create event router")
		}
		tree.AddMessagingService(services.NewEventRouterService(router))
		logging.Info().Msg("Profile event router added to supervisor tree")
	} else {
		logging.Info().Msg("Profile events disabled (EVENTS_ENABLED=false)")
	}

	// Job layer: rarity refresh always runs; sweeps are opt-in.
	tree.AddJobService(services.NewRarityService(rarityLoader, cfg.Rarity.RefreshInterval, logging.Logger()))
	if cfg.Sweep.Enabled {
		tree.AddJobService(services.NewSweepService(engine, services.SweepServiceConfig{
			RunOnStartup: cfg.Sweep.RunOnStartup,
			Interval:     cfg.Sweep.Interval,
		}, logging.Logger()))
		logging.Info().
			Dur("interval", cfg.Sweep.Interval).
			Bool("run_on_startup", cfg.Sweep.RunOnStartup).
			Msg("Sweep scheduler added to supervisor tree")
	}

	handler := api.NewHandler(querySvc, engine, rarityLoader, db, defaultVersion)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.API),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildRegistry registers the configured algorithm versions. Unknown
// versions are a configuration error, not a silent skip: a typo must not
// leave a sweep running with fewer algorithms than intended.
func buildRegistry(versions []string) (*match.Registry, error) {
	registry := match.NewRegistry()
	for _, version := range versions {
		switch version {
		case algorithms.TagOverlapVersion:
			if err := registry.Register(algorithms.NewTagOverlap()); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown algorithm version %q", version)
		}
	}
	return registry, nil
}

func rarityBands(cfg *config.RarityConfig) rarity.Bands {
	return rarity.Bands{
		HighMaxUsage:  cfg.HighMaxUsage,
		MidMaxUsage:   cfg.MidMaxUsage,
		HighWeight:    cfg.HighWeight,
		MidWeight:     cfg.MidWeight,
		LowWeight:     cfg.LowWeight,
		DefaultWeight: cfg.DefaultWeight,
	}
}
