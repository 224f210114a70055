package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/confscout/confscout/internal/api"
	"github.com/confscout/confscout/internal/auth"
	"github.com/confscout/confscout/internal/config"
	"github.com/confscout/confscout/internal/database"
	"github.com/confscout/confscout/internal/dates"
	"github.com/confscout/confscout/internal/ingestion"
	"github.com/confscout/confscout/internal/logging"
	"github.com/confscout/confscout/internal/metrics"
	"github.com/confscout/confscout/internal/reconcile"
	"github.com/confscout/confscout/internal/scheduler"
	"github.com/confscout/confscout/internal/server"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"log/slog"
)

func main() {
	// Best effort; production deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting confscout")

	// Storage: PostgreSQL when configured, in-memory otherwise.
	var conferenceRepo ingestion.ConferenceRepository
	var scrapeLogRepo ingestion.ScrapeLogRepository
	if cfg.Database.URL != "" {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = cfg.Database.URL
		dbConfig.MaxConnections = cfg.Database.MaxConnections

		logger.Info("connecting to database")
		db, err := database.Connect(context.Background(), dbConfig)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}

		conferenceRepo = database.NewPostgresConferenceRepository(db)
		scrapeLogRepo = database.NewPostgresScrapeLogRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		conferenceRepo = ingestion.NewMemoryConferenceRepository()
		scrapeLogRepo = ingestion.NewMemoryScrapeLogRepository()
	}

	// Collectors. Search and actor stages need credentials and are skipped
	// without them; the GitHub dataset is public.
	collectors := []ingestion.Collector{
		ingestion.NewGitHubCollector(cfg.Scrape.GitHubBaseURL, cfg.Scrape.Year, logger),
	}
	if cfg.Scrape.SearchAPIKey != "" {
		searchClient := ingestion.NewHTTPSearchClient(cfg.Scrape.SearchBaseURL, cfg.Scrape.SearchAPIKey)
		collectors = append(collectors, ingestion.NewSearchCollector(searchClient, logger))
	} else {
		logger.Warn("SEARCH_API_KEY not set, search collector disabled")
	}
	if cfg.Scrape.ActorToken != "" {
		actorClient := ingestion.NewHTTPActorClient(cfg.Scrape.ActorBaseURL, cfg.Scrape.ActorToken)
		collectors = append(collectors, ingestion.NewActorCollector(actorClient, ingestion.DefaultActorTargets(), logger))
	} else {
		logger.Warn("ACTOR_TOKEN not set, actor collector disabled")
	}

	normalizer := ingestion.NewNormalizer()
	normalizer.Dates = dates.Parser{DayFirst: cfg.Scrape.DayFirstDates}

	reconciler := reconcile.New(conferenceRepo, logger)
	pipeline := ingestion.NewPipeline(collectors, reconciler, scrapeLogRepo, normalizer, logger)

	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	authConfig := auth.Config{
		JWTSecret:         cfg.Auth.JWTSecret,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		TokenDuration:     cfg.Auth.TokenTTL,
	}
	if authConfig.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, admin endpoints will reject all tokens")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"confscout","status":"ready","version":"0.1.0"}`))
	})

	logger.Info("setting up REST API")
	api.SetupRoutes(mux, conferenceRepo, scrapeLogRepo, pipeline, collector, authConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scrapeScheduler *scheduler.ScrapeScheduler
	if cfg.Scheduler.Enabled {
		logger.Info("starting scrape scheduler", "interval", cfg.Scheduler.Interval)
		scrapeScheduler = scheduler.NewScrapeScheduler(pipeline, collector, cfg.Scheduler.Interval, true, logger)
		go scrapeScheduler.Start(ctx)
	} else {
		logger.Info("scrape scheduler disabled, runs are manual only")
	}

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("confscout started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if scrapeScheduler != nil {
		scrapeScheduler.Stop()
	}
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
