package api

import (
	"net/http"

	"github.com/confscout/confscout/internal/auth"
	"github.com/confscout/confscout/internal/ingestion"
	"github.com/confscout/confscout/internal/metrics"
	"log/slog"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, conferences ingestion.ConferenceRepository, logs ingestion.ScrapeLogRepository, pipeline *ingestion.Pipeline, collector *metrics.HTTPCollector, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(conferences, logs, pipeline, logger)
	authHandler := NewAuthHandler(authConfig, logger)
	adminHandler := NewAdminHandler(pipeline, collector, logger)

	// Auth middleware
	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
	})

	// Conference routes (public, read only)
	mux.HandleFunc("/api/conferences", handler.GetConferencesHandler)
	mux.HandleFunc("/api/conferences/", handler.GetConferenceByIDHandler)
	mux.HandleFunc("/api/domains", handler.GetDomainsHandler)
	mux.HandleFunc("/api/stats", handler.GetStatsHandler)

	// Scrape audit trail (public, read only)
	mux.HandleFunc("/api/scrape-logs", handler.GetScrapeLogsHandler)

	// Admin routes (require auth)
	mux.HandleFunc("/api/admin/scrape/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writePreflight(w)
			return
		}
		authMiddleware(http.HandlerFunc(adminHandler.TriggerScrape)).ServeHTTP(w, r)
	})

	// Health and metrics
	mux.HandleFunc("/api/health", handler.GetHealthHandler)
	if collector != nil {
		mux.Handle("/metrics", collector.Handler())
	}

	// CORS preflight and catch-all
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writePreflight(w)
			return
		}
		http.NotFound(w, r)
	})
}

func writePreflight(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
