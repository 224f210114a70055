package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/ingestion"
	"github.com/confscout/confscout/internal/metrics"
	"github.com/confscout/confscout/internal/models"
	"log/slog"
)

// AdminHandler handles authenticated administrative operations.
type AdminHandler struct {
	pipeline  *ingestion.Pipeline
	collector *metrics.HTTPCollector
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin handler. The metrics collector may be
// nil when metrics are not wired.
func NewAdminHandler(pipeline *ingestion.Pipeline, collector *metrics.HTTPCollector, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		pipeline:  pipeline,
		collector: collector,
		logger:    logger,
	}
}

// TriggerScrape handles POST /api/admin/scrape/:type where type is one of
// github, search, actor or full. The run executes synchronously; overlapping
// triggers get 409.
func (h *AdminHandler) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/admin/scrape/")
	scrapeType, ok := parseScrapeType(raw)
	if !ok {
		http.Error(w, "Unknown scrape type", http.StatusBadRequest)
		return
	}

	h.logger.Info("scrape triggered", "type", scrapeType, "ip", r.RemoteAddr)

	start := time.Now()
	result, err := h.pipeline.Run(r.Context(), scrapeType)
	if errors.Is(err, ingestion.ErrRunInProgress) {
		http.Error(w, "A scrape run is already in progress", http.StatusConflict)
		return
	}
	if result == nil {
		h.logger.Error("scrape run failed to start", "type", scrapeType, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if h.collector != nil {
		h.collector.RecordScrapeRun(string(scrapeType), string(result.Status), time.Since(start), result.Added, result.Updated, result.Dropped)
	}

	// An error status still carries the run summary; surface both.
	code := http.StatusOK
	if result.Status == models.ScrapeStatusError {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, result)
}

func parseScrapeType(raw string) (models.ScrapeType, bool) {
	switch models.ScrapeType(raw) {
	case models.ScrapeTypeGitHub, models.ScrapeTypeSearch, models.ScrapeTypeActor, models.ScrapeTypeFull:
		return models.ScrapeType(raw), true
	}
	return "", false
}
