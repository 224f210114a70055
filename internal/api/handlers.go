package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/ingestion"
	"github.com/confscout/confscout/internal/models"
	"log/slog"
)

type Handler struct {
	conferences ingestion.ConferenceRepository
	logs        ingestion.ScrapeLogRepository
	pipeline    *ingestion.Pipeline
	logger      *slog.Logger
	startTime   time.Time
	now         func() time.Time
}

func NewHandler(conferences ingestion.ConferenceRepository, logs ingestion.ScrapeLogRepository, pipeline *ingestion.Pipeline, logger *slog.Logger) *Handler {
	return &Handler{
		conferences: conferences,
		logs:        logs,
		pipeline:    pipeline,
		logger:      logger,
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// GetConferencesHandler handles GET /api/conferences
func (h *Handler) GetConferencesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, err := h.parseQueryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := h.conferences.Query(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to query conferences", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetConferenceByIDHandler handles GET /api/conferences/:id
func (h *Handler) GetConferenceByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 4 || parts[3] == "" {
		http.Error(w, "Conference ID required", http.StatusBadRequest)
		return
	}
	id := parts[3]

	conference, err := h.conferences.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get conference", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if conference == nil {
		http.Error(w, "Conference not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, conference)
}

// GetDomainsHandler handles GET /api/domains
func (h *Handler) GetDomainsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.conferences.CountByDomain(r.Context())
	if err != nil {
		h.logger.Error("failed to count conferences by domain", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	domains := models.Domains()
	for i := range domains {
		domains[i].Count = counts[domains[i].Slug]
	}

	writeJSON(w, http.StatusOK, DomainsResponse{Domains: domains, Count: len(domains)})
}

// GetStatsHandler handles GET /api/stats
func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conferences, err := h.conferences.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list conferences for stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stats := models.ComputeStats(conferences, h.now())

	if last, err := h.logs.LastSuccessfulAt(r.Context(), models.ScrapeTypeFull); err == nil && last != nil {
		stats.LastUpdated = last
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetScrapeLogsHandler handles GET /api/scrape-logs
func (h *Handler) GetScrapeLogsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	logs, err := h.logs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list scrape logs", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ScrapeLogsResponse{Logs: logs, Count: len(logs)})
}

// GetHealthHandler handles GET /api/health
func (h *Handler) GetHealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	total, err := h.conferences.Count(r.Context())
	status := "ok"
	if err != nil {
		status = "degraded"
		h.logger.Error("health check storage failure", "error", err)
	}

	uptime := time.Since(h.startTime)
	response := HealthResponse{
		Status:        status,
		Conferences:   total,
		UptimeSeconds: int64(uptime.Seconds()),
	}
	if h.pipeline != nil {
		response.Collectors = make(map[string]string)
		for name, err := range h.pipeline.HealthCheck(r.Context()) {
			if err != nil {
				response.Collectors[name] = err.Error()
				continue
			}
			response.Collectors[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// parseQueryParams extracts filter, sort and pagination parameters.
func (h *Handler) parseQueryParams(r *http.Request) (models.ConferenceQuery, error) {
	values := r.URL.Query()
	query := models.ConferenceQuery{
		Domain:    values.Get("domain"),
		Search:    values.Get("search"),
		SortBy:    models.ConferenceSortField(values.Get("sort_by")),
		SortOrder: models.SortOrder(values.Get("sort_order")),
	}

	var err error
	if query.CFPOpen, err = parseBoolParam(values, "cfp_open"); err != nil {
		return query, err
	}
	if query.FinancialAid, err = parseBoolParam(values, "financial_aid"); err != nil {
		return query, err
	}
	if query.Online, err = parseBoolParam(values, "online"); err != nil {
		return query, err
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return query, fmt.Errorf("invalid page parameter: %s", raw)
		}
		query.Page = page
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return query, fmt.Errorf("invalid limit parameter: %s", raw)
		}
		query.Limit = limit
	}

	if err := query.Validate(); err != nil {
		return query, err
	}
	return query, nil
}

func parseBoolParam(values url.Values, name string) (*bool, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return &parsed, nil
}

// DomainsResponse lists the fixed domain taxonomy with conference counts.
type DomainsResponse struct {
	Domains []models.Domain `json:"domains"`
	Count   int             `json:"count"`
}

// ScrapeLogsResponse lists recent scrape runs, newest first.
type ScrapeLogsResponse struct {
	Logs  []models.ScrapeLog `json:"logs"`
	Count int                `json:"count"`
}

// HealthResponse reports service and collector health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Conferences   int               `json:"conferences"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Collectors    map[string]string `json:"collectors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}
