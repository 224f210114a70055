package ingestion

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/confscout/confscout/internal/models"
)

// ConferenceRepository defines the interface for storing and retrieving conferences.
type ConferenceRepository interface {
	// FindByKey retrieves a conference by its upsert key. Returns nil when
	// no conference matches.
	FindByKey(ctx context.Context, name, url string, startDate time.Time) (*models.Conference, error)

	// Insert stores a new conference.
	Insert(ctx context.Context, conference models.Conference) error

	// Update modifies an existing conference.
	Update(ctx context.Context, conference models.Conference) error

	// GetByID retrieves a conference by its ID.
	GetByID(ctx context.Context, id string) (*models.Conference, error)

	// Query retrieves conferences matching the given query parameters.
	Query(ctx context.Context, query models.ConferenceQuery) (*models.ConferenceResponse, error)

	// ListAll retrieves every stored conference.
	ListAll(ctx context.Context) ([]models.Conference, error)

	// CountByDomain returns the number of conferences per domain slug.
	CountByDomain(ctx context.Context) (map[string]int, error)

	// Delete removes a conference by its ID.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of conferences.
	Count(ctx context.Context) (int, error)
}

// ScrapeLogRepository defines the interface for recording scrape runs.
type ScrapeLogRepository interface {
	// LogRun stores a new scrape log entry.
	LogRun(ctx context.Context, log models.ScrapeLog) error

	// CompleteRun updates a scrape log with its final status and counts.
	CompleteRun(ctx context.Context, log models.ScrapeLog) error

	// GetByID retrieves a scrape log by its ID.
	GetByID(ctx context.Context, id string) (*models.ScrapeLog, error)

	// ListRecent retrieves the most recent scrape logs, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.ScrapeLog, error)

	// LastSuccessfulAt returns the start time of the most recent successful
	// run of the given type, or nil when none exists.
	LastSuccessfulAt(ctx context.Context, scrapeType models.ScrapeType) (*time.Time, error)
}

// MemoryConferenceRepository implements an in-memory conference repository for testing/development.
type MemoryConferenceRepository struct {
	mu          sync.RWMutex
	conferences map[string]models.Conference
	keyIdx      map[string]string // upsert key -> ID mapping
}

// NewMemoryConferenceRepository creates a new in-memory conference repository.
func NewMemoryConferenceRepository() *MemoryConferenceRepository {
	return &MemoryConferenceRepository{
		conferences: make(map[string]models.Conference),
		keyIdx:      make(map[string]string),
	}
}

func upsertKey(name, url string, startDate time.Time) string {
	return strings.ToLower(name) + "|" + strings.ToLower(url) + "|" + startDate.UTC().Format("2006-01-02")
}

// FindByKey retrieves a conference by name, URL and start date.
func (r *MemoryConferenceRepository) FindByKey(ctx context.Context, name, url string, startDate time.Time) (*models.Conference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keyIdx[upsertKey(name, url, startDate)]
	if !ok {
		return nil, nil
	}
	conference := r.conferences[id]
	return &conference, nil
}

// Insert stores a new conference.
func (r *MemoryConferenceRepository) Insert(ctx context.Context, conference models.Conference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conferences[conference.ID] = conference
	r.keyIdx[upsertKey(conference.Name, conference.URL, conference.StartDate)] = conference.ID
	return nil
}

// Update modifies an existing conference.
func (r *MemoryConferenceRepository) Update(ctx context.Context, conference models.Conference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conferences[conference.ID] = conference
	r.keyIdx[upsertKey(conference.Name, conference.URL, conference.StartDate)] = conference.ID
	return nil
}

// GetByID retrieves a conference by ID.
func (r *MemoryConferenceRepository) GetByID(ctx context.Context, id string) (*models.Conference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conference, ok := r.conferences[id]
	if !ok {
		return nil, nil
	}
	return &conference, nil
}

// Query retrieves conferences matching query parameters.
func (r *MemoryConferenceRepository) Query(ctx context.Context, query models.ConferenceQuery) (*models.ConferenceResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matching := make([]models.Conference, 0)
	now := time.Now()
	for _, conference := range r.conferences {
		if matchesConferenceQuery(conference, query, now) {
			matching = append(matching, conference)
		}
	}
	r.mu.RUnlock()

	sortConferences(matching, query)

	total := len(matching)
	offset := query.GetOffset()
	end := offset + query.Limit

	if offset >= total {
		return &models.ConferenceResponse{
			Conferences: []models.Conference{},
			Page:        query.Page,
			Limit:       query.Limit,
			Total:       total,
			HasMore:     false,
		}, nil
	}

	if end > total {
		end = total
	}

	return &models.ConferenceResponse{
		Conferences: matching[offset:end],
		Page:        query.Page,
		Limit:       query.Limit,
		Total:       total,
		HasMore:     end < total,
	}, nil
}

// ListAll retrieves every stored conference.
func (r *MemoryConferenceRepository) ListAll(ctx context.Context) ([]models.Conference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Conference, 0, len(r.conferences))
	for _, conference := range r.conferences {
		result = append(result, conference)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// CountByDomain returns the number of conferences per domain slug.
func (r *MemoryConferenceRepository) CountByDomain(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, conference := range r.conferences {
		counts[conference.Domain]++
	}
	return counts, nil
}

// Delete removes a conference by its ID.
func (r *MemoryConferenceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conference, ok := r.conferences[id]
	if ok {
		delete(r.keyIdx, upsertKey(conference.Name, conference.URL, conference.StartDate))
	}
	delete(r.conferences, id)
	return nil
}

// Count returns the total number of conferences in the repository.
func (r *MemoryConferenceRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conferences), nil
}

// Size returns the number of conferences in the repository.
func (r *MemoryConferenceRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conferences)
}

// matchesConferenceQuery checks if a conference matches query filters.
func matchesConferenceQuery(conference models.Conference, query models.ConferenceQuery, now time.Time) bool {
	if query.Domain != "" && query.Domain != "all" && conference.Domain != query.Domain {
		return false
	}

	if query.Search != "" {
		needle := strings.ToLower(query.Search)
		haystack := strings.ToLower(conference.Name + " " + conference.City + " " + conference.Country + " " + conference.Description)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}

	if query.CFPOpen != nil && conference.CFPOpenAt(now) != *query.CFPOpen {
		return false
	}

	if query.FinancialAid != nil && conference.HasFinancialAid() != *query.FinancialAid {
		return false
	}

	if query.Online != nil && conference.Online != *query.Online {
		return false
	}

	return true
}

// cfpDeadline returns the CFP end date, pushing conferences without a CFP
// to the end of ascending order.
func cfpDeadline(c models.Conference) time.Time {
	if c.CFP == nil {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return c.CFP.EndDate
}

// sortConferences orders results according to the query's sort parameters.
func sortConferences(conferences []models.Conference, query models.ConferenceQuery) {
	desc := query.SortOrder == models.SortOrderDesc

	less := func(i, j int) bool {
		a, b := conferences[i], conferences[j]
		switch query.SortBy {
		case models.SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case models.SortByCFPDeadline:
			ad, bd := cfpDeadline(a), cfpDeadline(b)
			if !ad.Equal(bd) {
				return ad.Before(bd)
			}
		default:
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.Before(b.StartDate)
			}
		}
		// Stable secondary order so pagination does not shuffle.
		return a.ID < b.ID
	}

	if desc {
		sort.Slice(conferences, func(i, j int) bool { return less(j, i) })
	} else {
		sort.Slice(conferences, less)
	}
}

// MemoryScrapeLogRepository implements an in-memory scrape log repository for testing/development.
type MemoryScrapeLogRepository struct {
	mu   sync.RWMutex
	logs map[string]models.ScrapeLog
}

// NewMemoryScrapeLogRepository creates a new in-memory scrape log repository.
func NewMemoryScrapeLogRepository() *MemoryScrapeLogRepository {
	return &MemoryScrapeLogRepository{
		logs: make(map[string]models.ScrapeLog),
	}
}

// LogRun stores a new scrape log entry.
func (r *MemoryScrapeLogRepository) LogRun(ctx context.Context, log models.ScrapeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.ID] = log
	return nil
}

// CompleteRun updates a scrape log with its final status and counts.
func (r *MemoryScrapeLogRepository) CompleteRun(ctx context.Context, log models.ScrapeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.ID] = log
	return nil
}

// GetByID retrieves a scrape log by ID.
func (r *MemoryScrapeLogRepository) GetByID(ctx context.Context, id string) (*models.ScrapeLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.logs[id]
	if !ok {
		return nil, nil
	}
	return &log, nil
}

// ListRecent retrieves the most recent scrape logs, newest first.
func (r *MemoryScrapeLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ScrapeLog, error) {
	r.mu.RLock()
	result := make([]models.ScrapeLog, 0, len(r.logs))
	for _, log := range r.logs {
		result = append(result, log)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// LastSuccessfulAt returns the start time of the latest successful run of a type.
func (r *MemoryScrapeLogRepository) LastSuccessfulAt(ctx context.Context, scrapeType models.ScrapeType) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, log := range r.logs {
		if log.Type != scrapeType || log.Status != models.ScrapeStatusSuccess {
			continue
		}
		started := log.StartedAt
		if latest == nil || started.After(*latest) {
			latest = &started
		}
	}
	return latest, nil
}

// Size returns the number of scrape logs in the repository.
func (r *MemoryScrapeLogRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs)
}
