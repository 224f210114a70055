package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/confscout/confscout/internal/models"
	"log/slog"
)

// DefaultConferenceDataBase is the raw-content root of the community
// conference-data repository.
const DefaultConferenceDataBase = "https://raw.githubusercontent.com/tech-conferences/conference-data/master"

// GitHubCollector fetches curated per-domain conference lists from the
// community data repository. Each domain/year pair is one JSON array; a
// missing file just means no listings for that pair.
type GitHubCollector struct {
	cfg     CollectorConfig
	baseURL string
	year    int
	domains []string
	client  *http.Client
	logger  *slog.Logger
}

// githubConference mirrors the upstream JSON schema.
type githubConference struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Online     bool   `json:"online"`
	CFPURL     string `json:"cfpUrl"`
	CFPEndDate string `json:"cfpEndDate"`
	Twitter    string `json:"twitter"`
}

// NewGitHubCollector creates a collector for the given year covering every
// domain in the taxonomy.
func NewGitHubCollector(baseURL string, year int, logger *slog.Logger) *GitHubCollector {
	if baseURL == "" {
		baseURL = DefaultConferenceDataBase
	}
	domains := make([]string, 0)
	for _, d := range models.Domains() {
		domains = append(domains, d.Slug)
	}

	cfg := DefaultCollectorConfig("github")
	return &GitHubCollector{
		cfg:     cfg,
		baseURL: baseURL,
		year:    year,
		domains: domains,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (c *GitHubCollector) Name() string                  { return c.cfg.Name }
func (c *GitHubCollector) Source() models.SourceType     { return models.SourceTypeGitHub }
func (c *GitHubCollector) ScrapeType() models.ScrapeType { return models.ScrapeTypeGitHub }

// Fetch retrieves the raw listings for every domain. A failed domain is
// logged and skipped; the collector only errors when no domain could be
// fetched at all.
func (c *GitHubCollector) Fetch(ctx context.Context) ([]RawConference, error) {
	var items []RawConference
	var failures int

	for _, domain := range c.domains {
		confs, err := c.fetchDomain(ctx, domain)
		if err != nil {
			failures++
			c.logger.Error("github domain fetch failed", "domain", domain, "year", c.year, "error", err)
			continue
		}
		c.logger.Debug("github domain fetched", "domain", domain, "count", len(confs))
		items = append(items, confs...)
	}

	if failures == len(c.domains) {
		return nil, fmt.Errorf("all %d domain fetches failed: %w", failures, ErrUpstreamUnavailable)
	}
	return items, nil
}

func (c *GitHubCollector) fetchDomain(ctx context.Context, domain string) ([]RawConference, error) {
	url := fmt.Sprintf("%s/conferences/%d/%s.json", c.baseURL, c.year, domain)

	var raw []githubConference
	err := Retry(ctx, c.cfg.RetryPolicy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return NewRetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			// No file for this domain/year pair.
			raw = nil
			return nil
		case resp.StatusCode >= 500:
			return NewRetryableError(fmt.Errorf("status %d from %s", resp.StatusCode, url))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("status %d from %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return NewRetryableError(err)
		}
		return json.Unmarshal(body, &raw)
	})
	if err != nil {
		return nil, err
	}

	items := make([]RawConference, 0, len(raw))
	for _, gc := range raw {
		items = append(items, RawConference{
			Name:       gc.Name,
			URL:        gc.URL,
			StartDate:  gc.StartDate,
			EndDate:    gc.EndDate,
			City:       gc.City,
			Country:    gc.Country,
			Online:     gc.Online,
			CFPEndDate: gc.CFPEndDate,
			CFPURL:     gc.CFPURL,
			Twitter:    gc.Twitter,
			Domain:     domain,
		})
	}
	return items, nil
}

// HealthCheck probes the data repository root.
func (c *GitHubCollector) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/README.md", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("health check status %d", resp.StatusCode)
	}
	return nil
}
