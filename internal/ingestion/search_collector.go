package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/models"
	"log/slog"
)

// SearchResult is one hit from the external search provider.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchClient is the provider surface the search collector consumes. The
// provider is rate-limited and unreliable; callers wrap it in Retry.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// ErrRateLimited is returned by search clients when the provider rejects a
// call for quota reasons.
var ErrRateLimited = fmt.Errorf("search provider rate limited")

// domainQueries are the per-domain search queries, tuned to surface actual
// events rather than listicles.
var domainQueries = map[string]string{
	"ai":           `AI conference "call for papers" "registration"`,
	"data":         `Data Science conference "call for papers" "registration"`,
	"databases":    `Database conference "call for papers" "registration"`,
	"devops":       `DevOps conference "call for papers" "registration"`,
	"cloud":        `Cloud Computing conference "call for papers" "registration"`,
	"security":     `Cybersecurity conference "call for papers" "registration"`,
	"web":          `Web Development conference "call for papers" "registration"`,
	"gaming":       `Game Development conference "call for papers" "registration"`,
	"frontend":     `Frontend conference "call for papers" "registration"`,
	"backend":      `Backend conference "call for papers" "registration"`,
	"testing":      `Software Testing conference "call for papers" "registration"`,
	"architecture": `Software Architecture conference "call for papers" "registration"`,
	"ux":           `User Experience conference "call for papers" "registration"`,
}

// SearchCollector finds conferences through a web-search provider and keeps
// only results that look like real events.
type SearchCollector struct {
	cfg    CollectorConfig
	client SearchClient
	limit  int
	now    func() time.Time
	logger *slog.Logger
}

// NewSearchCollector wires a search collector over the given client.
func NewSearchCollector(client SearchClient, logger *slog.Logger) *SearchCollector {
	return &SearchCollector{
		cfg:    DefaultCollectorConfig("search"),
		client: client,
		limit:  5,
		now:    time.Now,
		logger: logger,
	}
}

func (c *SearchCollector) Name() string                  { return c.cfg.Name }
func (c *SearchCollector) Source() models.SourceType     { return models.SourceTypeSearch }
func (c *SearchCollector) ScrapeType() models.ScrapeType { return models.ScrapeTypeSearch }

// Fetch queries the provider once per domain. Rate-limit rejections retry
// after the fixed RateLimitDelay; anything else follows the exponential
// schedule. Failed domains are skipped.
func (c *SearchCollector) Fetch(ctx context.Context) ([]RawConference, error) {
	var items []RawConference
	var failures int

	for _, domain := range sortedQueryDomains() {
		query := domainQueries[domain]

		var results []SearchResult
		err := Retry(ctx, c.cfg.RetryPolicy, func() error {
			var err error
			results, err = c.client.Search(ctx, query, c.limit)
			if err == nil {
				return nil
			}
			if isRateLimit(err) {
				return NewRetryableErrorWithDelay(err, RateLimitDelay)
			}
			return NewRetryableError(err)
		})
		if err != nil {
			failures++
			c.logger.Error("search failed", "domain", domain, "error", err)
			continue
		}

		for _, res := range results {
			raw, ok := c.parseResult(res, domain)
			if !ok {
				continue
			}
			items = append(items, raw)
		}
	}

	if failures == len(domainQueries) {
		return nil, fmt.Errorf("all search queries failed: %w", ErrUpstreamUnavailable)
	}
	return items, nil
}

// HealthCheck issues a minimal probe query.
func (c *SearchCollector) HealthCheck(ctx context.Context) error {
	_, err := c.client.Search(ctx, "tech conference", 1)
	return err
}

func (c *SearchCollector) parseResult(res SearchResult, domain string) (RawConference, bool) {
	if res.Title == "" || res.URL == "" {
		return RawConference{}, false
	}
	if !looksLikeEvent(res.Title, res.Description, res.URL) {
		c.logger.Debug("rejecting non-event result", "title", res.Title)
		return RawConference{}, false
	}

	text := res.Title + " " + res.Description
	startDate := extractDateFromText(text)
	if startDate == "" {
		// No explicit date; anchor to mid-year of the first plausible year
		// mentioned in the URL or text.
		if year := extractYear(res.URL + " " + text); year != "" {
			startDate = year + "-06-01"
		} else {
			return RawConference{}, false
		}
	}

	return RawConference{
		Name:        res.Title,
		URL:         res.URL,
		StartDate:   startDate,
		Description: res.Description,
		Domain:      domain,
	}, true
}

var eventKeywords = []string{
	"conference", "summit", "symposium", "workshop", "meetup", "event",
	"call for papers", "cfp", "registration", "register", "attend",
	"speakers", "agenda", "schedule", "venue",
}

var nonEventKeywords = []string{
	"blog", "article", "post", "news", "list of", "top 10", "best",
	"guide", "tutorial", "how to", "review", "recap", "summary", "report",
}

// looksLikeEvent filters search hits down to pages that are plausibly a
// conference rather than an article about conferences.
func looksLikeEvent(title, description, url string) bool {
	text := strings.ToLower(title + " " + description + " " + url)

	for _, kw := range nonEventKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}
	for _, kw := range eventKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var (
	isoDatePattern   = regexp.MustCompile(`\b(20\d{2})[-/](0[1-9]|1[0-2])[-/](0[1-9]|[12]\d|3[01])\b`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(0?[1-9]|[12]\d|3[01]),?\s+(20\d{2})\b`)
	yearMonthPattern = regexp.MustCompile(`\b(20\d{2})[-/](0[1-9]|1[0-2])\b`)
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
)

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// extractDateFromText scans free text for the first recognizable date and
// returns it in ISO form, or empty when nothing matches.
func extractDateFromText(text string) string {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		day := m[2]
		if len(day) == 1 {
			day = "0" + day
		}
		return fmt.Sprintf("%s-%s-%s", m[3], monthNumbers[strings.ToLower(m[1])], day)
	}
	if m := yearMonthPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-01", m[1], m[2])
	}
	return ""
}

func extractYear(text string) string {
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func isRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests")
}

var queryDomainOrder = func() []string {
	var order []string
	for _, d := range models.Domains() {
		if _, ok := domainQueries[d.Slug]; ok {
			order = append(order, d.Slug)
		}
	}
	return order
}()

func sortedQueryDomains() []string {
	return queryDomainOrder
}

// HTTPSearchClient talks to the search provider's REST endpoint.
type HTTPSearchClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPSearchClient builds the production client.
func NewHTTPSearchClient(baseURL, apiKey string) *HTTPSearchClient {
	return &HTTPSearchClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Search runs one provider query. A 429 maps to ErrRateLimited so the
// collector can apply the fixed delay.
func (c *HTTPSearchClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    []SearchResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("search provider reported failure")
	}
	return body.Data, nil
}
