package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/models"
	"log/slog"
)

// ActorClient runs hosted scraping actors and retrieves their dataset items.
type ActorClient interface {
	// RunActor starts an actor against the given input and blocks until the
	// run finishes, returning the result dataset ID.
	RunActor(ctx context.Context, actorID string, input map[string]interface{}) (string, error)

	// ListItems fetches all items from a result dataset.
	ListItems(ctx context.Context, datasetID string) ([]map[string]interface{}, error)
}

// ActorTarget is one site scraped through a hosted actor.
type ActorTarget struct {
	Name    string
	URL     string
	ActorID string
}

// DefaultActorTargets lists the event sites scraped by default.
func DefaultActorTargets() []ActorTarget {
	return []ActorTarget{
		{Name: "Conference Index", URL: "https://conferenceindex.org/conferences/technology", ActorID: "website-content-crawler"},
		{Name: "Meetup Tech Events", URL: "https://www.meetup.com/find/?categoryId=546", ActorID: "meetup-scraper"},
		{Name: "Eventbrite Tech Events", URL: "https://www.eventbrite.com/d/united-states/technology/", ActorID: "website-content-crawler"},
	}
}

// ActorCollector pulls raw event listings out of hosted scraper actor runs.
// Items arrive either as structured fields or as crawled markdown that has
// to be parsed line by line.
type ActorCollector struct {
	cfg     CollectorConfig
	client  ActorClient
	targets []ActorTarget
	now     func() time.Time
	logger  *slog.Logger
}

// NewActorCollector wires an actor collector over the given client.
func NewActorCollector(client ActorClient, targets []ActorTarget, logger *slog.Logger) *ActorCollector {
	if len(targets) == 0 {
		targets = DefaultActorTargets()
	}
	return &ActorCollector{
		cfg:     DefaultCollectorConfig("actor"),
		client:  client,
		targets: targets,
		now:     time.Now,
		logger:  logger,
	}
}

func (c *ActorCollector) Name() string                  { return c.cfg.Name }
func (c *ActorCollector) Source() models.SourceType     { return models.SourceTypeActor }
func (c *ActorCollector) ScrapeType() models.ScrapeType { return models.ScrapeTypeActor }

// Fetch runs every target's actor, with retries per target. Targets are
// independent; one failing does not stop the rest.
func (c *ActorCollector) Fetch(ctx context.Context) ([]RawConference, error) {
	var items []RawConference
	var failures int

	for _, target := range c.targets {
		raws, err := c.fetchTarget(ctx, target)
		if err != nil {
			failures++
			c.logger.Error("actor target failed", "target", target.Name, "error", err)
			continue
		}
		c.logger.Info("actor target scraped", "target", target.Name, "count", len(raws))
		items = append(items, raws...)
	}

	if failures == len(c.targets) {
		return nil, fmt.Errorf("all %d actor targets failed: %w", failures, ErrUpstreamUnavailable)
	}
	return items, nil
}

func (c *ActorCollector) fetchTarget(ctx context.Context, target ActorTarget) ([]RawConference, error) {
	input := map[string]interface{}{
		"startUrls":           []map[string]string{{"url": target.URL}},
		"maxRequestsPerCrawl": 10,
		"maxConcurrency":      2,
	}

	var datasetID string
	err := Retry(ctx, c.cfg.RetryPolicy, func() error {
		var err error
		datasetID, err = c.client.RunActor(ctx, target.ActorID, input)
		if err != nil {
			return NewRetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.client.ListItems(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var items []RawConference
	for _, item := range raw {
		if markdown, ok := item["markdown"].(string); ok && markdown != "" {
			items = append(items, parseMarkdownListing(markdown, c.now().Year())...)
			continue
		}
		if conf, ok := parseStructuredItem(item); ok {
			items = append(items, conf)
		}
	}
	return items, nil
}

// HealthCheck is a no-op beyond client construction; actor runs are too
// expensive to probe.
func (c *ActorCollector) HealthCheck(ctx context.Context) error {
	return nil
}

// parseStructuredItem maps one dataset item with recognizable fields.
// Scrapers disagree on field names, so each value is probed under its
// known aliases.
func parseStructuredItem(item map[string]interface{}) (RawConference, bool) {
	name := stringField(item, "name", "title", "eventName", "event_name")
	urlStr := stringField(item, "url", "link", "eventUrl", "event_url")
	if name == "" || urlStr == "" {
		return RawConference{}, false
	}

	online, _ := item["online"].(bool)
	location := stringField(item, "location", "venue", "address")

	return RawConference{
		Name:        name,
		URL:         urlStr,
		StartDate:   stringField(item, "startDate", "start_date", "start", "date"),
		EndDate:     stringField(item, "endDate", "end_date", "end"),
		City:        stringField(item, "city"),
		Country:     stringField(item, "country"),
		Online:      online || strings.Contains(strings.ToLower(location), "online"),
		CFPEndDate:  stringField(item, "cfpUntil", "cfpEndDate"),
		CFPURL:      stringField(item, "cfpUrl"),
		Twitter:     stringField(item, "twitter", "twitterHandle"),
		Description: stringField(item, "description", "summary", "details"),
	}, true
}

func stringField(item map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

var (
	monthHeaderPattern = regexp.MustCompile(`(?i)\*\*([A-Za-z]+),?\s*(\d{4})\*\*|##\s*([A-Za-z]+)\s+(\d{4})`)
	// "Aug 07 [Name](url) - City, Country"
	bulletLinkPattern = regexp.MustCompile(`(?i)^([A-Za-z]{3}\s+\d{1,2})\s*\[(.+?)\]\((\S+?)\)\s*-\s*([^,]*),?\s*(.*)$`)
	// "Aug 07 Name - City, Country"
	bulletPlainPattern = regexp.MustCompile(`(?i)^([A-Za-z]{3}\s+\d{1,2})\s+(.+?)\s*-\s*([^,]*),?\s*(.*)$`)
)

// parseMarkdownListing extracts conference bullets from crawled markdown.
// Month/year headers carry the year context for the date fragments on each
// bullet line.
func parseMarkdownListing(markdown string, currentYear int) []RawConference {
	var items []RawConference
	year := currentYear

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := monthHeaderPattern.FindStringSubmatch(line); m != nil {
			yearStr := m[2]
			if yearStr == "" {
				yearStr = m[4]
			}
			fmt.Sscanf(yearStr, "%d", &year)
			continue
		}

		if !strings.HasPrefix(line, "* ") && !strings.HasPrefix(line, "- ") {
			continue
		}
		entry := strings.TrimSpace(line[2:])

		var name, urlStr, dateStr, city, country string
		if m := bulletLinkPattern.FindStringSubmatch(entry); m != nil {
			dateStr, name, urlStr, city, country = m[1], m[2], m[3], m[4], m[5]
		} else if m := bulletPlainPattern.FindStringSubmatch(entry); m != nil {
			dateStr, name, city, country = m[1], m[2], m[3], m[4]
		} else {
			continue
		}

		if name == "" || dateStr == "" {
			continue
		}
		if urlStr == "" {
			// Listing without a link; synthesize a stable placeholder so the
			// record still carries an identity.
			urlStr = "https://conferenceindex.org/event/" + url.PathEscape(strings.ToLower(name))
		}

		items = append(items, RawConference{
			Name:      strings.TrimSpace(name),
			URL:       urlStr,
			StartDate: fmt.Sprintf("%s %d", dateStr, year),
			City:      strings.TrimSpace(city),
			Country:   strings.TrimSpace(country),
		})
	}
	return items
}

// HTTPActorClient talks to the hosted actor platform's REST API.
type HTTPActorClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPActorClient builds the production client.
func NewHTTPActorClient(baseURL, token string) *HTTPActorClient {
	return &HTTPActorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// RunActor starts a synchronous actor run and returns its dataset ID.
func (c *HTTPActorClient) RunActor(ctx context.Context, actorID string, input map[string]interface{}) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?waitForFinish=300&token=%s", c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("actor run status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Data.Status != "SUCCEEDED" {
		return "", fmt.Errorf("actor run finished with status %s", body.Data.Status)
	}
	return body.Data.DefaultDatasetID, nil
}

// ListItems fetches all items from a run's dataset.
func (c *HTTPActorClient) ListItems(ctx context.Context, datasetID string) ([]map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s", c.baseURL, url.PathEscape(datasetID), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset items status %d", resp.StatusCode)
	}

	var items []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
