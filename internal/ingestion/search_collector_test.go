package ingestion

import (
	"context"
	"errors"
	"testing"
)

// fakeSearchClient replays canned responses and records queries.
type fakeSearchClient struct {
	results map[string][]SearchResult
	errs    []error
	calls   int
}

func (c *fakeSearchClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return c.results[query], nil
}

func TestSearchCollectorParsesEventResults(t *testing.T) {
	client := &fakeSearchClient{
		results: map[string][]SearchResult{
			domainQueries["devops"]: {
				{
					Title:       "DevOps Summit 2026 - Registration Open",
					Description: "Join us June 10, 2026 in Berlin. Call for papers open.",
					URL:         "https://devopssummit.example.com/2026",
				},
				{
					Title:       "Top 10 DevOps conferences you must attend",
					Description: "Our list of the best events this year",
					URL:         "https://blog.example.com/top-10",
				},
			},
		},
	}

	c := NewSearchCollector(client, discardLogger())
	items, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item (listicle filtered), got %d", len(items))
	}
	if items[0].StartDate != "2026-06-10" {
		t.Errorf("expected extracted date 2026-06-10, got %q", items[0].StartDate)
	}
	if items[0].Domain != "devops" {
		t.Errorf("query domain should be pre-assigned, got %q", items[0].Domain)
	}
}

func TestSearchCollectorYearOnlyFallback(t *testing.T) {
	c := NewSearchCollector(nil, discardLogger())

	raw, ok := c.parseResult(SearchResult{
		Title:       "CloudNative Conference",
		Description: "The premier cloud event. Registration open.",
		URL:         "https://cloudnative.example.com/2027",
	}, "cloud")
	if !ok {
		t.Fatal("expected result to parse")
	}
	if raw.StartDate != "2027-06-01" {
		t.Errorf("year-only results anchor to mid-year, got %q", raw.StartDate)
	}
}

func TestSearchCollectorDropsUndatedResults(t *testing.T) {
	c := NewSearchCollector(nil, discardLogger())

	_, ok := c.parseResult(SearchResult{
		Title:       "Security Conference",
		Description: "Registration open soon.",
		URL:         "https://seccon.example.com",
	}, "security")
	if ok {
		t.Error("result with no date evidence should be dropped")
	}
}

func TestSearchCollectorRetriesTransientFailure(t *testing.T) {
	client := &fakeSearchClient{errs: []error{errors.New("connection reset")}}

	c := NewSearchCollector(client, discardLogger())
	c.cfg.RetryPolicy = fastPolicy()

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("transient first call should be retried: %v", err)
	}
	if client.calls < 2 {
		t.Errorf("expected at least 2 calls, got %d", client.calls)
	}
}

func TestIsRateLimit(t *testing.T) {
	if !isRateLimit(ErrRateLimited) {
		t.Error("ErrRateLimited should be detected")
	}
	if !isRateLimit(errors.New("429 Too Many Requests")) {
		t.Error("status text should be detected")
	}
	if isRateLimit(errors.New("connection refused")) {
		t.Error("ordinary errors are not rate limits")
	}
}

func TestSearchCollectorAllQueriesFailing(t *testing.T) {
	calls := 0
	client := searchFunc(func(ctx context.Context, query string, limit int) ([]SearchResult, error) {
		calls++
		return nil, errors.New("provider down")
	})

	c := NewSearchCollector(client, discardLogger())
	c.cfg.RetryPolicy = fastPolicy()

	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

type searchFunc func(ctx context.Context, query string, limit int) ([]SearchResult, error)

func (f searchFunc) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return f(ctx, query, limit)
}

func TestExtractDateFromText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"happening 2026-09-12 in Oslo", "2026-09-12"},
		{"join us September 5, 2026", "2026-09-05"},
		{"see you March 7 2026", "2026-03-07"},
		{"early bird until 2026-11", "2026-11-01"},
		{"no date here at all", ""},
	}
	for _, tt := range tests {
		if got := extractDateFromText(tt.text); got != tt.want {
			t.Errorf("extractDateFromText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestLooksLikeEvent(t *testing.T) {
	tests := []struct {
		title string
		desc  string
		url   string
		want  bool
	}{
		{"DevConf 2026", "Registration and call for papers open", "https://devconf.example.com", true},
		{"Top 10 conferences", "The best events to attend", "https://blog.example.com", false},
		{"How to speak at a conference", "A tutorial", "https://example.com", false},
		{"Plain page", "Nothing eventish", "https://example.com", false},
	}
	for _, tt := range tests {
		if got := looksLikeEvent(tt.title, tt.desc, tt.url); got != tt.want {
			t.Errorf("looksLikeEvent(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
