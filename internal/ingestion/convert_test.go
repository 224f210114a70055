package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/confscout/confscout/internal/dates"
	"github.com/confscout/confscout/internal/models"
)

func fixedNormalizer(now time.Time) *Normalizer {
	return &Normalizer{Now: func() time.Time { return now }}
}

func TestConvertBasicRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := fixedNormalizer(now)

	conf, err := n.Convert(RawConference{
		Name:        "KubeCon Europe",
		URL:         "https://kubecon.io",
		StartDate:   "2026-04-15",
		EndDate:     "2026-04-17",
		City:        "Amsterdam",
		Country:     "Netherlands",
		CFPEndDate:  "2026-03-20",
		Description: "Kubernetes and cloud native computing",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.Domain != "devops" {
		t.Errorf("expected devops classification, got %q", conf.Domain)
	}
	if !conf.StartDate.Equal(time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", conf.StartDate)
	}
	if conf.CFP == nil || !conf.CFP.EndDate.Equal(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected CFP deadline, got %+v", conf.CFP)
	}
	if conf.Source != models.SourceTypeGitHub {
		t.Errorf("expected github source, got %q", conf.Source)
	}
	if conf.ScrapedAt == nil || !conf.ScrapedAt.Equal(now) {
		t.Errorf("expected scraped_at %v, got %v", now, conf.ScrapedAt)
	}
}

func TestConvertMissingFields(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	cases := []RawConference{
		{URL: "https://example.com", StartDate: "2026-04-15"},
		{Name: "Nameless URL", StartDate: "2026-04-15"},
		{Name: "   ", URL: "https://example.com", StartDate: "2026-04-15"},
	}
	for _, raw := range cases {
		if _, err := n.Convert(raw, models.SourceTypeGitHub); !errors.Is(err, ErrMissingField) {
			t.Errorf("raw %+v: expected ErrMissingField, got %v", raw, err)
		}
	}
}

func TestConvertInvalidStartDate(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := n.Convert(RawConference{
		Name:      "Mystery Conf",
		URL:       "https://example.com",
		StartDate: "sometime next spring",
	}, models.SourceTypeSearch)
	if !errors.Is(err, dates.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestConvertPastEventDropped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := fixedNormalizer(now)

	_, err := n.Convert(RawConference{
		Name:      "Last Year Conf",
		URL:       "https://example.com",
		StartDate: "2026-02-28",
	}, models.SourceTypeGitHub)
	if !errors.Is(err, ErrPastEvent) {
		t.Fatalf("expected ErrPastEvent, got %v", err)
	}
}

func TestConvertEventStartingTodayKept(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	n := fixedNormalizer(now)

	conf, err := n.Convert(RawConference{
		Name:      "Today Conf",
		URL:       "https://example.com",
		StartDate: "2026-03-01",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("event starting today must be kept: %v", err)
	}
	if !conf.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", conf.StartDate)
	}
}

func TestConvertEndDateDefaultsToStart(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	conf, err := n.Convert(RawConference{
		Name:      "One Day Conf",
		URL:       "https://example.com",
		StartDate: "2026-05-10",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.EndDate.Equal(conf.StartDate) {
		t.Errorf("end date should default to start, got %v", conf.EndDate)
	}

	// An end date before the start is ignored rather than trusted.
	conf, err = n.Convert(RawConference{
		Name:      "Backwards Conf",
		URL:       "https://example.com",
		StartDate: "2026-05-10",
		EndDate:   "2026-05-08",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.EndDate.Equal(conf.StartDate) {
		t.Errorf("inverted end date should be discarded, got %v", conf.EndDate)
	}
}

func TestConvertKeepsPreassignedDomain(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	conf, err := n.Convert(RawConference{
		Name:      "Some Gathering",
		URL:       "https://example.com",
		StartDate: "2026-05-10",
		Domain:    "security",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Domain != "security" {
		t.Errorf("pre-assigned domain should be kept, got %q", conf.Domain)
	}

	// Invalid pre-assignment falls back to classification.
	conf, err = n.Convert(RawConference{
		Name:      "Some Gathering",
		URL:       "https://example.com",
		StartDate: "2026-05-10",
		Domain:    "not-a-domain",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Domain != models.DefaultDomainSlug {
		t.Errorf("invalid domain should be reclassified, got %q", conf.Domain)
	}
}

func TestConvertDetectsOnlineFromText(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	conf, err := n.Convert(RawConference{
		Name:      "Remote Summit",
		URL:       "https://example.com",
		StartDate: "2026-05-10",
		City:      "Virtual",
	}, models.SourceTypeSearch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.Online {
		t.Error("virtual location should mark the event online")
	}
}

func TestConvertFinancialAid(t *testing.T) {
	n := fixedNormalizer(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	conf, err := n.Convert(RawConference{
		Name:         "Inclusive Conf",
		URL:          "https://example.com",
		StartDate:    "2026-05-10",
		AidAvailable: true,
		AidTypes:     []string{"scholarship", "travel"},
		AidURL:       "https://example.com/aid",
	}, models.SourceTypeGitHub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.HasFinancialAid() {
		t.Fatal("expected financial aid to be set")
	}
	if len(conf.FinancialAid.Types) != 2 {
		t.Errorf("expected 2 aid types, got %v", conf.FinancialAid.Types)
	}
}
