package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/confscout/confscout/internal/classify"
	"github.com/confscout/confscout/internal/dates"
	"github.com/confscout/confscout/internal/models"
)

// Normalizer turns raw collector items into canonical conference records:
// date parsing, past-event filtering, classification and tag extraction.
type Normalizer struct {
	Dates dates.Parser
	Now   func() time.Time
}

// NewNormalizer returns a normalizer with the default month-first date
// parser.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Convert validates and normalizes one raw item. Returned errors are the
// per-record kinds (ErrMissingField, dates.ErrInvalidDate, ErrPastEvent);
// callers drop the record and continue.
func (n *Normalizer) Convert(raw RawConference, source models.SourceType) (models.Conference, error) {
	if strings.TrimSpace(raw.Name) == "" || strings.TrimSpace(raw.URL) == "" {
		return models.Conference{}, ErrMissingField
	}

	start, err := n.Dates.Normalize(raw.StartDate)
	if err != nil {
		return models.Conference{}, fmt.Errorf("start date %q: %w", raw.StartDate, err)
	}

	today := models.Midnight(n.Now())
	if start.Before(today) {
		return models.Conference{}, fmt.Errorf("%q starts %s: %w", raw.Name, start.Format("2006-01-02"), ErrPastEvent)
	}

	end := start
	if raw.EndDate != "" {
		if parsed, err := n.Dates.Normalize(raw.EndDate); err == nil && !parsed.Before(start) {
			end = parsed
		}
	}

	domain := raw.Domain
	if !models.IsValidDomain(domain) {
		domain = classify.Classify(raw.Name, raw.Description)
	}

	conf := models.Conference{
		Name:        strings.TrimSpace(raw.Name),
		URL:         strings.TrimSpace(raw.URL),
		StartDate:   start,
		EndDate:     end,
		City:        strings.TrimSpace(raw.City),
		Country:     strings.TrimSpace(raw.Country),
		Online:      raw.Online || looksOnline(raw),
		Hybrid:      raw.Hybrid,
		Domain:      domain,
		Tags:        classify.ExtractTags(raw.Name, raw.Description),
		Description: raw.Description,
		Twitter:     raw.Twitter,
		Source:      source,
	}

	scrapedAt := n.Now()
	conf.ScrapedAt = &scrapedAt

	if raw.CFPEndDate != "" {
		if deadline, err := n.Dates.Normalize(raw.CFPEndDate); err == nil {
			conf.CFP = &models.CFP{EndDate: deadline, URL: raw.CFPURL}
		}
	}

	if raw.AidAvailable {
		conf.FinancialAid = &models.FinancialAid{
			Available: true,
			Types:     raw.AidTypes,
			URL:       raw.AidURL,
			Notes:     raw.AidNotes,
		}
	}

	return conf, nil
}

// looksOnline checks the name, description and location text for remote
// event markers.
func looksOnline(raw RawConference) bool {
	text := strings.ToLower(raw.Name + " " + raw.Description + " " + raw.City + " " + raw.Country)
	return strings.Contains(text, "virtual") || strings.Contains(text, "online")
}
