package models

import (
	"strings"
	"time"
)

// Conference represents a canonical conference listing aggregated from one of
// the collectors. Start and end dates are calendar dates; any time-of-day
// component is truncated to UTC midnight before storage.
type Conference struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	URL          string        `json:"url"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	City         string        `json:"city,omitempty"`
	Country      string        `json:"country,omitempty"`
	Online       bool          `json:"online"`
	Hybrid       bool          `json:"hybrid"`
	CFP          *CFP          `json:"cfp,omitempty"`
	FinancialAid *FinancialAid `json:"financial_aid,omitempty"`
	Domain       string        `json:"domain"`
	Tags         []string      `json:"tags,omitempty"`
	Description  string        `json:"description,omitempty"`
	Twitter      string        `json:"twitter,omitempty"`
	Source       SourceType    `json:"source"`
	ScrapedAt    *time.Time    `json:"scraped_at,omitempty"`
	IsNew        bool          `json:"is_new"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CFP holds the call-for-papers window for a conference. The open/closed
// status is always derived from EndDate against the current date, never
// stored, so it cannot go stale.
type CFP struct {
	EndDate time.Time `json:"end_date"`
	URL     string    `json:"url,omitempty"`
}

// FinancialAid describes speaker/attendee support offered by a conference.
type FinancialAid struct {
	Available bool     `json:"available"`
	Types     []string `json:"types,omitempty"`
	URL       string   `json:"url,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// SourceType identifies which collector produced a conference record.
type SourceType string

const (
	SourceTypeGitHub SourceType = "github"
	SourceTypeSearch SourceType = "search"
	SourceTypeActor  SourceType = "actor"
)

// CFPUrgency buckets a CFP deadline for display and stats.
type CFPUrgency string

const (
	CFPClosed   CFPUrgency = "closed"
	CFPCritical CFPUrgency = "critical" // 3 days or fewer
	CFPUrgent   CFPUrgency = "urgent"   // 7 days or fewer
	CFPSoon     CFPUrgency = "soon"     // 14 days or fewer
	CFPOpen     CFPUrgency = "open"
)

// Midnight truncates a timestamp to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CFPOpenAt reports whether the call for papers is still open at the given
// time. The deadline day itself counts as open.
func (c *Conference) CFPOpenAt(now time.Time) bool {
	if c.CFP == nil {
		return false
	}
	return !Midnight(c.CFP.EndDate).Before(Midnight(now))
}

// CFPDaysRemaining returns whole days until the CFP deadline, or -1 when the
// conference has no CFP recorded.
func (c *Conference) CFPDaysRemaining(now time.Time) int {
	if c.CFP == nil {
		return -1
	}
	days := int(Midnight(c.CFP.EndDate).Sub(Midnight(now)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CFPUrgencyAt derives the urgency bucket for the CFP deadline.
func (c *Conference) CFPUrgencyAt(now time.Time) CFPUrgency {
	if c.CFP == nil || !c.CFPOpenAt(now) {
		return CFPClosed
	}
	switch days := c.CFPDaysRemaining(now); {
	case days <= 3:
		return CFPCritical
	case days <= 7:
		return CFPUrgent
	case days <= 14:
		return CFPSoon
	default:
		return CFPOpen
	}
}

// HasFinancialAid reports whether the conference offers any financial aid.
func (c *Conference) HasFinancialAid() bool {
	return c.FinancialAid != nil && c.FinancialAid.Available
}

// LocationText builds a display location, folding in the online/hybrid flags.
func (c *Conference) LocationText() string {
	place := c.City
	if c.City != "" && c.Country != "" {
		place = c.City + ", " + c.Country
	} else if c.Country != "" {
		place = c.Country
	}

	switch {
	case c.Hybrid && place != "":
		return place + " (Hybrid)"
	case c.Hybrid:
		return "Hybrid"
	case c.Online:
		return "Online"
	case place != "":
		return place
	default:
		return "Location TBD"
	}
}

// IdentityKey is the batch-level dedup key: case-insensitive name plus URL.
func (c *Conference) IdentityKey() string {
	return strings.ToLower(c.Name) + "|" + strings.ToLower(c.URL)
}
