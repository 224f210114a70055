package models

import (
	"fmt"
	"time"
)

// ConferenceQuery represents filters and pagination for listing conferences.
type ConferenceQuery struct {
	Domain       string `json:"domain,omitempty"`
	Search       string `json:"search,omitempty"`
	CFPOpen      *bool  `json:"cfp_open,omitempty"`
	FinancialAid *bool  `json:"financial_aid,omitempty"`
	Online       *bool  `json:"online,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit,omitempty"`

	// Sorting
	SortBy    ConferenceSortField `json:"sort_by,omitempty"`
	SortOrder SortOrder           `json:"sort_order,omitempty"`
}

// ConferenceSortField specifies which field to sort conferences by.
type ConferenceSortField string

const (
	SortByStartDate   ConferenceSortField = "start_date"
	SortByCFPDeadline ConferenceSortField = "cfp_deadline"
	SortByName        ConferenceSortField = "name"
)

// SortOrder specifies ascending or descending sort direction.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// Validate checks query parameters and applies defaults.
func (q *ConferenceQuery) Validate() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	if q.SortBy == "" {
		q.SortBy = SortByStartDate
	}
	if q.SortOrder == "" {
		q.SortOrder = SortOrderAsc
	}
	switch q.SortBy {
	case SortByStartDate, SortByCFPDeadline, SortByName:
	default:
		return fmt.Errorf("invalid sort field: %s", q.SortBy)
	}
	if q.Domain != "" && q.Domain != "all" && !IsValidDomain(q.Domain) {
		return fmt.Errorf("unknown domain: %s", q.Domain)
	}
	return nil
}

// GetOffset calculates the database offset for pagination.
func (q *ConferenceQuery) GetOffset() int {
	return (q.Page - 1) * q.Limit
}

// ConferenceResponse is a paginated list of conferences.
type ConferenceResponse struct {
	Conferences []Conference `json:"conferences"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
	Total       int          `json:"total"`
	HasMore     bool         `json:"has_more"`
}

// Stats are directory-wide aggregates, always computed at read time.
type Stats struct {
	TotalConferences int            `json:"total_conferences"`
	OpenCFPs         int            `json:"open_cfps"`
	WithFinancialAid int            `json:"with_financial_aid"`
	NewConferences   int            `json:"new_conferences"`
	Online           int            `json:"online"`
	ByDomain         map[string]int `json:"by_domain"`
	LastUpdated      *time.Time     `json:"last_updated,omitempty"`
}

// ComputeStats derives aggregate stats from a conference collection.
func ComputeStats(conferences []Conference, now time.Time) Stats {
	stats := Stats{ByDomain: make(map[string]int)}
	for i := range conferences {
		c := &conferences[i]
		stats.TotalConferences++
		if c.CFPOpenAt(now) {
			stats.OpenCFPs++
		}
		if c.HasFinancialAid() {
			stats.WithFinancialAid++
		}
		if c.IsNew {
			stats.NewConferences++
		}
		if c.Online {
			stats.Online++
		}
		stats.ByDomain[c.Domain]++
	}
	return stats
}
