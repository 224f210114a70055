package models

import (
	"fmt"
	"time"
)

// ScrapeType identifies which kind of pipeline run produced a log entry.
type ScrapeType string

const (
	ScrapeTypeGitHub ScrapeType = "github"
	ScrapeTypeSearch ScrapeType = "search"
	ScrapeTypeActor  ScrapeType = "actor"
	ScrapeTypeFull   ScrapeType = "full" // all collectors in one run
)

// ScrapeStatus is the lifecycle state of a pipeline run.
type ScrapeStatus string

const (
	ScrapeStatusPending ScrapeStatus = "pending"
	ScrapeStatusSuccess ScrapeStatus = "success"
	ScrapeStatusPartial ScrapeStatus = "partial"
	ScrapeStatusError   ScrapeStatus = "error"
)

// ScrapeLog is the append-only audit record of one pipeline run. It is
// created with status pending when the run starts and completed exactly once;
// entries are never deleted.
type ScrapeLog struct {
	ID           string                 `json:"id"`
	Type         ScrapeType             `json:"type"`
	Status       ScrapeStatus           `json:"status"`
	Found        int                    `json:"found"`
	Added        int                    `json:"added"`
	Updated      int                    `json:"updated"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Complete transitions a pending run to its terminal status. Completing an
// already-completed run is an error; the audit trail is write-once.
func (l *ScrapeLog) Complete(status ScrapeStatus, at time.Time) error {
	if l.Status != ScrapeStatusPending {
		return fmt.Errorf("scrape log %s already completed with status %s", l.ID, l.Status)
	}
	if status == ScrapeStatusPending {
		return fmt.Errorf("cannot complete scrape log %s with status pending", l.ID)
	}
	l.Status = status
	t := at
	l.CompletedAt = &t
	return nil
}

// IsTerminal reports whether the run has reached a final status.
func (l *ScrapeLog) IsTerminal() bool {
	return l.Status != ScrapeStatusPending
}
