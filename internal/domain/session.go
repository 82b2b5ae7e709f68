package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an autofill session. It only ever
// advances forward through OPEN → ANALYZED → FILLED → SUBMITTED.
type SessionStatus string

const (
	StatusOpen      SessionStatus = "OPEN"
	StatusAnalyzed  SessionStatus = "ANALYZED"
	StatusFilled    SessionStatus = "FILLED"
	StatusSubmitted SessionStatus = "SUBMITTED"
)

// rank orders statuses for forward-only transition checks.
func (s SessionStatus) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusAnalyzed:
		return 1
	case StatusFilled:
		return 2
	case StatusSubmitted:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether moving to next is a forward transition.
func (s SessionStatus) CanAdvanceTo(next SessionStatus) bool {
	return next.rank() > s.rank()
}

// Session is one bidder's in-progress application attempt against a target
// URL. Sessions live in process memory for the process lifetime; they are
// never deleted, only marked ended.
type Session struct {
	ID                  uuid.UUID     `json:"id"`
	BidderID            uuid.UUID     `json:"bidder_id"`
	ProfileID           uuid.UUID     `json:"profile_id"`
	URL                 string        `json:"url"`
	Domain              string        `json:"domain"`
	Status              SessionStatus `json:"status"`
	SelectedResumeID    *uuid.UUID    `json:"selected_resume_id,omitempty"`
	RecommendedResumeID *uuid.UUID    `json:"recommended_resume_id,omitempty"`
	JobContext          *JobContext   `json:"job_context,omitempty"`
	FillPlan            *FillPlan     `json:"fill_plan,omitempty"`
	StartedAt           time.Time     `json:"started_at"`
	EndedAt             *time.Time    `json:"ended_at,omitempty"`
}

// JobContext is the analysis snapshot attached to a session on analyze.
type JobContext struct {
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source"`
}

// FillPlan is the immutable autofill snapshot computed once per autofill
// transition: which fields to populate and with what confidence, plus the
// fields that are never auto-filled.
type FillPlan struct {
	Filled      map[string]FillEntry `json:"filled"`
	Suggestions []string             `json:"suggestions,omitempty"`
	Blocked     []string             `json:"blocked"`
}

// FillEntry pairs a fill value with the extraction confidence for its field.
type FillEntry struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}
