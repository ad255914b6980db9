package models

import (
	"fmt"
	"time"
)

// MatchStatus tracks a candidate through the school's hiring pipeline.
// Any status may move to any other status; schools manage their own
// pipelines and the platform does not enforce an ordering.
type MatchStatus string

const (
	MatchStatusNew         MatchStatus = "new"
	MatchStatusReviewed    MatchStatus = "reviewed"
	MatchStatusContacted   MatchStatus = "contacted"
	MatchStatusShortlisted MatchStatus = "shortlisted"
	MatchStatusHired       MatchStatus = "hired"
	MatchStatusHidden      MatchStatus = "hidden"
)

// MatchStatuses lists every pipeline status.
var MatchStatuses = []MatchStatus{
	MatchStatusNew,
	MatchStatusReviewed,
	MatchStatusContacted,
	MatchStatusShortlisted,
	MatchStatusHired,
	MatchStatusHidden,
}

// ParseMatchStatus converts a raw string to a MatchStatus, returning an
// error for unknown values.
func ParseMatchStatus(s string) (MatchStatus, error) {
	st := MatchStatus(s)
	for _, known := range MatchStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// applicationStatusByMatch maps every pipeline status to the application
// status it mirrors. The table is total: every MatchStatus has an entry.
var applicationStatusByMatch = map[MatchStatus]ApplicationStatus{
	MatchStatusNew:         ApplicationStatusPending,
	MatchStatusReviewed:    ApplicationStatusUnderReview,
	MatchStatusContacted:   ApplicationStatusUnderReview,
	MatchStatusShortlisted: ApplicationStatusUnderReview,
	MatchStatusHired:       ApplicationStatusAccepted,
	MatchStatusHidden:      ApplicationStatusRejected,
}

// ApplicationStatusForMatch returns the application status mirroring the
// given pipeline status.
func ApplicationStatusForMatch(s MatchStatus) ApplicationStatus {
	if mapped, ok := applicationStatusByMatch[s]; ok {
		return mapped
	}
	return ApplicationStatusPending
}

// displayStatusByApplication maps raw application statuses onto the pipeline
// statuses used when a candidate view is synthesized from an application
// that has no explicit match record.
var displayStatusByApplication = map[ApplicationStatus]MatchStatus{
	ApplicationStatusPending:     MatchStatusNew,
	ApplicationStatusUnderReview: MatchStatusReviewed,
	ApplicationStatusAccepted:    MatchStatusShortlisted,
	ApplicationStatusRejected:    MatchStatusHidden,
}

// DisplayStatusFromApplication returns the pipeline status shown for an
// application-only candidate. Unknown statuses display as new.
func DisplayStatusFromApplication(s ApplicationStatus) MatchStatus {
	if mapped, ok := displayStatusByApplication[s]; ok {
		return mapped
	}
	return MatchStatusNew
}

// SynthesizedScore is assigned to candidate views synthesized from raw
// applications so they rank below explicitly scored matches. The exact value
// is a tunable, not a meaningful number.
const SynthesizedScore = 5

// SynthesizedReason labels application-only candidate views.
const SynthesizedReason = "Application submitted"

// CandidateMatch is a persisted, scored, status-tracked relationship between
// a candidate and a job posting. Matches are soft state and never deleted.
type CandidateMatch struct {
	ID          string      `db:"id" json:"id"`
	JobID       string      `db:"job_id" json:"job_id"`
	CandidateID string      `db:"candidate_id" json:"candidate_id"`
	Score       int         `db:"score" json:"score"`
	Reason      string      `db:"reason" json:"reason"`
	Status      MatchStatus `db:"status" json:"status"`
	Notes       *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CandidateView is the flattened board entry combining a match (explicit or
// synthesized) with denormalized display fields.
type CandidateView struct {
	MatchID       string      `db:"match_id" json:"match_id,omitempty"`
	JobID         string      `db:"job_id" json:"job_id"`
	CandidateID   string      `db:"candidate_id" json:"candidate_id"`
	CandidateName string      `db:"candidate_name" json:"candidate_name"`
	JobTitle      string      `db:"job_title" json:"job_title"`
	Score         int         `db:"score" json:"score"`
	Status        MatchStatus `db:"status" json:"status"`
	Reason        string      `db:"reason" json:"reason"`
	Notes         *string     `db:"notes" json:"notes,omitempty"`
	Synthesized   bool        `db:"synthesized" json:"synthesized"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// BoardFilter narrows the aggregated candidate board.
type BoardFilter struct {
	Statuses   []MatchStatus
	Archetypes []string
}

// RankedCandidate is a match-finder result: a candidate plus the additive
// fan-out score that admitted them.
type RankedCandidate struct {
	Candidate CandidateProfile `json:"candidate"`
	Score     int              `json:"score"`
	Reasons   []string         `json:"reasons"`
}
