package models

import (
	"fmt"
	"time"
)

// ApplicationStatus tracks a formal submission independently of the
// pipeline status on the match record. The two enums deliberately differ;
// the pipeline mirrors into this one via ApplicationStatusForMatch.
type ApplicationStatus string

const (
	ApplicationStatusPending            ApplicationStatus = "pending"
	ApplicationStatusUnderReview        ApplicationStatus = "under_review"
	ApplicationStatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationStatusOfferMade          ApplicationStatus = "offer_made"
	ApplicationStatusAccepted           ApplicationStatus = "accepted"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn          ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every application status.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusUnderReview,
	ApplicationStatusInterviewScheduled,
	ApplicationStatusOfferMade,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	for _, known := range ApplicationStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Application represents a candidate's formal submission to a job posting.
// Rows are created by the application flow; the pipeline only mirrors status.
type Application struct {
	ID          string            `db:"id" json:"id"`
	JobID       string            `db:"job_id" json:"job_id"`
	CandidateID string            `db:"candidate_id" json:"candidate_id"`
	Status      ApplicationStatus `db:"status" json:"status"`
	SubmittedAt time.Time         `db:"submitted_at" json:"submitted_at"`

	// Joined display fields for board synthesis.
	CandidateName string `db:"candidate_name" json:"candidate_name,omitempty"`
	JobTitle      string `db:"job_title" json:"job_title,omitempty"`
}
