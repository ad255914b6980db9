package dto

import "github.com/schoolhire/match-api/internal/models"

// UpdateStatusRequest is the body of a single status change.
type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// BulkStatusRequest applies one status to many matches.
type BulkStatusRequest struct {
	MatchIDs []string `json:"match_ids" binding:"required,min=1"`
	Status   string   `json:"status" binding:"required"`
	Notes    *string  `json:"notes,omitempty"`
}

// BulkStatusEntry is the per-match outcome of a bulk update.
type BulkStatusEntry struct {
	MatchID string `json:"match_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// BulkStatusResult collects independent per-match outcomes; a partial failure
// never rolls back the rows that succeeded.
type BulkStatusResult struct {
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Results []BulkStatusEntry `json:"results"`
}

// FindMatchesResponse wraps a fan-out run for a single job. Created counts
// match rows written by this run; re-running against an unchanged pool
// returns the same matches with created zero.
type FindMatchesResponse struct {
	JobID   string                   `json:"job_id"`
	Matches []models.RankedCandidate `json:"matches"`
	Created int                      `json:"created"`
}

// ProcessQueueRequest optionally overrides the queue batch size.
type ProcessQueueRequest struct {
	BatchSize int `json:"batch_size"`
}
