package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/schoolhire/match-api/internal/models"
)

// ApplicationRepository manages persistence for applications. Rows are
// created by the submission flow; the pipeline only reads and mirrors status.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// ListByJobs returns the raw application superset for the job scope,
// unfiltered: board filters only apply to the match-record source.
func (r *ApplicationRepository) ListByJobs(ctx context.Context, jobIDs []string) ([]models.Application, error) {
	const query = `
SELECT a.id, a.job_id, a.candidate_id, a.status, a.submitted_at,
       c.full_name AS candidate_name, j.title AS job_title
FROM applications a
JOIN candidate_profiles c ON c.id = a.candidate_id
JOIN job_postings j ON j.id = a.job_id
WHERE a.job_id = ANY($1)
ORDER BY a.submitted_at DESC`

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, pq.Array(jobIDs)); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// FindByJobAndCandidate locates the application mirroring a match pair.
func (r *ApplicationRepository) FindByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*models.Application, error) {
	const query = `SELECT id, job_id, candidate_id, status, submitted_at FROM applications WHERE job_id = $1 AND candidate_id = $2`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, jobID, candidateID); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateStatus sets the application status.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	const query = `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}
