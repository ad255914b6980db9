package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/schoolhire/match-api/internal/models"
)

// JobRepository reads job postings. Postings are owned by the school-facing
// flow; the pipeline never writes them.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs a JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, school_id, school_name, title, subject, grade_level, archetype_tags, location, created_at, updated_at`

// FindByID fetches a single posting.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM job_postings WHERE id = $1`, jobColumns)
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByIDs fetches the postings in the given id scope.
func (r *JobRepository) ListByIDs(ctx context.Context, ids []string) ([]models.JobPosting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM job_postings WHERE id = ANY($1) ORDER BY created_at DESC`, jobColumns)
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list job postings: %w", err)
	}
	return jobs, nil
}
