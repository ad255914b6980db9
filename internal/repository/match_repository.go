package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/schoolhire/match-api/internal/models"
)

// MatchRepository manages persistence for candidate matches.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs a MatchRepository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, job_id, candidate_id, score, reason, status, notes, created_at, updated_at`

// FindByID fetches a match row.
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*models.CandidateMatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_matches WHERE id = $1`, matchColumns)
	var match models.CandidateMatch
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		return nil, err
	}
	return &match, nil
}

// Exists reports whether a match already links the pair.
func (r *MatchRepository) Exists(ctx context.Context, jobID, candidateID string) (bool, error) {
	const query = `SELECT 1 FROM candidate_matches WHERE job_id = $1 AND candidate_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, jobID, candidateID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check match exists: %w", err)
	}
	return true, nil
}

// Create inserts a new match record.
func (r *MatchRepository) Create(ctx context.Context, match *models.CandidateMatch) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	match.UpdatedAt = now

	const query = `INSERT INTO candidate_matches (id, job_id, candidate_id, score, reason, status, notes, created_at, updated_at)
		VALUES (:id, :job_id, :candidate_id, :score, :reason, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, match); err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// UpdateStatus persists a pipeline status change, optionally with notes.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id string, status models.MatchStatus, notes *string) error {
	now := time.Now().UTC()
	if notes != nil {
		const query = `UPDATE candidate_matches SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, query, id, status, *notes, now); err != nil {
			return fmt.Errorf("update match status: %w", err)
		}
		return nil
	}
	const query = `UPDATE candidate_matches SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, now); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return nil
}

// CountByJobAndStatus counts matches for a job in the given status. The
// dispatcher uses this to compute fresh aggregate payloads at send time.
func (r *MatchRepository) CountByJobAndStatus(ctx context.Context, jobID string, status models.MatchStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM candidate_matches WHERE job_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, jobID, status); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

// ListViews returns flattened candidate views for the job scope, filtered at
// the source where possible.
func (r *MatchRepository) ListViews(ctx context.Context, jobIDs []string, filter models.BoardFilter) ([]models.CandidateView, error) {
	query := `
SELECT m.id AS match_id, m.job_id, m.candidate_id, c.full_name AS candidate_name,
       j.title AS job_title, m.score, m.status, m.reason, m.notes,
       FALSE AS synthesized, m.created_at
FROM candidate_matches m
JOIN candidate_profiles c ON c.id = m.candidate_id
JOIN job_postings j ON j.id = m.job_id
WHERE m.job_id = ANY($1)`
	args := []interface{}{pq.Array(jobIDs)}

	var conditions []string
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("m.status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if len(filter.Archetypes) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.archetype = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.Archetypes))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.score DESC, m.created_at DESC"

	var views []models.CandidateView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list match views: %w", err)
	}
	return views, nil
}

// applicationDisplayStatus translates an application status into the board's
// pipeline vocabulary in SQL, mirroring models.DisplayStatusFromApplication.
const applicationDisplayStatus = `CASE a.status
	WHEN 'pending' THEN 'new'
	WHEN 'under_review' THEN 'reviewed'
	WHEN 'accepted' THEN 'shortlisted'
	WHEN 'rejected' THEN 'hidden'
	ELSE 'new'
END`

// ListViewsFromApplications reconstructs match-shaped views directly from the
// applications join. This is the redundant data path the aggregator falls
// back to when the match relation is absent; statuses are mapped and filters
// applied so the output is interchangeable with ListViews.
func (r *MatchRepository) ListViewsFromApplications(ctx context.Context, jobIDs []string, filter models.BoardFilter, score int) ([]models.CandidateView, error) {
	query := fmt.Sprintf(`
SELECT '' AS match_id, a.job_id, a.candidate_id, c.full_name AS candidate_name,
       j.title AS job_title, $2 AS score, %s AS status, $3 AS reason, NULL AS notes,
       TRUE AS synthesized, a.submitted_at AS created_at
FROM applications a
JOIN candidate_profiles c ON c.id = a.candidate_id
JOIN job_postings j ON j.id = a.job_id
WHERE a.job_id = ANY($1)`, applicationDisplayStatus)
	args := []interface{}{pq.Array(jobIDs), score, models.SynthesizedReason}

	var conditions []string
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", applicationDisplayStatus, len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if len(filter.Archetypes) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.archetype = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.Archetypes))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.submitted_at DESC"

	var views []models.CandidateView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list views from applications: %w", err)
	}
	return views, nil
}
