package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schoolhire/match-api/internal/models"
)

// CandidateRepository reads candidate profiles. Profiles are owned by the
// teacher-facing editor; the pipeline never writes them.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs a CandidateRepository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, user_id, full_name, email, subjects, grade_levels, archetype, location, experience_band, resume_url, portfolio_url, profile_complete, created_at, updated_at`

// FindByID fetches a single profile.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.CandidateProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_profiles WHERE id = $1`, candidateColumns)
	var profile models.CandidateProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListComplete returns every profile marked complete. The match finder's
// hard filters run in memory over this pool.
func (r *CandidateRepository) ListComplete(ctx context.Context) ([]models.CandidateProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_profiles WHERE profile_complete = TRUE ORDER BY updated_at DESC`, candidateColumns)
	var profiles []models.CandidateProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list complete profiles: %w", err)
	}
	return profiles, nil
}
