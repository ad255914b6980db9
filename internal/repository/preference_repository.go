package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schoolhire/match-api/internal/models"
)

// PreferenceRepository reads notification opt-in preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// IsEnabled reports whether the recipient accepts the event kind. A missing
// preference row means opted in.
func (r *PreferenceRepository) IsEnabled(ctx context.Context, recipientID string, kind models.EventKind) (bool, error) {
	const query = `SELECT recipient_id, kind, enabled FROM notification_preferences WHERE recipient_id = $1 AND kind = $2`
	var pref models.NotificationPreference
	if err := r.db.GetContext(ctx, &pref, query, recipientID, kind); err != nil {
		if err == sql.ErrNoRows {
			return true, nil
		}
		return false, fmt.Errorf("load notification preference: %w", err)
	}
	return pref.Enabled, nil
}
