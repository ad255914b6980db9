package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/schoolhire/match-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMatchRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO candidate_matches")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	match := &models.CandidateMatch{
		JobID:       "job-1",
		CandidateID: "cand-1",
		Score:       89,
		Reason:      "Teaches Math",
		Status:      models.MatchStatusNew,
	}
	require.NoError(t, repo.Create(context.Background(), match))
	require.NotEmpty(t, match.ID)

	rows := sqlmock.NewRows([]string{"id", "job_id", "candidate_id", "score", "reason", "status", "notes", "created_at", "updated_at"}).
		AddRow(match.ID, "job-1", "cand-1", 89, "Teaches Math", "new", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, job_id, candidate_id")).
		WithArgs(match.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), match.ID)
	require.NoError(t, err)
	require.Equal(t, match.ID, found.ID)
	require.Equal(t, models.MatchStatusNew, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM candidate_matches")).
		WithArgs("job-1", "cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM candidate_matches")).
		WithArgs("job-1", "cand-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "job-1", "cand-1")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.Exists(context.Background(), "job-1", "cand-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryUpdateStatusWithNotes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_matches SET status = $2, notes = $3")).
		WithArgs("match-1", models.MatchStatusHired, "great fit", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notes := "great fit"
	require.NoError(t, repo.UpdateStatus(context.Background(), "match-1", models.MatchStatusHired, &notes))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryUpdateStatusWithoutNotes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_matches SET status = $2, updated_at = $3")).
		WithArgs("match-1", models.MatchStatusReviewed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "match-1", models.MatchStatusReviewed, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryListViewsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	rows := sqlmock.NewRows([]string{"match_id", "job_id", "candidate_id", "candidate_name", "job_title", "score", "status", "reason", "notes", "synthesized", "created_at"}).
		AddRow("match-1", "job-1", "cand-1", "Dana Reyes", "Math Teacher", 89, "new", "Teaches Math", nil, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM candidate_matches m")).
		WillReturnRows(rows)

	views, err := repo.ListViews(context.Background(), []string{"job-1"}, models.BoardFilter{
		Statuses:   []models.MatchStatus{models.MatchStatusNew},
		Archetypes: []string{"mentor"},
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Dana Reyes", views[0].CandidateName)
	require.False(t, views[0].Synthesized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryListViewsFromApplications(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	rows := sqlmock.NewRows([]string{"match_id", "job_id", "candidate_id", "candidate_name", "job_title", "score", "status", "reason", "notes", "synthesized", "created_at"}).
		AddRow("", "job-1", "cand-1", "Dana Reyes", "Math Teacher", models.SynthesizedScore, "new", models.SynthesizedReason, nil, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM applications a")).
		WillReturnRows(rows)

	views, err := repo.ListViewsFromApplications(context.Background(), []string{"job-1"}, models.BoardFilter{}, models.SynthesizedScore)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].Synthesized)
	require.Equal(t, models.SynthesizedScore, views[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepositoryListViewsFromApplicationsMapsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMatchRepository(db)
	rows := sqlmock.NewRows([]string{"match_id", "job_id", "candidate_id", "candidate_name", "job_title", "score", "status", "reason", "notes", "synthesized", "created_at"}).
		AddRow("", "job-1", "cand-1", "Dana Reyes", "Math Teacher", models.SynthesizedScore, "hidden", models.SynthesizedReason, nil, true, time.Now())

	// The query rewrites application statuses into pipeline statuses and
	// filters on the rewritten value.
	mock.ExpectQuery(regexp.QuoteMeta("WHEN 'rejected' THEN 'hidden'")).
		WillReturnRows(rows)

	views, err := repo.ListViewsFromApplications(context.Background(), []string{"job-1"},
		models.BoardFilter{Statuses: []models.MatchStatus{models.MatchStatusHidden}, Archetypes: []string{"mentor"}},
		models.SynthesizedScore)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, models.MatchStatusHidden, views[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
