package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schoolhire/match-api/internal/dto"
	"github.com/schoolhire/match-api/internal/models"
)

type matchStoreStub struct {
	matches   map[string]*models.CandidateMatch
	updateErr error
}

func newMatchStoreStub() *matchStoreStub {
	return &matchStoreStub{matches: make(map[string]*models.CandidateMatch)}
}

func (m *matchStoreStub) FindByID(ctx context.Context, id string) (*models.CandidateMatch, error) {
	if match, ok := m.matches[id]; ok {
		copy := *match
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *matchStoreStub) UpdateStatus(ctx context.Context, id string, status models.MatchStatus, notes *string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	match, ok := m.matches[id]
	if !ok {
		return sql.ErrNoRows
	}
	match.Status = status
	if notes != nil {
		match.Notes = notes
	}
	return nil
}

type applicationStoreStub struct {
	apps       map[string]*models.Application // keyed job:candidate
	lookupErrs map[string]error
	updateErr  error
}

func newApplicationStoreStub() *applicationStoreStub {
	return &applicationStoreStub{
		apps:       make(map[string]*models.Application),
		lookupErrs: make(map[string]error),
	}
}

func (a *applicationStoreStub) FindByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*models.Application, error) {
	key := jobID + ":" + candidateID
	if err, ok := a.lookupErrs[key]; ok {
		return nil, err
	}
	if app, ok := a.apps[key]; ok {
		copy := *app
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a *applicationStoreStub) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	if a.updateErr != nil {
		return a.updateErr
	}
	for _, app := range a.apps {
		if app.ID == id {
			app.Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type candidateStoreStub struct {
	candidates map[string]*models.CandidateProfile
}

func (c *candidateStoreStub) FindByID(ctx context.Context, id string) (*models.CandidateProfile, error) {
	if cand, ok := c.candidates[id]; ok {
		copy := *cand
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type jobStoreStub struct {
	jobs    map[string]*models.JobPosting
	findErr error
	listErr error
}

func (j *jobStoreStub) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	if j.findErr != nil {
		return nil, j.findErr
	}
	if job, ok := j.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (j *jobStoreStub) ListByIDs(ctx context.Context, ids []string) ([]models.JobPosting, error) {
	if j.listErr != nil {
		return nil, j.listErr
	}
	var out []models.JobPosting
	for _, id := range ids {
		if job, ok := j.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out, nil
}

type notifierStub struct {
	intents []models.NotificationIntent
}

func (n *notifierStub) Notify(ctx context.Context, intent models.NotificationIntent) {
	n.intents = append(n.intents, intent)
}

func strPtr(s string) *string { return &s }

func seedStatusFixture() (*matchStoreStub, *applicationStoreStub, *candidateStoreStub, *jobStoreStub) {
	matches := newMatchStoreStub()
	matches.matches["match-1"] = &models.CandidateMatch{
		ID: "match-1", JobID: "job-1", CandidateID: "cand-1",
		Score: 89, Status: models.MatchStatusNew,
	}
	apps := newApplicationStoreStub()
	apps.apps["job-1:cand-1"] = &models.Application{
		ID: "app-1", JobID: "job-1", CandidateID: "cand-1",
		Status: models.ApplicationStatusPending,
	}
	candidates := &candidateStoreStub{candidates: map[string]*models.CandidateProfile{
		"cand-1": {ID: "cand-1", UserID: "user-1", FullName: "Dana Reyes", Email: "dana@example.com"},
	}}
	jobs := &jobStoreStub{jobs: map[string]*models.JobPosting{
		"job-1": {ID: "job-1", SchoolID: "school-1", SchoolName: "Lincoln High", Title: "Math Teacher"},
	}}
	return matches, apps, candidates, jobs
}

func TestSetStatusSyncsApplicationAndNotifies(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	notify := &notifierStub{}
	svc := NewStatusService(matches, apps, candidates, jobs, notify, nil, nil, nil)

	match, err := svc.SetStatus(context.Background(), "match-1", dto.UpdateStatusRequest{
		Status: "hired",
		Notes:  strPtr("great interview"),
	})
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusHired, match.Status)
	require.Equal(t, "great interview", *match.Notes)

	require.Equal(t, models.ApplicationStatusAccepted, apps.apps["job-1:cand-1"].Status)

	require.Len(t, notify.intents, 1)
	intent := notify.intents[0]
	require.Equal(t, models.EventStatusChange, intent.Kind)
	require.Equal(t, "user-1", intent.RecipientID)
	require.Equal(t, "dana@example.com", intent.Email)
	require.Equal(t, "hired", intent.Payload["new_status"])
	require.Equal(t, "Math Teacher", intent.Payload["job_title"])
	require.Equal(t, "Lincoln High", intent.Payload["school_name"])
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	svc := NewStatusService(matches, apps, candidates, jobs, nil, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "match-1", dto.UpdateStatusRequest{Status: "archived"})
	require.Error(t, err)
	// No write happened.
	require.Equal(t, models.MatchStatusNew, matches.matches["match-1"].Status)
}

func TestSetStatusNotFound(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	svc := NewStatusService(matches, apps, candidates, jobs, nil, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "missing", dto.UpdateStatusRequest{Status: "reviewed"})
	require.Error(t, err)
}

func TestSetStatusPrimaryWriteFailureAborts(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	matches.updateErr = errors.New("db down")
	notify := &notifierStub{}
	svc := NewStatusService(matches, apps, candidates, jobs, notify, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "match-1", dto.UpdateStatusRequest{Status: "reviewed"})
	require.Error(t, err)
	require.Equal(t, models.ApplicationStatusPending, apps.apps["job-1:cand-1"].Status)
	require.Empty(t, notify.intents)
}

func TestSetStatusMirrorFailureDoesNotFailCall(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	apps.updateErr = errors.New("applications table locked")
	notify := &notifierStub{}
	svc := NewStatusService(matches, apps, candidates, jobs, notify, nil, nil, nil)

	match, err := svc.SetStatus(context.Background(), "match-1", dto.UpdateStatusRequest{Status: "reviewed"})
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusReviewed, match.Status)
	// Mirror stayed behind, intent still emitted.
	require.Equal(t, models.ApplicationStatusPending, apps.apps["job-1:cand-1"].Status)
	require.Len(t, notify.intents, 1)
}

func TestSetStatusMissingApplicationIsNormal(t *testing.T) {
	matches, apps, candidates, jobs := seedStatusFixture()
	delete(apps.apps, "job-1:cand-1")
	svc := NewStatusService(matches, apps, candidates, jobs, nil, nil, nil, nil)

	match, err := svc.SetStatus(context.Background(), "match-1", dto.UpdateStatusRequest{Status: "contacted"})
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusContacted, match.Status)
}

func TestSetStatusBulkPartialFailureIndependence(t *testing.T) {
	matches := newMatchStoreStub()
	apps := newApplicationStoreStub()
	for _, n := range []string{"1", "2", "3"} {
		matches.matches["match-"+n] = &models.CandidateMatch{
			ID: "match-" + n, JobID: "job-1", CandidateID: "cand-" + n,
			Status: models.MatchStatusNew,
		}
		apps.apps["job-1:cand-"+n] = &models.Application{
			ID: "app-" + n, JobID: "job-1", CandidateID: "cand-" + n,
			Status: models.ApplicationStatusPending,
		}
	}
	apps.lookupErrs["job-1:cand-2"] = errors.New("lookup timeout")
	svc := NewStatusService(matches, apps, nil, nil, nil, nil, nil, nil)

	result := svc.SetStatusBulk(context.Background(), dto.BulkStatusRequest{
		MatchIDs: []string{"match-1", "match-2", "match-3"},
		Status:   "shortlisted",
	})
	require.Equal(t, 3, result.Updated)
	require.Zero(t, result.Failed)

	// Every match row moved; the second application was left untouched.
	for _, n := range []string{"1", "2", "3"} {
		require.Equal(t, models.MatchStatusShortlisted, matches.matches["match-"+n].Status)
	}
	require.Equal(t, models.ApplicationStatusUnderReview, apps.apps["job-1:cand-1"].Status)
	require.Equal(t, models.ApplicationStatusPending, apps.apps["job-1:cand-2"].Status)
	require.Equal(t, models.ApplicationStatusUnderReview, apps.apps["job-1:cand-3"].Status)
}

func TestSetStatusBulkReportsFailedRows(t *testing.T) {
	matches := newMatchStoreStub()
	matches.matches["match-1"] = &models.CandidateMatch{
		ID: "match-1", JobID: "job-1", CandidateID: "cand-1", Status: models.MatchStatusNew,
	}
	svc := NewStatusService(matches, nil, nil, nil, nil, nil, nil, nil)

	result := svc.SetStatusBulk(context.Background(), dto.BulkStatusRequest{
		MatchIDs: []string{"match-1", "missing"},
		Status:   "reviewed",
	})
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 2)
	require.True(t, result.Results[0].OK)
	require.False(t, result.Results[1].OK)
	require.NotEmpty(t, result.Results[1].Error)
}

func TestApplicationStatusMappingIsTotal(t *testing.T) {
	for _, status := range models.MatchStatuses {
		mapped := models.ApplicationStatusForMatch(status)
		_, err := models.ParseApplicationStatus(string(mapped))
		require.NoError(t, err, "match status %s must map to a known application status", status)
	}
}
