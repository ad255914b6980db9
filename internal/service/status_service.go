package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/schoolhire/match-api/internal/dto"
	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
)

type matchStatusStore interface {
	FindByID(ctx context.Context, id string) (*models.CandidateMatch, error)
	UpdateStatus(ctx context.Context, id string, status models.MatchStatus, notes *string) error
}

type applicationMirror interface {
	FindByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
}

type candidateReader interface {
	FindByID(ctx context.Context, id string) (*models.CandidateProfile, error)
}

type jobReader interface {
	FindByID(ctx context.Context, id string) (*models.JobPosting, error)
}

type notifier interface {
	Notify(ctx context.Context, intent models.NotificationIntent)
}

type boardInvalidator interface {
	InvalidateJob(ctx context.Context, jobID string)
}

// StatusService moves a match through the hiring pipeline and keeps the
// redundant application row in step. The match write is the source of truth;
// everything after it is best-effort.
type StatusService struct {
	matches      matchStatusStore
	applications applicationMirror
	candidates   candidateReader
	jobs         jobReader
	notify       notifier
	board        boardInvalidator
	logger       *zap.Logger
	metrics      *MetricsService
}

// NewStatusService constructs the synchronizer. applications, candidates,
// jobs, notify and board may be nil; each missing collaborator disables the
// corresponding secondary effect.
func NewStatusService(
	matches matchStatusStore,
	applications applicationMirror,
	candidates candidateReader,
	jobs jobReader,
	notify notifier,
	board boardInvalidator,
	logger *zap.Logger,
	metrics *MetricsService,
) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		matches:      matches,
		applications: applications,
		candidates:   candidates,
		jobs:         jobs,
		notify:       notify,
		board:        board,
		logger:       logger,
		metrics:      metrics,
	}
}

// SetStatus validates and persists a status change on the match row, then
// mirrors it to the application and emits a status-change intent. Ordering is
// fixed: match write, application write, intent. Only the first can fail the
// call.
func (s *StatusService) SetStatus(ctx context.Context, matchID string, req dto.UpdateStatusRequest) (*models.CandidateMatch, error) {
	status, err := models.ParseMatchStatus(req.Status)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.FromError(err)
	}

	if err := s.matches.UpdateStatus(ctx, matchID, status, req.Notes); err != nil {
		return nil, appErrors.FromError(err)
	}
	match.Status = status
	if req.Notes != nil {
		match.Notes = req.Notes
	}
	s.metrics.StatusSynced()

	s.mirrorApplication(ctx, match, status)
	s.emitStatusChange(ctx, match, status)

	if s.board != nil {
		s.board.InvalidateJob(ctx, match.JobID)
	}
	return match, nil
}

// SetStatusBulk applies one status change per match id, each independently.
// A failed row is reported in the result and never blocks the rest.
func (s *StatusService) SetStatusBulk(ctx context.Context, req dto.BulkStatusRequest) dto.BulkStatusResult {
	result := dto.BulkStatusResult{Results: make([]dto.BulkStatusEntry, 0, len(req.MatchIDs))}
	for _, id := range req.MatchIDs {
		entry := dto.BulkStatusEntry{MatchID: id, OK: true}
		if _, err := s.SetStatus(ctx, id, dto.UpdateStatusRequest{Status: req.Status, Notes: req.Notes}); err != nil {
			entry.OK = false
			entry.Error = appErrors.FromError(err).Message
			result.Failed++
		} else {
			result.Updated++
		}
		result.Results = append(result.Results, entry)
	}
	return result
}

// mirrorApplication pushes the mapped status onto the redundant application
// row. A match without an application is normal (platform-sourced matches);
// any other failure is logged and swallowed.
func (s *StatusService) mirrorApplication(ctx context.Context, match *models.CandidateMatch, status models.MatchStatus) {
	if s.applications == nil {
		return
	}
	app, err := s.applications.FindByJobAndCandidate(ctx, match.JobID, match.CandidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return
		}
		s.metrics.MirrorFailed()
		s.logger.Warn("application lookup failed, mirror skipped",
			zap.String("match_id", match.ID), zap.Error(err))
		return
	}
	if err := s.applications.UpdateStatus(ctx, app.ID, models.ApplicationStatusForMatch(status)); err != nil {
		s.metrics.MirrorFailed()
		s.logger.Warn("application mirror write failed",
			zap.String("match_id", match.ID), zap.String("application_id", app.ID), zap.Error(err))
	}
}

// emitStatusChange hands the dispatcher a status-change intent addressed to
// the candidate. Missing lookups degrade to a thinner payload rather than
// suppressing the event; a missing candidate email suppresses it.
func (s *StatusService) emitStatusChange(ctx context.Context, match *models.CandidateMatch, status models.MatchStatus) {
	if s.notify == nil || s.candidates == nil {
		return
	}
	candidate, err := s.candidates.FindByID(ctx, match.CandidateID)
	if err != nil {
		s.logger.Warn("candidate lookup failed, status notification skipped",
			zap.String("match_id", match.ID), zap.Error(err))
		return
	}
	if candidate.Email == "" {
		return
	}

	payload := map[string]string{
		"candidate_name": candidate.FullName,
		"new_status":     string(status),
	}
	if s.jobs != nil {
		if job, err := s.jobs.FindByID(ctx, match.JobID); err == nil {
			payload["job_title"] = job.Title
			payload["school_name"] = job.SchoolName
		} else {
			s.logger.Warn("job lookup failed, sending thin status payload",
				zap.String("match_id", match.ID), zap.Error(err))
		}
	}

	s.notify.Notify(ctx, models.NotificationIntent{
		Kind:        models.EventStatusChange,
		RecipientID: candidate.UserID,
		Email:       candidate.Email,
		Payload:     payload,
	})
}
