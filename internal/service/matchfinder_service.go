package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
	"github.com/schoolhire/match-api/pkg/jobs"
)

const (
	finderSubjectPoints   = 40
	finderGradePoints     = 30
	finderLocationPoints  = 20
	finderLocationPartial = 5
	finderArchetypePoints = 10
)

type candidatePool interface {
	ListComplete(ctx context.Context) ([]models.CandidateProfile, error)
}

type matchWriter interface {
	Exists(ctx context.Context, jobID, candidateID string) (bool, error)
	Create(ctx context.Context, match *models.CandidateMatch) error
}

// FinderConfig tunes the fan-out path.
type FinderConfig struct {
	ResultCap          int
	AdmissionThreshold int
	FanOutTimeout      time.Duration
}

// MatchFinderService ranks eligible teachers for a job using the additive
// fan-out heuristic. This scorer is intentionally distinct from the weighted
// read-path scorer in internal/scoring: hard filters bound the pool before
// any scoring work happens.
type MatchFinderService struct {
	jobs       jobReader
	candidates candidatePool
	matches    matchWriter
	notify     notifier
	queue      *jobs.Queue
	logger     *zap.Logger
	metrics    *MetricsService
	cfg        FinderConfig
}

// NewMatchFinderService constructs the finder. queue and notify may be nil,
// which disables the background notification fan-out.
func NewMatchFinderService(
	jobsRepo jobReader,
	candidates candidatePool,
	matches matchWriter,
	notify notifier,
	queue *jobs.Queue,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg FinderConfig,
) *MatchFinderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultCap <= 0 {
		cfg.ResultCap = 50
	}
	if cfg.AdmissionThreshold <= 0 {
		cfg.AdmissionThreshold = finderSubjectPoints
	}
	if cfg.FanOutTimeout <= 0 {
		cfg.FanOutTimeout = 15 * time.Second
	}
	return &MatchFinderService{
		jobs:       jobsRepo,
		candidates: candidates,
		matches:    matches,
		notify:     notify,
		queue:      queue,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// FindMatches ranks every eligible complete profile against the job, persists
// match records for newly admitted candidates, and fans out job-match
// notifications in the background. Returns the ranked list, capped, along
// with the number of match rows actually created.
func (s *MatchFinderService) FindMatches(ctx context.Context, jobID string) ([]models.RankedCandidate, int, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, 0, appErrors.FromError(err)
	}

	pool, err := s.candidates.ListComplete(ctx)
	if err != nil {
		return nil, 0, appErrors.FromError(err)
	}

	ranked := make([]models.RankedCandidate, 0, len(pool))
	for i := range pool {
		candidate := pool[i]
		if !eligible(&candidate, job) {
			continue
		}
		score, reasons := fanOutScore(&candidate, job)
		if score < s.cfg.AdmissionThreshold {
			continue
		}
		ranked = append(ranked, models.RankedCandidate{Candidate: candidate, Score: score, Reasons: reasons})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > s.cfg.ResultCap {
		ranked = ranked[:s.cfg.ResultCap]
	}

	s.metrics.MatchesFound(len(ranked))
	created := s.persistMatches(ctx, job, ranked)
	s.fanOutNotifications(job, ranked)
	return ranked, created, nil
}

// eligible applies the hard filters. A failed filter eliminates the candidate
// outright; no score is computed.
func eligible(c *models.CandidateProfile, job *models.JobPosting) bool {
	if !c.ProfileComplete {
		return false
	}
	if job.Subject != "" && !c.HasSubject(job.Subject) {
		return false
	}
	if !job.AcceptsAllGrades() && !c.HasGradeLevel(job.GradeLevel) {
		return false
	}
	return true
}

// fanOutScore is the additive heuristic for the batch path. Hard filters ran
// first, so the subject and grade bonuses re-award what eligibility already
// established whenever the job pinned them.
func fanOutScore(c *models.CandidateProfile, job *models.JobPosting) (int, []string) {
	score := 0
	var reasons []string

	if job.Subject != "" && c.HasSubject(job.Subject) {
		score += finderSubjectPoints
		reasons = append(reasons, fmt.Sprintf("Teaches %s", job.Subject))
	}
	if !job.AcceptsAllGrades() && c.HasGradeLevel(job.GradeLevel) {
		score += finderGradePoints
		reasons = append(reasons, fmt.Sprintf("Covers grades %s", job.GradeLevel))
	}
	if locationsOverlap(c.Location, job.Location) {
		score += finderLocationPoints
		reasons = append(reasons, "Located nearby")
	} else {
		score += finderLocationPartial
	}
	if c.Archetype != nil && archetypeTagged(*c.Archetype, job.ArchetypeTags) {
		score += finderArchetypePoints
		reasons = append(reasons, fmt.Sprintf("Matches %s profile", *c.Archetype))
	}
	return score, reasons
}

// locationsOverlap is a loose containment check on normalized location
// strings, enough to treat "Austin, TX" and "Austin" as overlapping.
func locationsOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func archetypeTagged(archetype string, tags []string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, archetype) {
			return true
		}
	}
	return false
}

// persistMatches records a new-status match for every ranked candidate who
// does not already have one and reports how many rows were written.
// Failures are secondary: logged, never propagated.
func (s *MatchFinderService) persistMatches(ctx context.Context, job *models.JobPosting, ranked []models.RankedCandidate) int {
	if s.matches == nil {
		return 0
	}
	created := 0
	for _, rc := range ranked {
		exists, err := s.matches.Exists(ctx, job.ID, rc.Candidate.ID)
		if err != nil {
			s.logger.Warn("match existence check failed",
				zap.String("job_id", job.ID), zap.String("candidate_id", rc.Candidate.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		match := &models.CandidateMatch{
			JobID:       job.ID,
			CandidateID: rc.Candidate.ID,
			Score:       rc.Score,
			Reason:      strings.Join(rc.Reasons, "; "),
			Status:      models.MatchStatusNew,
		}
		if err := s.matches.Create(ctx, match); err != nil {
			s.logger.Warn("failed to persist match record",
				zap.String("job_id", job.ID), zap.String("candidate_id", rc.Candidate.ID), zap.Error(err))
			continue
		}
		created++
	}
	return created
}

// fanOutNotifications enqueues one job-match intent per ranked teacher on the
// background queue. The dispatcher's debounce collapses repeated fan-outs for
// the same teacher.
func (s *MatchFinderService) fanOutNotifications(job *models.JobPosting, ranked []models.RankedCandidate) {
	if s.queue == nil || s.notify == nil {
		return
	}
	for _, rc := range ranked {
		if rc.Candidate.Email == "" {
			continue
		}
		intent := models.NotificationIntent{
			Kind:        models.EventJobMatch,
			RecipientID: rc.Candidate.UserID,
			Email:       rc.Candidate.Email,
			Payload: map[string]string{
				"candidate_name": rc.Candidate.FullName,
				"job_title":      job.Title,
				"school_name":    job.SchoolName,
				"location":       job.Location,
				"subject":        job.Subject,
			},
		}
		err := s.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("job-match:%s:%s", job.ID, rc.Candidate.ID),
			Type:    "job-match-notification",
			Payload: intent,
		})
		if err != nil {
			s.logger.Warn("failed to enqueue job-match notification",
				zap.String("job_id", job.ID), zap.String("candidate_id", rc.Candidate.ID), zap.Error(err))
		}
	}
}

// NotificationJobHandler adapts the dispatcher to the queue's handler shape.
// Worker errors stay inside the pool; the fan-out path never sees them.
func NotificationJobHandler(dispatcher notifier, timeout time.Duration) jobs.Handler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return func(ctx context.Context, job jobs.Job) error {
		intent, ok := job.Payload.(models.NotificationIntent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		taskCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		dispatcher.Notify(taskCtx, intent)
		return nil
	}
}
