package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
)

type jobLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.JobPosting, error)
}

type matchViewLister interface {
	ListViews(ctx context.Context, jobIDs []string, filter models.BoardFilter) ([]models.CandidateView, error)
	ListViewsFromApplications(ctx context.Context, jobIDs []string, filter models.BoardFilter, score int) ([]models.CandidateView, error)
}

type applicationLister interface {
	ListByJobs(ctx context.Context, jobIDs []string) ([]models.Application, error)
}

type boardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// BoardService merges the two redundant candidate sources for a job scope
// into one ranked board. Match records and raw applications are allowed to
// diverge; the merge reconciles them at read time with match records taking
// precedence per pair.
type BoardService struct {
	jobs             jobLister
	matches          matchViewLister
	applications     applicationLister
	cache            boardCache
	cacheTTL         time.Duration
	synthesizedScore int
	logger           *zap.Logger
}

// BoardOption configures the service.
type BoardOption func(*BoardService)

// WithSynthesizedScore overrides the score assigned to application-only
// candidate views. The value is a ranking tunable, not a meaningful score.
func WithSynthesizedScore(score int) BoardOption {
	return func(s *BoardService) {
		if score > 0 {
			s.synthesizedScore = score
		}
	}
}

// NewBoardService constructs the aggregator. cache may be nil to disable the
// cache-aside layer.
func NewBoardService(jobs jobLister, matches matchViewLister, applications applicationLister, cache boardCache, cacheTTL time.Duration, logger *zap.Logger, opts ...BoardOption) *BoardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	s := &BoardService{
		jobs:             jobs,
		matches:          matches,
		applications:     applications,
		cache:            cache,
		cacheTTL:         cacheTTL,
		synthesizedScore: models.SynthesizedScore,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board returns the merged, sorted candidate views for the job id scope.
// The job fetch is required and its errors propagate; both candidate sources
// are optional and degrade to empty on failure.
func (s *BoardService) Board(ctx context.Context, jobIDs []string, filter models.BoardFilter) ([]models.CandidateView, error) {
	if len(jobIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one job id is required")
	}

	cacheKey := s.boardKey(jobIDs, filter)
	if s.cache != nil {
		var cached []models.CandidateView
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("board cache read failed", zap.Error(err))
		}
	}

	jobs, err := s.jobs.ListByIDs(ctx, jobIDs)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if len(jobs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no jobs found for the requested scope")
	}
	scope := make([]string, len(jobs))
	for i, j := range jobs {
		scope[i] = j.ID
	}

	matchViews := s.fetchMatchViews(ctx, scope, filter)

	covered := make(map[string]struct{}, len(matchViews))
	for _, v := range matchViews {
		covered[v.JobID+":"+v.CandidateID] = struct{}{}
	}

	views := matchViews
	for _, app := range s.fetchApplications(ctx, scope) {
		if _, ok := covered[app.JobID+":"+app.CandidateID]; ok {
			continue
		}
		views = append(views, s.synthesizeView(app))
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Score != views[j].Score {
			return views[i].Score > views[j].Score
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, views, s.cacheTTL); err != nil {
			s.logger.Warn("board cache write failed", zap.Error(err))
		}
	}
	return views, nil
}

// InvalidateJob drops every cached board covering the job. Best-effort.
func (s *BoardService) InvalidateJob(ctx context.Context, jobID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "board:*"); err != nil {
		s.logger.Warn("board cache invalidation failed",
			zap.String("job_id", jobID), zap.Error(err))
	}
}

// fetchMatchViews reads the primary candidate source. A missing relation
// (undefined_table) switches to the join-based reconstruction; any other
// failure degrades to empty.
func (s *BoardService) fetchMatchViews(ctx context.Context, jobIDs []string, filter models.BoardFilter) []models.CandidateView {
	views, err := s.matches.ListViews(ctx, jobIDs, filter)
	if err == nil {
		return views
	}

	if isUndefinedTable(err) {
		s.logger.Warn("match relation absent, reconstructing from applications")
		views, err = s.matches.ListViewsFromApplications(ctx, jobIDs, filter, s.synthesizedScore)
		if err == nil {
			return views
		}
	}
	s.logger.Warn("match source unavailable, treating as empty", zap.Error(err))
	return nil
}

func (s *BoardService) fetchApplications(ctx context.Context, jobIDs []string) []models.Application {
	if s.applications == nil {
		return nil
	}
	apps, err := s.applications.ListByJobs(ctx, jobIDs)
	if err != nil {
		s.logger.Warn("application source unavailable, treating as empty", zap.Error(err))
		return nil
	}
	return apps
}

// synthesizeView builds the board entry for an application that has no match
// record. The fixed low score ranks it below every scored match.
func (s *BoardService) synthesizeView(app models.Application) models.CandidateView {
	return models.CandidateView{
		JobID:         app.JobID,
		CandidateID:   app.CandidateID,
		CandidateName: app.CandidateName,
		JobTitle:      app.JobTitle,
		Score:         s.synthesizedScore,
		Status:        models.DisplayStatusFromApplication(app.Status),
		Reason:        models.SynthesizedReason,
		Synthesized:   true,
		CreatedAt:     app.SubmittedAt,
	}
}

// boardKey derives a stable cache key from the scope and filters.
func (s *BoardService) boardKey(jobIDs []string, filter models.BoardFilter) string {
	ids := append([]string(nil), jobIDs...)
	sort.Strings(ids)

	statuses := make([]string, len(filter.Statuses))
	for i, st := range filter.Statuses {
		statuses[i] = string(st)
	}
	sort.Strings(statuses)
	archetypes := append([]string(nil), filter.Archetypes...)
	sort.Strings(archetypes)

	sum := sha1.Sum([]byte(strings.Join(statuses, ",") + "|" + strings.Join(archetypes, ",")))
	return fmt.Sprintf("board:%s:%s", strings.Join(ids, ","), hex.EncodeToString(sum[:8]))
}

// isUndefinedTable reports whether err is postgres undefined_table (42P01).
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}
