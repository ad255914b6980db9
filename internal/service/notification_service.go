package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhire/match-api/internal/models"
	appErrors "github.com/schoolhire/match-api/pkg/errors"
	"github.com/schoolhire/match-api/pkg/mailer"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListPending(ctx context.Context, limit int) ([]models.Notification, error)
	MarkSending(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id string) (bool, error)
	MarkFailed(ctx context.Context, id, errMsg string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
}

type preferenceStore interface {
	IsEnabled(ctx context.Context, recipientID string, kind models.EventKind) (bool, error)
}

type newMatchCounter interface {
	CountByJobAndStatus(ctx context.Context, jobID string, status models.MatchStatus) (int, error)
}

type messageSender interface {
	Render(name string, data map[string]string) (string, string, error)
	Send(to, subject, body string) error
}

// NotificationConfig tunes dispatcher behaviour.
type NotificationConfig struct {
	DebounceWindow time.Duration
	SendTimeout    time.Duration
	BatchSize      int
}

// NotificationService turns state-change intents into at most one outbound
// message per debounce key per cool-down window.
type NotificationService struct {
	repo     notificationStore
	prefs    preferenceStore
	matches  newMatchCounter
	sender   messageSender
	debounce *Debouncer
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *MetricsService
	cfg      NotificationConfig
}

// NewNotificationService constructs the dispatcher. The debouncer is owned
// by this instance; two services never share suppression state.
func NewNotificationService(
	repo notificationStore,
	prefs preferenceStore,
	matches newMatchCounter,
	sender messageSender,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg NotificationConfig,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &NotificationService{
		repo:     repo,
		prefs:    prefs,
		matches:  matches,
		sender:   sender,
		debounce: NewDebouncer(cfg.DebounceWindow),
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// templateByKind maps event kinds onto mail templates.
var templateByKind = map[models.EventKind]string{
	models.EventCandidateMatch: mailer.TemplateCandidateMatch,
	models.EventJobMatch:       mailer.TemplateJobMatch,
	models.EventStatusChange:   mailer.TemplateStatusChange,
}

// Notify accepts an intent, applies the debounce window, queues a
// notification row, and attempts immediate delivery in the background.
// Fire-and-forget: callers never observe delivery failures.
func (s *NotificationService) Notify(ctx context.Context, intent models.NotificationIntent) {
	if err := s.validate.Var(intent.Email, "required,email"); err != nil {
		s.logger.Warn("intent dropped, invalid recipient email",
			zap.String("kind", string(intent.Kind)), zap.String("recipient_id", intent.RecipientID))
		return
	}

	key := intent.DebounceKey()
	if !s.debounce.ShouldFire(key) {
		s.metrics.NotificationSuppressed()
		s.logger.Debug("notification suppressed by debounce",
			zap.String("key", key), zap.String("kind", string(intent.Kind)))
		return
	}

	n := &models.Notification{
		Kind:        intent.Kind,
		RecipientID: intent.RecipientID,
		Email:       intent.Email,
		Template:    templateByKind[intent.Kind],
		Payload:     models.PayloadMap(intent.Payload),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to queue notification",
			zap.String("kind", string(intent.Kind)), zap.Error(err))
		return
	}

	// Immediate attempt runs detached from the caller's request. The row
	// stays pending on a crash and is picked up by the next queue pass.
	go func(row models.Notification) {
		bg, cancel := context.WithTimeout(context.Background(), s.cfg.SendTimeout+5*time.Second)
		defer cancel()
		s.deliver(bg, row)
	}(*n)
}

// ProcessQueue re-attempts every pending row, up to batchSize. Designed for
// periodic invocation; the per-row status guards in the store make repeated
// or overlapping passes safe, though a single invoker is assumed.
func (s *NotificationService) ProcessQueue(ctx context.Context, batchSize int) (models.QueueStats, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}

	rows, err := s.repo.ListPending(ctx, batchSize)
	if err != nil {
		return models.QueueStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending notifications")
	}

	stats := models.QueueStats{}
	for _, row := range rows {
		stats.Processed++
		switch s.deliver(ctx, row) {
		case deliverySent:
			stats.Succeeded++
		case deliveryFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

type deliveryOutcome int

const (
	deliverySent deliveryOutcome = iota
	deliveryCancelled
	deliveryFailed
	deliverySkipped
)

// deliver claims one queued row and runs the preference gate, render, send
// and finalize sequence for it. The claim happens before any delivery work,
// so two processors racing on the same row produce at most one send. Every
// failure is terminal for the row; only unclaimed pending rows are retried.
func (s *NotificationService) deliver(ctx context.Context, n models.Notification) deliveryOutcome {
	if ok, err := s.repo.MarkSending(ctx, n.ID); err != nil || !ok {
		return deliverySkipped
	}

	enabled, err := s.prefs.IsEnabled(ctx, n.RecipientID, n.Kind)
	if err != nil {
		// Preference reads are best-effort; default to opted in.
		s.logger.Warn("preference lookup failed, assuming opted in",
			zap.String("notification_id", n.ID), zap.Error(err))
		enabled = true
	}
	if !enabled {
		if ok, err := s.repo.MarkCancelled(ctx, n.ID); err != nil || !ok {
			return deliverySkipped
		}
		s.metrics.NotificationCancelled()
		return deliveryCancelled
	}

	payload := s.freshenPayload(ctx, n)

	subject, body, err := s.sender.Render(n.Template, payload)
	if err != nil {
		return s.fail(ctx, n, fmt.Sprintf("render: %v", err))
	}

	if err := s.sendWithTimeout(ctx, n.Email, subject, body); err != nil {
		return s.fail(ctx, n, err.Error())
	}

	if ok, err := s.repo.MarkSent(ctx, n.ID); err != nil || !ok {
		// The claim was lost between send and finalize, which only happens
		// if the row was mutated out of band. The send already went out.
		return deliverySkipped
	}
	s.metrics.NotificationSent()
	return deliverySent
}

// freshenPayload recomputes aggregate fields at send time so a debounced
// send reflects current state, not the state when the first event fired.
func (s *NotificationService) freshenPayload(ctx context.Context, n models.Notification) map[string]string {
	payload := make(map[string]string, len(n.Payload)+1)
	for k, v := range n.Payload {
		payload[k] = v
	}

	if n.Kind == models.EventCandidateMatch {
		if jobID := payload["job_id"]; jobID != "" && s.matches != nil {
			count, err := s.matches.CountByJobAndStatus(ctx, jobID, models.MatchStatusNew)
			if err != nil {
				s.logger.Warn("failed to refresh new-candidate count",
					zap.String("job_id", jobID), zap.Error(err))
			} else {
				payload["new_count"] = fmt.Sprintf("%d", count)
			}
		}
	}
	if payload["new_count"] == "" {
		payload["new_count"] = "1"
	}
	return payload
}

func (s *NotificationService) fail(ctx context.Context, n models.Notification, msg string) deliveryOutcome {
	if ok, err := s.repo.MarkFailed(ctx, n.ID, msg); err != nil || !ok {
		return deliverySkipped
	}
	s.metrics.NotificationFailed()
	s.logger.Warn("notification delivery failed",
		zap.String("notification_id", n.ID), zap.String("error", msg))
	return deliveryFailed
}

// sendWithTimeout bounds the synchronous SMTP call. A timed-out send counts
// as failed; the transport may still deliver, which is accepted over holding
// the queue pass open.
func (s *NotificationService) sendWithTimeout(ctx context.Context, to, subject, body string) error {
	done := make(chan error, 1)
	go func() {
		done <- s.sender.Send(to, subject, body)
	}()

	timer := time.NewTimer(s.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("send timed out after %s", s.cfg.SendTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
