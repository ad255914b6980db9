package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schoolhire/match-api/internal/models"
)

type notificationStoreStub struct {
	mu        sync.Mutex
	rows      map[string]*models.Notification
	nextID    int
	listErr   error
	denyClaim bool
}

func newNotificationStoreStub() *notificationStoreStub {
	return &notificationStoreStub{rows: make(map[string]*models.Notification)}
}

func (s *notificationStoreStub) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if n.ID == "" {
		n.ID = fmt.Sprintf("notif-%d", s.nextID)
	}
	n.Status = models.NotificationStatusPending
	row := *n
	s.rows[n.ID] = &row
	return nil
}

func (s *notificationStoreStub) ListPending(ctx context.Context, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var pending []models.Notification
	for _, row := range s.rows {
		if row.Status == models.NotificationStatusPending {
			pending = append(pending, *row)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *notificationStoreStub) mark(id string, from, to models.NotificationStatus, errMsg *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.Status != from {
		return false, nil
	}
	row.Status = to
	row.Error = errMsg
	return true, nil
}

func (s *notificationStoreStub) MarkSending(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	denied := s.denyClaim
	s.mu.Unlock()
	if denied {
		return false, nil
	}
	return s.mark(id, models.NotificationStatusPending, models.NotificationStatusSending, nil)
}

func (s *notificationStoreStub) MarkSent(ctx context.Context, id string) (bool, error) {
	return s.mark(id, models.NotificationStatusSending, models.NotificationStatusSent, nil)
}

func (s *notificationStoreStub) MarkFailed(ctx context.Context, id, errMsg string) (bool, error) {
	return s.mark(id, models.NotificationStatusSending, models.NotificationStatusFailed, &errMsg)
}

func (s *notificationStoreStub) MarkCancelled(ctx context.Context, id string) (bool, error) {
	return s.mark(id, models.NotificationStatusSending, models.NotificationStatusCancelled, nil)
}

func (s *notificationStoreStub) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *notificationStoreStub) statusOf(id string) models.NotificationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		return row.Status
	}
	return ""
}

func (s *notificationStoreStub) seed(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := n
	s.rows[n.ID] = &row
}

type preferenceStub struct {
	mu       sync.Mutex
	disabled map[string]bool
	err      error
}

func (p *preferenceStub) IsEnabled(ctx context.Context, recipientID string, kind models.EventKind) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	return !p.disabled[recipientID+":"+string(kind)], nil
}

type counterStub struct {
	count int
	err   error
}

func (c *counterStub) CountByJobAndStatus(ctx context.Context, jobID string, status models.MatchStatus) (int, error) {
	return c.count, c.err
}

type senderStub struct {
	mu        sync.Mutex
	sent      []string
	sendErr   error
	renderErr error
	lastData  map[string]string
}

func (m *senderStub) Render(name string, data map[string]string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderErr != nil {
		return "", "", m.renderErr
	}
	m.lastData = data
	return "subject", "<html>body</html>", nil
}

func (m *senderStub) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *senderStub) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestDispatcher(store *notificationStoreStub, prefs *preferenceStub, counter *counterStub, sender *senderStub) *NotificationService {
	if prefs == nil {
		prefs = &preferenceStub{}
	}
	if counter == nil {
		counter = &counterStub{count: 1}
	}
	if sender == nil {
		sender = &senderStub{}
	}
	return NewNotificationService(store, prefs, counter, sender, nil, nil, NotificationConfig{
		DebounceWindow: time.Minute,
		SendTimeout:    time.Second,
		BatchSize:      50,
	})
}

func TestNotifyDebounceCollapsesRepeatedEvents(t *testing.T) {
	store := newNotificationStoreStub()
	svc := newTestDispatcher(store, nil, nil, nil)

	base := time.Now()
	svc.debounce.now = func() time.Time { return base }

	intent := models.NotificationIntent{
		Kind:        models.EventCandidateMatch,
		RecipientID: "school-user-1",
		Email:       "school@example.com",
		Payload:     map[string]string{"school_id": "school-1", "job_id": "job-1", "job_title": "Math Teacher"},
	}
	svc.Notify(context.Background(), intent)
	svc.debounce.now = func() time.Time { return base.Add(30 * time.Second) }
	svc.Notify(context.Background(), intent)

	require.Equal(t, 1, store.created())
}

func TestNotifyFiresAgainAfterWindow(t *testing.T) {
	store := newNotificationStoreStub()
	svc := newTestDispatcher(store, nil, nil, nil)

	base := time.Now()
	svc.debounce.now = func() time.Time { return base }

	intent := models.NotificationIntent{
		Kind:        models.EventStatusChange,
		RecipientID: "teacher-1",
		Email:       "teacher@example.com",
		Payload:     map[string]string{"new_status": "reviewed"},
	}
	svc.Notify(context.Background(), intent)
	svc.debounce.now = func() time.Time { return base.Add(61 * time.Second) }
	svc.Notify(context.Background(), intent)

	require.Equal(t, 2, store.created())
}

func TestNotifyDropsInvalidEmail(t *testing.T) {
	store := newNotificationStoreStub()
	svc := newTestDispatcher(store, nil, nil, nil)

	svc.Notify(context.Background(), models.NotificationIntent{
		Kind:        models.EventStatusChange,
		RecipientID: "teacher-1",
		Email:       "not-an-email",
	})
	require.Zero(t, store.created())
}

func TestProcessQueueSendsPendingRows(t *testing.T) {
	store := newNotificationStoreStub()
	sender := &senderStub{}
	svc := newTestDispatcher(store, nil, &counterStub{count: 3}, sender)

	store.seed(models.Notification{
		ID: "n-1", Kind: models.EventCandidateMatch, RecipientID: "school-user-1",
		Email: "school@example.com", Template: "candidate-match",
		Payload: models.PayloadMap{"job_id": "job-1", "job_title": "Math Teacher"},
		Status:  models.NotificationStatusPending,
	})

	stats, err := svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{Processed: 1, Succeeded: 1}, stats)
	require.Equal(t, models.NotificationStatusSent, store.statusOf("n-1"))
	require.Equal(t, 1, sender.sentCount())
	// Aggregate fields are recomputed at send time.
	require.Equal(t, "3", sender.lastData["new_count"])
}

func TestProcessQueueCancelsOptedOutRecipient(t *testing.T) {
	store := newNotificationStoreStub()
	prefs := &preferenceStub{disabled: map[string]bool{"teacher-1:job-match": true}}
	sender := &senderStub{}
	svc := newTestDispatcher(store, prefs, nil, sender)

	store.seed(models.Notification{
		ID: "n-1", Kind: models.EventJobMatch, RecipientID: "teacher-1",
		Email: "teacher@example.com", Template: "job-match",
		Status: models.NotificationStatusPending,
	})

	stats, err := svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{Processed: 1}, stats)
	require.Equal(t, models.NotificationStatusCancelled, store.statusOf("n-1"))
	require.Zero(t, sender.sentCount())
}

func TestProcessQueueMarksSendFailureTerminal(t *testing.T) {
	store := newNotificationStoreStub()
	sender := &senderStub{sendErr: errors.New("smtp: connection refused")}
	svc := newTestDispatcher(store, nil, nil, sender)

	store.seed(models.Notification{
		ID: "n-1", Kind: models.EventStatusChange, RecipientID: "teacher-1",
		Email: "teacher@example.com", Template: "status-change",
		Status: models.NotificationStatusPending,
	})

	stats, err := svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{Processed: 1, Failed: 1}, stats)
	require.Equal(t, models.NotificationStatusFailed, store.statusOf("n-1"))

	// Failed rows stay failed: the next pass never re-attempts them.
	stats, err = svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{}, stats)
	require.Equal(t, models.NotificationStatusFailed, store.statusOf("n-1"))
}

func TestProcessQueueSkipsRowClaimedElsewhere(t *testing.T) {
	store := newNotificationStoreStub()
	store.denyClaim = true
	sender := &senderStub{}
	svc := newTestDispatcher(store, nil, nil, sender)

	store.seed(models.Notification{
		ID: "n-1", Kind: models.EventStatusChange, RecipientID: "teacher-1",
		Email: "teacher@example.com", Template: "status-change",
		Status: models.NotificationStatusPending,
	})

	// A concurrent processor won the claim between list and delivery: the row
	// is neither sent nor finalized here, and no message goes out.
	stats, err := svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{Processed: 1}, stats)
	require.Zero(t, sender.sentCount())
	require.Equal(t, models.NotificationStatusPending, store.statusOf("n-1"))
}

func TestProcessQueuePreferenceErrorDefaultsToOptedIn(t *testing.T) {
	store := newNotificationStoreStub()
	prefs := &preferenceStub{err: errors.New("prefs down")}
	sender := &senderStub{}
	svc := newTestDispatcher(store, prefs, nil, sender)

	store.seed(models.Notification{
		ID: "n-1", Kind: models.EventStatusChange, RecipientID: "teacher-1",
		Email: "teacher@example.com", Template: "status-change",
		Status: models.NotificationStatusPending,
	})

	stats, err := svc.ProcessQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, models.QueueStats{Processed: 1, Succeeded: 1}, stats)
	require.Equal(t, 1, sender.sentCount())
}

func TestProcessQueueListFailure(t *testing.T) {
	store := newNotificationStoreStub()
	store.listErr = errors.New("db down")
	svc := newTestDispatcher(store, nil, nil, nil)

	_, err := svc.ProcessQueue(context.Background(), 10)
	require.Error(t, err)
}

func TestDebouncerIsolatedPerInstance(t *testing.T) {
	a := NewDebouncer(time.Minute)
	b := NewDebouncer(time.Minute)

	require.True(t, a.ShouldFire("k"))
	require.False(t, a.ShouldFire("k"))
	require.True(t, b.ShouldFire("k"))
}
