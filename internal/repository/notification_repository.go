package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolhire/match-api/internal/models"
)

// NotificationRepository manages the outbound notification queue.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, kind, recipient_id, email, template, payload, status, error, created_at, sent_at`

// Create queues a pending notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO notifications (id, kind, recipient_id, email, template, payload, status, created_at)
		VALUES (:id, :kind, :recipient_id, :email, :template, :payload, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID fetches a queued notification.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListPending returns up to limit pending rows, oldest first. Rows claimed
// by an in-flight delivery are excluded along with the terminal states.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1`, notificationColumns)
	var rows []models.Notification
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return rows, nil
}

// MarkSending claims a pending row for delivery. Exactly one of the
// competing processors wins the claim; the rest see false and skip the row.
func (r *NotificationRepository) MarkSending(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE notifications SET status = 'sending' WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark notification sending: %w", err)
	}
	return claimed(res), nil
}

// MarkSent finalizes a claimed row as sent.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE notifications SET status = 'sent', sent_at = $2 WHERE id = $1 AND status = 'sending'`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark notification sent: %w", err)
	}
	return claimed(res), nil
}

// MarkFailed finalizes a claimed row as failed, retaining the error message.
// Failed is terminal: the processor never re-attempts these rows.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, errMsg string) (bool, error) {
	const query = `UPDATE notifications SET status = 'failed', error = $2 WHERE id = $1 AND status = 'sending'`
	res, err := r.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return false, fmt.Errorf("mark notification failed: %w", err)
	}
	return claimed(res), nil
}

// MarkCancelled finalizes a claimed row whose recipient opted out.
// Cancelled is a terminal state, not an error.
func (r *NotificationRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE notifications SET status = 'cancelled' WHERE id = $1 AND status = 'sending'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark notification cancelled: %w", err)
	}
	return claimed(res), nil
}

func claimed(res interface{ RowsAffected() (int64, error) }) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
