package models

import (
	"fmt"
	"time"
)

// EventKind classifies a notification-worthy state change.
type EventKind string

const (
	EventCandidateMatch EventKind = "candidate-match"
	EventJobMatch       EventKind = "job-match"
	EventStatusChange   EventKind = "status-change"
)

// NotificationStatus is the delivery lifecycle of a queued notification.
// A processor claims a pending row into sending before any delivery work;
// failed and cancelled are terminal and never re-attempted.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSending   NotificationStatus = "sending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusFailed    NotificationStatus = "failed"
	NotificationStatusCancelled NotificationStatus = "cancelled"
)

// NotificationIntent is the ephemeral description of a state change handed
// to the dispatcher. Intents are never persisted as-is; the dispatcher either
// queues a notification row or drops the intent.
type NotificationIntent struct {
	Kind        EventKind
	RecipientID string
	Email       string
	Payload     map[string]string
}

// DebounceKey builds the cool-down key scoping this intent. Events sharing a
// key within the debounce window collapse into a single send.
func (i NotificationIntent) DebounceKey() string {
	switch i.Kind {
	case EventCandidateMatch:
		return fmt.Sprintf("%s:%s:%s", i.Kind, i.Payload["school_id"], i.Payload["job_id"])
	default:
		return fmt.Sprintf("%s:%s", i.Kind, i.RecipientID)
	}
}

// Notification is a queued outbound message.
type Notification struct {
	ID          string             `db:"id" json:"id"`
	Kind        EventKind          `db:"kind" json:"kind"`
	RecipientID string             `db:"recipient_id" json:"recipient_id"`
	Email       string             `db:"email" json:"email"`
	Template    string             `db:"template" json:"template"`
	Payload     PayloadMap         `db:"payload" json:"payload"`
	Status      NotificationStatus `db:"status" json:"status"`
	Error       *string            `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	SentAt      *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
}

// NotificationPreference records a recipient's opt-in state per event kind.
// Absence of a row means opted in.
type NotificationPreference struct {
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Kind        EventKind `db:"kind" json:"kind"`
	Enabled     bool      `db:"enabled" json:"enabled"`
}

// QueueStats summarizes one ProcessQueue pass.
type QueueStats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
