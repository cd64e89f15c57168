package amqp

import (
	"encoding/json"
	"time"
)

type EventKind string

const (
	EventCreated EventKind = "transaction.created"
	EventUpdated EventKind = "transaction.updated"
	EventDeleted EventKind = "transaction.deleted"
)

// ChangeEvent announces a committed ledger write. It carries only IDs;
// consumers refetch what they need, so a stale event can never overwrite
// fresher state.
type ChangeEvent struct {
	Kind        EventKind `json:"kind"`
	WorkspaceID string    `json:"workspace_id"`
	IDs         []string  `json:"ids"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewChangeEvent(kind EventKind, workspaceID string, ids []string) *ChangeEvent {
	return &ChangeEvent{
		Kind:        kind,
		WorkspaceID: workspaceID,
		IDs:         ids,
		Timestamp:   time.Now(),
	}
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

type NotificationKind string

const (
	NotifyOverdue  NotificationKind = "overdue"
	NotifyDueToday NotificationKind = "due_today"
)

// Notification is a reminder about a pending expense, published by the
// reminder worker for delivery channels to pick up.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	WorkspaceID   string           `json:"workspace_id"`
	TransactionID string           `json:"transaction_id"`
	Description   string           `json:"description"`
	AmountCents   int64            `json:"amount_cents"`
	DueDate       string           `json:"due_date"`
	Timestamp     time.Time        `json:"timestamp"`
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

func NotificationFromJSON(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
