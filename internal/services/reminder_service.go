package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
)

// ReminderStore is the read slice the reminder sweep needs.
type ReminderStore interface {
	ListWorkspaces(ctx context.Context) ([]core.Workspace, error)
	ListTransactions(ctx context.Context, workspaceID string, start, end core.Date) ([]core.Transaction, error)
}

// NotificationPublisher queues reminders for delivery.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *amqp.Notification) error
}

// ReminderService sweeps every workspace for pending expenses that are
// overdue or due today, including occurrences projected from recurring
// heads, and publishes one notification per hit.
type ReminderService struct {
	store     ReminderStore
	publisher NotificationPublisher
}

func NewReminderService(store ReminderStore, publisher NotificationPublisher) *ReminderService {
	return &ReminderService{store: store, publisher: publisher}
}

// Sweep runs one pass anchored on now's calendar date and returns how many
// notifications went out.
func (s *ReminderService) Sweep(ctx context.Context, now time.Time) (int, error) {
	today := core.DateOf(now)

	workspaces, err := s.store.ListWorkspaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("list workspaces: %w", err)
	}

	sent := 0
	for _, w := range workspaces {
		txs, err := s.store.ListTransactions(ctx, w.ID, core.Date{}, today)
		if err != nil {
			return sent, fmt.Errorf("list transactions for %s: %w", w.ID, err)
		}

		for _, t := range txs {
			n, ok := reminderFor(t, today)
			if !ok {
				continue
			}
			if err := s.publisher.PublishNotification(ctx, n); err != nil {
				slog.ErrorContext(ctx, "Failed to publish reminder",
					"workspace_id", w.ID,
					"transaction_id", t.ID,
					"error", err)
				continue
			}
			sent++
		}
	}

	slog.InfoContext(ctx, "Reminder sweep completed", "sent", sent)
	return sent, nil
}

// reminderFor decides whether a single row warrants a notification today.
// Pending expenses dated before today are overdue; dated today, due today.
// A recurring head additionally comes due whenever the projection lands an
// occurrence on today, regardless of the head's own date.
func reminderFor(t core.Transaction, today core.Date) (*amqp.Notification, bool) {
	if t.Type != core.Expense || t.Status != core.Pending {
		return nil, false
	}

	base := &amqp.Notification{
		WorkspaceID:   t.WorkspaceID,
		TransactionID: t.ID,
		Description:   t.Description,
		AmountCents:   t.Amount.Cents,
		Timestamp:     time.Now(),
	}

	if t.Recurrence != nil {
		due, ok := core.DueOccurrence(t, today)
		if !ok {
			return nil, false
		}
		base.Kind = amqp.NotifyDueToday
		base.DueDate = due.ISO()
		return base, true
	}

	switch {
	case t.Date.Before(today.Time):
		base.Kind = amqp.NotifyOverdue
	case t.Date.Equal(today.Time):
		base.Kind = amqp.NotifyDueToday
	default:
		return nil, false
	}
	base.DueDate = t.Date.ISO()
	return base, true
}
