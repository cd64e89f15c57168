package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/filestore"
	"contas/internal/storage"

	"github.com/google/uuid"
)

// TransactionStore is the slice of the repository the transaction service
// writes through.
type TransactionStore interface {
	InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, p storage.TransactionPatch, applyToSeries bool) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string, applyToSeries bool) ([]string, error)
}

// ChangePublisher announces committed writes on the change feed.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *amqp.ChangeEvent) error
}

// TransactionService orchestrates ledger writes: expansion, persistence and
// change feed publishing. Every method returns exactly the rows it touched.
type TransactionService struct {
	store     TransactionStore
	publisher ChangePublisher
	blobs     filestore.BlobStore
}

func NewTransactionService(store TransactionStore, publisher ChangePublisher, blobs filestore.BlobStore) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		blobs:     blobs,
	}
}

// Create persists a transaction. An expense with installments >= 2 expands
// into one row per month sharing a fresh series ID; installment expansion
// wins over a recurrence tag on the same request. A recurring transaction
// stays a single tagged row, occurrences are never materialized in advance.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, installments int) ([]core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}

	var batch []core.Transaction
	switch {
	case installments >= 2 && t.Type == core.Expense:
		t.SeriesID = uuid.NewString()
		t.Recurrence = nil
		batch = core.ExpandInstallments(t, installments, t.Status == core.Completed)
	case t.Recurrence != nil:
		t.SeriesID = uuid.NewString()
		batch = []core.Transaction{t}
	default:
		batch = []core.Transaction{t}
	}

	created, err := s.store.InsertTransactions(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("insert transactions: %w", err)
	}

	s.publishChange(ctx, amqp.EventCreated, t.WorkspaceID, transactionIDs(created))
	return created, nil
}

// Update applies the patch, fanning out to later series rows when
// applyToSeries is set. Returns the changed rows.
func (s *TransactionService) Update(ctx context.Context, id string, p storage.TransactionPatch, applyToSeries bool) ([]core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, id, p, applyToSeries)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if len(updated) > 0 {
		s.publishChange(ctx, amqp.EventUpdated, updated[0].WorkspaceID, transactionIDs(updated))
	}
	return updated, nil
}

// Delete removes the row, or the row and its later series siblings. Returns
// the removed IDs.
func (s *TransactionService) Delete(ctx context.Context, id string, applyToSeries bool) ([]string, error) {
	target, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}

	deleted, err := s.store.DeleteTransaction(ctx, id, applyToSeries)
	if err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}

	s.publishChange(ctx, amqp.EventDeleted, target.WorkspaceID, deleted)
	return deleted, nil
}

// ToggleStatus flips a row between pending and completed.
func (s *TransactionService) ToggleStatus(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	next := core.Completed
	if t.Status == core.Completed {
		next = core.Pending
	}

	updated, err := s.store.UpdateTransaction(ctx, id, storage.TransactionPatch{Status: &next}, false)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("toggle status: %w", err)
	}

	s.publishChange(ctx, amqp.EventUpdated, t.WorkspaceID, []string{id})
	return updated[0], nil
}

// AttachReceipt stores the attachment and records its URL on the row.
func (s *TransactionService) AttachReceipt(ctx context.Context, id, filename, contentType string, r io.Reader) (core.Transaction, error) {
	if s.blobs == nil {
		return core.Transaction{}, fmt.Errorf("no attachment store configured")
	}

	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	objectName := path.Join(t.WorkspaceID, id, filename)
	url, err := s.blobs.Upload(ctx, objectName, contentType, r)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("upload attachment: %w", err)
	}

	updated, err := s.store.UpdateTransaction(ctx, id, storage.TransactionPatch{AttachmentURL: &url}, false)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record attachment url: %w", err)
	}

	s.publishChange(ctx, amqp.EventUpdated, t.WorkspaceID, []string{id})
	return updated[0], nil
}

// publishChange is non-blocking for the caller's purposes: the write already
// committed, a feed failure only costs realtime freshness.
func (s *TransactionService) publishChange(ctx context.Context, kind amqp.EventKind, workspaceID string, ids []string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Change publisher not available, skipping event", "kind", kind)
		return
	}
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeEvent(kind, workspaceID, ids)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"kind", kind,
			"workspace_id", workspaceID,
			"error", err)
	}
}

func transactionIDs(txs []core.Transaction) []string {
	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}
	return ids
}
