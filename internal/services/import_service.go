package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
)

// ImportStore is the slice of the repository the statement importer needs.
type ImportStore interface {
	ListCategories(ctx context.Context, workspaceID string) ([]core.Category, error)
	ListImportRules(ctx context.Context, workspaceID string) ([]core.ImportRule, error)
	InsertImportRules(ctx context.Context, workspaceID string, rules []core.ImportRule) error
	InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
}

// ImportService turns raw bank statements into classified preview items and,
// after user confirmation, into ledger rows plus learned rules.
type ImportService struct {
	store     ImportStore
	publisher ChangePublisher
}

func NewImportService(store ImportStore, publisher ChangePublisher) *ImportService {
	return &ImportService{store: store, publisher: publisher}
}

// Preview parses the statement and classifies each row against the
// workspace's learned rules and category names. Malformed rows never appear
// in the preview.
func (s *ImportService) Preview(ctx context.Context, workspaceID string, r io.Reader) ([]core.PreviewItem, error) {
	rows, err := core.ParseStatement(r)
	if err != nil {
		return nil, fmt.Errorf("parse statement: %w", err)
	}

	rules, err := s.store.ListImportRules(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list import rules: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	items := core.Classify(rows, rules, categories)

	slog.InfoContext(ctx, "Statement previewed",
		"workspace_id", workspaceID,
		"rows", len(items))
	return items, nil
}

// Confirm persists the confirmed items as completed debit transactions and
// learns rules from the category assignments. Items an earlier edit left
// invalid (no category on an income/expense row) are skipped, mirroring the
// parser's silent-skip contract. Returns only the imported count.
func (s *ImportService) Confirm(ctx context.Context, workspaceID, userID string, items []core.PreviewItem) (int, error) {
	var batch []core.Transaction
	for _, item := range items {
		t := core.Transaction{
			WorkspaceID:   workspaceID,
			Description:   item.Description,
			Amount:        item.Amount,
			Date:          item.Date,
			Type:          item.Type,
			CategoryID:    item.CategoryID,
			Status:        core.Completed,
			PaymentMethod: core.Debit,
			UserID:        userID,
		}
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid statement item",
				"description", item.Description,
				"error", err)
			continue
		}
		batch = append(batch, t)
	}

	created, err := s.store.InsertTransactions(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert imported transactions: %w", err)
	}

	existing, err := s.store.ListImportRules(ctx, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("list import rules: %w", err)
	}
	learned := core.LearnRules(items, existing)
	if len(learned) > 0 {
		if err := s.store.InsertImportRules(ctx, workspaceID, learned); err != nil {
			return 0, fmt.Errorf("store learned rules: %w", err)
		}
	}

	if s.publisher != nil && len(created) > 0 {
		event := amqp.NewChangeEvent(amqp.EventCreated, workspaceID, transactionIDs(created))
		if err := s.publisher.PublishChange(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish import event",
				"workspace_id", workspaceID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Statement imported",
		"workspace_id", workspaceID,
		"imported", len(created),
		"rules_learned", len(learned))
	return len(created), nil
}
