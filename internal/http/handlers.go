package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"contas/internal/core"
	"contas/internal/storage"
)

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	workspace, err := s.reader.EnsureDefaultWorkspace(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Workspace bootstrap error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}
	writeJSON(w, http.StatusOK, workspace)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var m core.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if m.UserID == "" {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}
	if m.Role == "" {
		m.Role = core.RoleMember
	}

	if _, err := s.reader.GetWorkspace(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		slog.ErrorContext(r.Context(), "Workspace lookup error", "error", err, "workspace_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load workspace")
		return
	}

	// Only existing members can invite.
	member, err := s.reader.IsMember(r.Context(), id, userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Membership check error", "error", err, "workspace_id", id)
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "not a member of this workspace")
		return
	}

	if err := s.reader.AddMember(r.Context(), id, m); err != nil {
		slog.ErrorContext(r.Context(), "Add member error", "error", err, "workspace_id", id)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.reader.ListWorkspacesForUser(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List workspaces error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}

	cats, err := s.reader.ListCategories(r.Context(), ws)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = toCategoryJSON(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkspaceID == "" || sanitizeInput(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "workspace_id and name are required")
		return
	}
	typ := core.TransactionType(req.Type)
	if typ != core.Income && typ != core.Expense {
		writeError(w, http.StatusUnprocessableEntity, "type must be income or expense")
		return
	}

	created, err := s.reader.CreateCategory(r.Context(), core.Category{
		WorkspaceID: req.WorkspaceID,
		Name:        sanitizeInput(req.Name),
		Type:        typ,
		Color:       req.Color,
		ParentID:    req.ParentID,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category error", "error", err, "workspace_id", req.WorkspaceID)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}
	id := r.PathValue("id")

	if err := s.reader.DeleteCategory(r.Context(), ws, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete category error", "error", err, "category_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}

	accounts, err := s.reader.ListAccounts(r.Context(), ws)
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	out := make([]accountJSON, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountJSON(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkspaceID == "" || sanitizeInput(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "workspace_id and name are required")
		return
	}
	if req.ClosingDay < 0 || req.ClosingDay > 31 || req.DueDay < 0 || req.DueDay > 31 {
		writeError(w, http.StatusUnprocessableEntity, "closing_day and due_day must be within 1-31")
		return
	}

	created, err := s.reader.CreateAccount(r.Context(), core.Account{
		WorkspaceID:    req.WorkspaceID,
		Name:           sanitizeInput(req.Name),
		CreditLimit:    core.Money{Cents: req.CreditLimitCents},
		ClosingDay:     req.ClosingDay,
		DueDay:         req.DueDay,
		InitialBalance: core.Money{Cents: req.InitialBalanceCents},
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create account error", "error", err, "workspace_id", req.WorkspaceID)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(created))
}

// handleSummary serves the month's financial summary: realized income,
// expense and balance over completed rows, predicted balance over all rows.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}
	year, month := yearMonth(r)

	key := cacheKey(ws, year, month)
	if summary, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "workspace_id", ws, "key", key)
		writeSummary(w, summary)
		return
	}

	txs, err := s.monthTransactions(r.Context(), ws, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	start, end := core.MonthRange(year, month)
	summary := core.Summarize(core.ScopedTransactions(txs, ws, start, end))
	s.summaryCache.Set(key, summary)
	writeSummary(w, summary)
}

func writeSummary(w http.ResponseWriter, summary core.Summary) {
	writeJSON(w, http.StatusOK, summaryJSON{
		IncomeCents:    summary.Income.Cents,
		ExpenseCents:   summary.Expense.Cents,
		BalanceCents:   summary.Balance.Cents,
		PredictedCents: summary.Predicted.Cents,
	})
}

// handleBudgetProgress reports each budget's spent/limit for the month.
func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}
	year, month := yearMonth(r)

	budgets, err := s.reader.ListBudgets(r.Context(), ws)
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}
	categories, err := s.reader.ListCategories(r.Context(), ws)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	txs, err := s.monthTransactions(r.Context(), ws, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget progress error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to compute budget progress")
		return
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	start, end := core.MonthRange(year, month)
	out := make([]budgetProgressJSON, 0, len(budgets))
	for _, b := range budgets {
		progress := core.ComputeBudgetProgress(txs, b.CategoryID, b.Amount, start, end)
		out = append(out, budgetProgressJSON{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: names[b.CategoryID],
			LimitCents:   b.Amount.Cents,
			SpentCents:   progress.Spent.Cents,
			Percentage:   progress.Percentage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspace_id"`
		CategoryID  string `json:"category_id"`
		AmountCents int64  `json:"amount_cents"`
		Period      string `json:"period"`
		Rollover    bool   `json:"rollover"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WorkspaceID == "" || req.CategoryID == "" {
		writeError(w, http.StatusUnprocessableEntity, "workspace_id and category_id are required")
		return
	}
	period := core.BudgetPeriod(req.Period)
	if period == "" {
		period = core.PeriodMonthly
	}

	budget, err := s.reader.UpsertBudget(r.Context(), core.Budget{
		WorkspaceID: req.WorkspaceID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: req.AmountCents},
		Period:      period,
		Rollover:    req.Rollover,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Upsert budget error", "error", err, "workspace_id", req.WorkspaceID)
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}
	id := r.PathValue("id")

	if err := s.reader.DeleteBudget(r.Context(), ws, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete budget error", "error", err, "budget_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleInvoice reports a credit account's open invoice. The period anchors
// to today's real date, never to a browsed month.
func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	accountID := r.URL.Query().Get("account")
	if ws == "" || accountID == "" {
		writeError(w, http.StatusBadRequest, "workspace and account are required")
		return
	}

	account, err := s.reader.GetAccount(r.Context(), ws, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.ErrorContext(r.Context(), "Account lookup error", "error", err, "account_id", accountID)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	txs, err := s.reader.ListTransactions(r.Context(), ws, core.Date{}, core.Date{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Invoice listing error", "error", err, "account_id", accountID)
		writeError(w, http.StatusInternalServerError, "failed to compute invoice")
		return
	}

	today := core.DateOf(time.Now())
	open := core.OpenInvoiceTotal(txs, account.ID, account.ClosingDay, today)
	available := core.AvailableLimit(account.CreditLimit, txs, account.ID, account.ClosingDay, today)

	writeJSON(w, http.StatusOK, invoiceJSON{
		AccountID:           account.ID,
		Period:              core.InvoicePeriodOf(today, account.ClosingDay).ISO(),
		OpenInvoiceCents:    open.Cents,
		AvailableLimitCents: available.Cents,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}
	year, month := yearMonth(r)

	txs, err := s.monthTransactions(r.Context(), ws, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionsJSON(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := req.toCore(ws, userID(r))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.txService.Create(r.Context(), t, req.Installments)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrEmptyDescription) ||
			errors.Is(err, core.ErrMissingCategory) || errors.Is(err, core.ErrInvalidType) ||
			errors.Is(err, core.ErrInvalidFrequency) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	s.invalidateMonths(ws, created)
	writeJSON(w, http.StatusCreated, toTransactionsJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req patchTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.txService.Update(r.Context(), id, patch, boolQuery(r, "applyToSeries"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	if len(updated) > 0 {
		s.invalidateWorkspace(updated[0].WorkspaceID)
	}
	writeJSON(w, http.StatusOK, toTransactionsJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := s.txService.Delete(r.Context(), id, boolQuery(r, "applyToSeries"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	// The rows are gone; dates are no longer loadable, drop everything.
	if ws := workspaceID(r); ws != "" {
		s.invalidateWorkspace(ws)
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	toggled, err := s.txService.ToggleStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Toggle status error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to toggle status")
		return
	}

	s.invalidateMonths(toggled.WorkspaceID, []core.Transaction{toggled})
	writeJSON(w, http.StatusOK, toTransactionJSON(toggled))
}

// handleAttachment stores a multipart attachment and records its URL.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	updated, err := s.txService.AttachReceipt(r.Context(), id, header.Filename, contentType, file)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Attachment upload error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return
	}

	s.invalidateMonths(updated.WorkspaceID, []core.Transaction{updated})
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

// handleImportPreview classifies a raw statement without persisting anything.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}

	items, err := s.importer.Preview(r.Context(), ws, r.Body)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import preview error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to preview statement")
		return
	}
	writeJSON(w, http.StatusOK, toPreviewJSON(items))
}

// handleImportConfirm persists confirmed preview items and reports the count.
func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	ws := workspaceID(r)
	if ws == "" {
		writeError(w, http.StatusBadRequest, "workspace is required")
		return
	}

	var items []previewItemJSON
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	confirmed, err := fromPreviewJSON(items)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	count, err := s.importer.Confirm(r.Context(), ws, userID(r), confirmed)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import confirm error", "error", err, "workspace_id", ws)
		writeError(w, http.StatusInternalServerError, "failed to import statement")
		return
	}

	s.invalidateWorkspace(ws)
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
