package http

import (
	"fmt"

	"contas/internal/core"
	"contas/internal/storage"
)

// transactionJSON is the wire shape of a ledger row. Amounts travel as
// integer cents, dates as ISO "2006-01-02" strings.
type transactionJSON struct {
	ID            string          `json:"id"`
	WorkspaceID   string          `json:"workspace_id"`
	Description   string          `json:"description"`
	AmountCents   int64           `json:"amount_cents"`
	Date          string          `json:"date"`
	Type          string          `json:"type"`
	CategoryID    string          `json:"category_id,omitempty"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
	UserID        string          `json:"user_id,omitempty"`
	SeriesID      string          `json:"series_id,omitempty"`
	Recurrence    *recurrenceJSON `json:"recurrence,omitempty"`
	BeneficiaryID string          `json:"beneficiary_id,omitempty"`
	AttachmentURL string          `json:"attachment_url,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	TransferToID  string          `json:"transfer_to_id,omitempty"`
}

type recurrenceJSON struct {
	Frequency string `json:"frequency"`
	EndDate   string `json:"end_date,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:            t.ID,
		WorkspaceID:   t.WorkspaceID,
		Description:   t.Description,
		AmountCents:   t.Amount.Cents,
		Date:          t.Date.ISO(),
		Type:          string(t.Type),
		CategoryID:    t.CategoryID,
		Status:        string(t.Status),
		PaymentMethod: string(t.PaymentMethod),
		AccountID:     t.AccountID,
		UserID:        t.UserID,
		SeriesID:      t.SeriesID,
		BeneficiaryID: t.BeneficiaryID,
		AttachmentURL: t.AttachmentURL,
		Tags:          t.Tags,
		TransferToID:  t.TransferToID,
	}
	if t.Recurrence != nil {
		out.Recurrence = &recurrenceJSON{Frequency: string(t.Recurrence.Frequency)}
		if !t.Recurrence.EndDate.IsZero() {
			out.Recurrence.EndDate = t.Recurrence.EndDate.ISO()
		}
	}
	return out
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, t := range txs {
		out[i] = toTransactionJSON(t)
	}
	return out
}

// createTransactionRequest is the POST body. Installments >= 2 on an
// expense expands the row into a monthly series.
type createTransactionRequest struct {
	transactionJSON
	Installments int `json:"installments,omitempty"`
}

func (req createTransactionRequest) toCore(workspace, user string) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q", req.Date)
	}

	t := core.Transaction{
		WorkspaceID:   workspace,
		Description:   sanitizeInput(req.Description),
		Amount:        core.Money{Cents: req.AmountCents},
		Date:          date,
		Type:          core.TransactionType(req.Type),
		CategoryID:    req.CategoryID,
		Status:        core.TransactionStatus(req.Status),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		AccountID:     req.AccountID,
		UserID:        user,
		BeneficiaryID: req.BeneficiaryID,
		Tags:          req.Tags,
		TransferToID:  req.TransferToID,
	}
	if t.Status == "" {
		t.Status = core.Pending
	}
	if req.Recurrence != nil {
		rec := &core.Recurrence{Frequency: core.Frequency(req.Recurrence.Frequency)}
		if req.Recurrence.EndDate != "" {
			end, err := core.ParseDate(req.Recurrence.EndDate)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("invalid recurrence end date %q", req.Recurrence.EndDate)
			}
			rec.EndDate = end
		}
		t.Recurrence = rec
	}
	return t, nil
}

// patchTransactionRequest mirrors storage.TransactionPatch on the wire:
// absent fields stay untouched.
type patchTransactionRequest struct {
	Description   *string   `json:"description"`
	AmountCents   *int64    `json:"amount_cents"`
	Date          *string   `json:"date"`
	CategoryID    *string   `json:"category_id"`
	Status        *string   `json:"status"`
	PaymentMethod *string   `json:"payment_method"`
	AccountID     *string   `json:"account_id"`
	BeneficiaryID *string   `json:"beneficiary_id"`
	Tags          *[]string `json:"tags"`
}

func (req patchTransactionRequest) toPatch() (storage.TransactionPatch, error) {
	var p storage.TransactionPatch
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		p.Description = &desc
	}
	if req.AmountCents != nil {
		p.Amount = &core.Money{Cents: *req.AmountCents}
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return p, fmt.Errorf("invalid date %q", *req.Date)
		}
		p.Date = &date
	}
	if req.CategoryID != nil {
		p.CategoryID = req.CategoryID
	}
	if req.Status != nil {
		status := core.TransactionStatus(*req.Status)
		p.Status = &status
	}
	if req.PaymentMethod != nil {
		method := core.PaymentMethod(*req.PaymentMethod)
		p.PaymentMethod = &method
	}
	if req.AccountID != nil {
		p.AccountID = req.AccountID
	}
	if req.BeneficiaryID != nil {
		p.BeneficiaryID = req.BeneficiaryID
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	return p, nil
}

type categoryJSON struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Color       string `json:"color,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Type:        string(c.Type),
		Color:       c.Color,
		ParentID:    c.ParentID,
	}
}

type accountJSON struct {
	ID                  string `json:"id"`
	WorkspaceID         string `json:"workspace_id"`
	Name                string `json:"name"`
	CreditLimitCents    int64  `json:"credit_limit_cents"`
	ClosingDay          int    `json:"closing_day"`
	DueDay              int    `json:"due_day"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:                  a.ID,
		WorkspaceID:         a.WorkspaceID,
		Name:                a.Name,
		CreditLimitCents:    a.CreditLimit.Cents,
		ClosingDay:          a.ClosingDay,
		DueDay:              a.DueDay,
		InitialBalanceCents: a.InitialBalance.Cents,
	}
}

type summaryJSON struct {
	IncomeCents    int64 `json:"income_cents"`
	ExpenseCents   int64 `json:"expense_cents"`
	BalanceCents   int64 `json:"balance_cents"`
	PredictedCents int64 `json:"predicted_cents"`
}

type budgetProgressJSON struct {
	BudgetID     string  `json:"budget_id"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	LimitCents   int64   `json:"limit_cents"`
	SpentCents   int64   `json:"spent_cents"`
	Percentage   float64 `json:"percentage"`
}

type invoiceJSON struct {
	AccountID           string `json:"account_id"`
	Period              string `json:"period"`
	OpenInvoiceCents    int64  `json:"open_invoice_cents"`
	AvailableLimitCents int64  `json:"available_limit_cents"`
}

type previewItemJSON struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	CategoryID  string `json:"category_id,omitempty"`
}

func toPreviewJSON(items []core.PreviewItem) []previewItemJSON {
	out := make([]previewItemJSON, len(items))
	for i, item := range items {
		out[i] = previewItemJSON{
			Date:        item.Date.ISO(),
			Description: item.Description,
			AmountCents: item.Amount.Cents,
			Type:        string(item.Type),
			CategoryID:  item.CategoryID,
		}
	}
	return out
}

func fromPreviewJSON(items []previewItemJSON) ([]core.PreviewItem, error) {
	out := make([]core.PreviewItem, len(items))
	for i, item := range items {
		date, err := core.ParseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", item.Date)
		}
		out[i] = core.PreviewItem{
			Date:        date,
			Description: item.Description,
			Amount:      core.Money{Cents: item.AmountCents},
			Type:        core.TransactionType(item.Type),
			CategoryID:  item.CategoryID,
		}
	}
	return out, nil
}
