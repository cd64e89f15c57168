package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/filestore"
	"contas/internal/services"
	"contas/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	txSvc := services.NewTransactionService(repo, nil, filestore.NewMemoryStore())
	importSvc := services.NewImportService(repo, nil)
	return NewServer(":0", repo, txSvc, importSvc), repo
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

// bootstrap creates the default workspace and returns it with its
// expense categories indexed by name.
func bootstrap(t *testing.T, srv *Server) (core.Workspace, map[string]categoryJSON) {
	t.Helper()
	rr := doJSON(t, srv, http.MethodGet, "/api/workspace", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("workspace bootstrap status = %d: %s", rr.Code, rr.Body.String())
	}
	ws := decode[core.Workspace](t, rr)

	rr = doJSON(t, srv, http.MethodGet, "/api/categories?workspace="+ws.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list categories status = %d", rr.Code)
	}
	cats := make(map[string]categoryJSON)
	for _, c := range decode[[]categoryJSON](t, rr) {
		cats[c.Name] = c
	}
	return ws, cats
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestWorkspaceBootstrapIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)
	first := decode[core.Workspace](t, doJSON(t, srv, http.MethodGet, "/api/workspace", nil))
	second := decode[core.Workspace](t, doJSON(t, srv, http.MethodGet, "/api/workspace", nil))
	if first.ID == "" || first.ID != second.ID {
		t.Fatalf("bootstrap returned different workspaces: %q vs %q", first.ID, second.ID)
	}
	if len(first.Members) != 1 || first.Members[0].Role != core.RoleAdmin {
		t.Fatalf("unexpected members: %+v", first.Members)
	}
}

func TestAddMember(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, _ := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/workspaces/"+ws.ID+"/members",
		map[string]string{"UserID": "ana", "Role": "member"})
	if rr.Code != http.StatusOK {
		t.Fatalf("add member status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/workspaces/missing/members",
		map[string]string{"UserID": "ana"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("add member to missing workspace status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/workspaces/"+ws.ID+"/members", map[string]string{})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("add member without user status = %d", rr.Code)
	}

	// A stranger cannot invite themselves in.
	body, _ := json.Marshal(map[string]string{"UserID": "eve"})
	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/members", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "eve")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger invite status = %d, want 403", rec.Code)
	}
}

func TestListWorkspaces(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, _ := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodGet, "/api/workspaces", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list workspaces status = %d: %s", rr.Code, rr.Body.String())
	}
	list := decode[[]core.Workspace](t, rr)
	if len(list) != 1 || list[0].ID != ws.ID {
		t.Fatalf("workspaces = %+v, want just %q", list, ws.ID)
	}

	// A user with no memberships sees an empty list.
	req := httptest.NewRequest(http.MethodGet, "/api/workspaces", nil)
	req.Header.Set("X-User-ID", "nobody")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if got := decode[[]core.Workspace](t, rec); len(got) != 0 {
		t.Fatalf("stranger workspaces = %+v, want none", got)
	}
}

func TestDeleteCategoryAndBudget(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)
	target := cats["Lazer"]

	rr := doJSON(t, srv, http.MethodPut, "/api/budgets", map[string]any{
		"workspace_id": ws.ID,
		"category_id":  target.ID,
		"amount_cents": 50000,
	})
	budget := decode[core.Budget](t, rr)

	rr = doJSON(t, srv, http.MethodDelete, "/api/budgets/"+budget.ID+"?workspace="+ws.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete budget status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodDelete, "/api/budgets/"+budget.ID+"?workspace="+ws.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("re-delete budget status = %d, want 404", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/categories/"+target.ID+"?workspace="+ws.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete category status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/categories?workspace="+ws.ID, nil)
	for _, c := range decode[[]categoryJSON](t, rr) {
		if c.ID == target.ID {
			t.Fatalf("category %q still listed after delete", target.Name)
		}
	}
}

func TestCreateTransactionAndSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)
	food := cats["Alimentação"]

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Mercado da semana",
			AmountCents: 25000,
			Date:        "2026-03-10",
			Type:        "expense",
			CategoryID:  food.ID,
			Status:      "completed",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[[]transactionJSON](t, rr)
	if len(created) != 1 || created[0].ID == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	salary := cats["Salário"]
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Salário",
			AmountCents: 500000,
			Date:        "2026-03-05",
			Type:        "income",
			CategoryID:  salary.ID,
			Status:      "completed",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income status = %d: %s", rr.Code, rr.Body.String())
	}

	// A pending expense counts only toward the predicted balance.
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Conta de luz",
			AmountCents: 18000,
			Date:        "2026-03-20",
			Type:        "expense",
			CategoryID:  cats["Moradia"].ID,
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create pending status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/summary?workspace="+ws.ID+"&year=2026&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rr.Code, rr.Body.String())
	}
	summary := decode[summaryJSON](t, rr)
	if summary.IncomeCents != 500000 || summary.ExpenseCents != 25000 {
		t.Fatalf("summary realized = %+v", summary)
	}
	if summary.BalanceCents != 475000 {
		t.Fatalf("summary balance = %d, want 475000", summary.BalanceCents)
	}
	if summary.PredictedCents != 457000 {
		t.Fatalf("summary predicted = %d, want 457000", summary.PredictedCents)
	}

	// Another month stays empty.
	rr = doJSON(t, srv, http.MethodGet, "/api/summary?workspace="+ws.ID+"&year=2026&month=4", nil)
	other := decode[summaryJSON](t, rr)
	if other.IncomeCents != 0 || other.ExpenseCents != 0 {
		t.Fatalf("april summary = %+v, want zeros", other)
	}
}

func TestSummaryCacheInvalidatedByWrite(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	target := "/api/summary?workspace=" + ws.ID + "&year=2026&month=3"
	if got := decode[summaryJSON](t, doJSON(t, srv, http.MethodGet, target, nil)); got.ExpenseCents != 0 {
		t.Fatalf("empty month expense = %d", got.ExpenseCents)
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Farmácia",
			AmountCents: 4200,
			Date:        "2026-03-15",
			Type:        "expense",
			CategoryID:  cats["Saúde"].ID,
			Status:      "completed",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}

	if got := decode[summaryJSON](t, doJSON(t, srv, http.MethodGet, target, nil)); got.ExpenseCents != 4200 {
		t.Fatalf("summary after write = %d, want 4200 (stale cache)", got.ExpenseCents)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	tests := []struct {
		name string
		req  createTransactionRequest
	}{
		{"zero amount", createTransactionRequest{transactionJSON: transactionJSON{
			Description: "x", AmountCents: 0, Date: "2026-03-01", Type: "expense", CategoryID: cats["Outros"].ID,
		}}},
		{"blank description", createTransactionRequest{transactionJSON: transactionJSON{
			Description: "   ", AmountCents: 100, Date: "2026-03-01", Type: "expense", CategoryID: cats["Outros"].ID,
		}}},
		{"missing category", createTransactionRequest{transactionJSON: transactionJSON{
			Description: "x", AmountCents: 100, Date: "2026-03-01", Type: "expense",
		}}},
		{"bad type", createTransactionRequest{transactionJSON: transactionJSON{
			Description: "x", AmountCents: 100, Date: "2026-03-01", Type: "loan", CategoryID: cats["Outros"].ID,
		}}},
		{"bad date", createTransactionRequest{transactionJSON: transactionJSON{
			Description: "x", AmountCents: 100, Date: "03/01/2026", Type: "expense", CategoryID: cats["Outros"].ID,
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, tt.req)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestInstallmentSeriesOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Notebook",
			AmountCents: 360000,
			Date:        "2026-01-31",
			Type:        "expense",
			CategoryID:  cats["Outros"].ID,
			Status:      "completed",
		},
		Installments: 3,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	rows := decode[[]transactionJSON](t, rr)
	if len(rows) != 3 {
		t.Fatalf("installments = %d rows, want 3", len(rows))
	}
	if rows[0].Description != "Notebook (1/3)" || rows[2].Description != "Notebook (3/3)" {
		t.Fatalf("descriptions = %q, %q", rows[0].Description, rows[2].Description)
	}
	// Each row carries the full amount and month-end dates clamp.
	for i, row := range rows {
		if row.AmountCents != 360000 {
			t.Fatalf("row %d amount = %d, want 360000", i, row.AmountCents)
		}
		if row.SeriesID != rows[0].SeriesID {
			t.Fatalf("row %d series = %q, want %q", i, row.SeriesID, rows[0].SeriesID)
		}
	}
	if rows[1].Date != "2026-02-28" {
		t.Fatalf("second installment date = %q, want 2026-02-28", rows[1].Date)
	}
	if rows[1].Status != "pending" {
		t.Fatalf("second installment status = %q, want pending", rows[1].Status)
	}

	// A series-wide category change keeps the per-row suffixes intact.
	newCat := cats["Lazer"].ID
	rr = doJSON(t, srv, http.MethodPatch,
		"/api/transactions/"+rows[1].ID+"?applyToSeries=true",
		map[string]any{"category_id": newCat})
	if rr.Code != http.StatusOK {
		t.Fatalf("series patch status = %d: %s", rr.Code, rr.Body.String())
	}
	updated := decode[[]transactionJSON](t, rr)
	if len(updated) != 2 {
		t.Fatalf("series patch touched %d rows, want 2", len(updated))
	}
	for _, row := range updated {
		if row.CategoryID != newCat {
			t.Fatalf("row %s category = %q, want %q", row.ID, row.CategoryID, newCat)
		}
		if !strings.Contains(row.Description, "Notebook (") {
			t.Fatalf("row %s lost its suffix: %q", row.ID, row.Description)
		}
	}
}

func TestDeleteSeriesTail(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Curso",
			AmountCents: 90000,
			Date:        "2026-02-10",
			Type:        "expense",
			CategoryID:  cats["Outros"].ID,
		},
		Installments: 4,
	})
	rows := decode[[]transactionJSON](t, rr)
	if len(rows) != 4 {
		t.Fatalf("installments = %d rows, want 4", len(rows))
	}

	rr = doJSON(t, srv, http.MethodDelete,
		"/api/transactions/"+rows[2].ID+"?workspace="+ws.ID+"&applyToSeries=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rr.Code, rr.Body.String())
	}
	deleted := decode[map[string][]string](t, rr)["deleted"]
	if len(deleted) != 2 {
		t.Fatalf("deleted %d rows, want 2", len(deleted))
	}

	rr = doJSON(t, srv, http.MethodGet,
		"/api/transactions?workspace="+ws.ID+"&year=2026&month=3", nil)
	march := decode[[]transactionJSON](t, rr)
	if len(march) != 1 {
		t.Fatalf("march rows = %d, want 1 survivor", len(march))
	}
}

func TestToggleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Internet",
			AmountCents: 9900,
			Date:        "2026-03-08",
			Type:        "expense",
			CategoryID:  cats["Moradia"].ID,
		},
	})
	id := decode[[]transactionJSON](t, rr)[0].ID

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions/"+id+"/toggle", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[transactionJSON](t, rr); got.Status != "completed" {
		t.Fatalf("toggled status = %q, want completed", got.Status)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions/missing/toggle", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("toggle missing status = %d, want 404", rr.Code)
	}
}

func TestBudgetProgress(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)
	food := cats["Alimentação"]

	rr := doJSON(t, srv, http.MethodPut, "/api/budgets", map[string]any{
		"workspace_id": ws.ID,
		"category_id":  food.ID,
		"amount_cents": 100000,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert budget status = %d: %s", rr.Code, rr.Body.String())
	}

	for _, tx := range []createTransactionRequest{
		{transactionJSON: transactionJSON{Description: "Mercado", AmountCents: 30000, Date: "2026-03-02", Type: "expense", CategoryID: food.ID, Status: "completed"}},
		{transactionJSON: transactionJSON{Description: "Padaria", AmountCents: 10000, Date: "2026-03-09", Type: "expense", CategoryID: food.ID}},
	} {
		if rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, tx); rr.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rr.Code)
		}
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets?workspace="+ws.ID+"&year=2026&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget progress status = %d: %s", rr.Code, rr.Body.String())
	}
	progress := decode[[]budgetProgressJSON](t, rr)
	if len(progress) != 1 {
		t.Fatalf("progress rows = %d, want 1", len(progress))
	}
	// Pending rows stay out of the spent figure.
	if progress[0].SpentCents != 30000 || progress[0].Percentage != 30 {
		t.Fatalf("progress = %+v", progress[0])
	}
	if progress[0].CategoryName != "Alimentação" {
		t.Fatalf("category name = %q", progress[0].CategoryName)
	}
}

func TestInvoiceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts", accountJSON{
		WorkspaceID:      ws.ID,
		Name:             "Cartão Nu",
		CreditLimitCents: 500000,
		ClosingDay:       5,
		DueDay:           12,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status = %d: %s", rr.Code, rr.Body.String())
	}
	account := decode[accountJSON](t, rr)

	// A card purchase inside the current invoice period.
	today := core.DateOf(time.Now())
	period := core.InvoicePeriodOf(today, 5)
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description:   "Jantar",
			AmountCents:   12000,
			Date:          period.ISO(),
			Type:          "expense",
			CategoryID:    cats["Alimentação"].ID,
			PaymentMethod: "credit",
			AccountID:     account.ID,
			Status:        "completed",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create card tx status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/invoices?workspace="+ws.ID+"&account="+account.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("invoice status = %d: %s", rr.Code, rr.Body.String())
	}
	invoice := decode[invoiceJSON](t, rr)
	if invoice.OpenInvoiceCents != 12000 {
		t.Fatalf("open invoice = %d, want 12000", invoice.OpenInvoiceCents)
	}
	if invoice.AvailableLimitCents != 488000 {
		t.Fatalf("available limit = %d, want 488000", invoice.AvailableLimitCents)
	}
	if invoice.Period != period.ISO() {
		t.Fatalf("period = %q, want %q", invoice.Period, period.ISO())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/invoices?workspace="+ws.ID+"&account=missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing account status = %d, want 404", rr.Code)
	}
}

func TestAttachmentUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions?workspace="+ws.ID, createTransactionRequest{
		transactionJSON: transactionJSON{
			Description: "Consulta",
			AmountCents: 20000,
			Date:        "2026-03-12",
			Type:        "expense",
			CategoryID:  cats["Saúde"].ID,
		},
	})
	id := decode[[]transactionJSON](t, rr)[0].ID

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "recibo.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "%PDF-1.4 fake")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/"+id+"/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("attachment status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[transactionJSON](t, rec)
	if !strings.HasPrefix(got.AttachmentURL, "memory://") || !strings.HasSuffix(got.AttachmentURL, "recibo.pdf") {
		t.Fatalf("attachment URL = %q", got.AttachmentURL)
	}
}

func TestImportPreviewAndConfirm(t *testing.T) {
	srv, _ := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	statement := strings.Join([]string{
		"2026-03-02,UBER TRIP SAO PAULO,-24.90",
		"2026-03-03,IFOOD RESTAURANTE,-56.10",
		"linha quebrada sem virgulas",
		"2026-03-05,PIX RECEBIDO JOAO,130.00",
	}, "\n")

	req := httptest.NewRequest(http.MethodPost, "/api/import/preview?workspace="+ws.ID, strings.NewReader(statement))
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d: %s", rr.Code, rr.Body.String())
	}
	items := decode[[]previewItemJSON](t, rr)
	if len(items) != 3 {
		t.Fatalf("preview items = %d, want 3 (malformed line skipped)", len(items))
	}
	if items[0].CategoryID != cats["Transporte"].ID {
		t.Fatalf("uber category = %q, want Transporte", items[0].CategoryID)
	}
	if items[1].CategoryID != cats["Alimentação"].ID {
		t.Fatalf("ifood category = %q, want Alimentação", items[1].CategoryID)
	}
	if items[2].Type != "income" || items[2].AmountCents != 13000 {
		t.Fatalf("pix item = %+v", items[2])
	}

	// Confirm only the classified expenses.
	confirm := doJSON(t, srv, http.MethodPost, "/api/import/confirm?workspace="+ws.ID, items[:2])
	if confirm.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", confirm.Code, confirm.Body.String())
	}
	if got := decode[map[string]int](t, confirm)["imported"]; got != 2 {
		t.Fatalf("imported = %d, want 2", got)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?workspace="+ws.ID+"&year=2026&month=3", nil)
	imported := decode[[]transactionJSON](t, rr)
	if len(imported) != 2 {
		t.Fatalf("imported rows = %d, want 2", len(imported))
	}
	for _, row := range imported {
		if row.Status != "completed" {
			t.Fatalf("imported row %s status = %q, want completed", row.ID, row.Status)
		}
	}
}

func TestChangeEventInvalidatesCaches(t *testing.T) {
	srv, repo := newTestServer(t)
	ws, cats := bootstrap(t, srv)

	target := "/api/summary?workspace=" + ws.ID + "&year=2026&month=3"
	if got := decode[summaryJSON](t, doJSON(t, srv, http.MethodGet, target, nil)); got.ExpenseCents != 0 {
		t.Fatalf("initial expense = %d", got.ExpenseCents)
	}

	// Write behind the server's back, as another instance would.
	date, _ := core.ParseDate("2026-03-18")
	rows, err := repo.InsertTransactions(context.Background(), []core.Transaction{{
		WorkspaceID: ws.ID,
		Description: "Cinema",
		Amount:      core.Money{Cents: 5000},
		Date:        date,
		Type:        core.Expense,
		CategoryID:  cats["Lazer"].ID,
		Status:      core.Completed,
		UserID:      "other",
	}})
	if err != nil {
		t.Fatalf("InsertTransactions: %v", err)
	}

	// Without the event the cached summary stays stale.
	if got := decode[summaryJSON](t, doJSON(t, srv, http.MethodGet, target, nil)); got.ExpenseCents != 0 {
		t.Fatalf("expected stale cache before event, got %d", got.ExpenseCents)
	}

	event := amqp.NewChangeEvent(amqp.EventCreated, ws.ID, []string{rows[0].ID})
	if err := srv.HandleChangeEvent(event); err != nil {
		t.Fatalf("HandleChangeEvent: %v", err)
	}

	if got := decode[summaryJSON](t, doJSON(t, srv, http.MethodGet, target, nil)); got.ExpenseCents != 5000 {
		t.Fatalf("expense after event = %d, want 5000", got.ExpenseCents)
	}
}

func TestWorkspaceQueryRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, target := range []string{"/api/summary", "/api/transactions", "/api/categories", "/api/budgets"} {
		rr := doJSON(t, srv, http.MethodGet, target, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s without workspace status = %d, want 400", target, rr.Code)
		}
	}
}
