package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"contas/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// Default categories seeded into every new workspace. The names matter:
// the statement classifier's keyword fallbacks resolve against them.
var defaultCategories = []struct {
	name  string
	typ   core.TransactionType
	color string
}{
	{"Alimentação", core.Expense, "#f97316"},
	{"Transporte", core.Expense, "#3b82f6"},
	{"Moradia", core.Expense, "#8b5cf6"},
	{"Saúde", core.Expense, "#ef4444"},
	{"Lazer", core.Expense, "#22c55e"},
	{"Outros", core.Expense, "#6b7280"},
	{"Salário", core.Income, "#10b981"},
	{"Outras receitas", core.Income, "#14b8a6"},
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- workspaces ---

// CreateWorkspace persists the workspace, its owner membership and the
// default category set in one database transaction.
func (r *SQLiteRepository) CreateWorkspace(ctx context.Context, w core.Workspace) (core.Workspace, error) {
	if err := w.Validate(); err != nil {
		return core.Workspace{}, err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("begin workspace create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, owner_id) VALUES (?, ?, ?)`,
		w.ID, w.Name, w.OwnerID); err != nil {
		return core.Workspace{}, fmt.Errorf("insert workspace: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role) VALUES (?, ?, ?)`,
		w.ID, w.OwnerID, core.RoleAdmin); err != nil {
		return core.Workspace{}, fmt.Errorf("insert owner membership: %w", err)
	}

	for _, dc := range defaultCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, workspace_id, name, type, color) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), w.ID, dc.name, dc.typ, dc.color); err != nil {
			return core.Workspace{}, fmt.Errorf("seed category %s: %w", dc.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Workspace{}, fmt.Errorf("commit workspace create: %w", err)
	}

	slog.InfoContext(ctx, "Workspace created",
		"workspace_id", w.ID,
		"name", w.Name,
		"owner_id", w.OwnerID)

	w.Members = []core.Member{{UserID: w.OwnerID, Role: core.RoleAdmin}}
	return w, nil
}

func (r *SQLiteRepository) GetWorkspace(ctx context.Context, id string) (core.Workspace, error) {
	var w core.Workspace
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id FROM workspaces WHERE id = ?`, id).
		Scan(&w.ID, &w.Name, &w.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Workspace{}, ErrNotFound
	}
	if err != nil {
		return core.Workspace{}, fmt.Errorf("get workspace: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, role, display_name, avatar FROM workspace_members WHERE workspace_id = ?`, id)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("get workspace members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.UserID, &m.Role, &m.Name, &m.Avatar); err != nil {
			return core.Workspace{}, fmt.Errorf("scan member: %w", err)
		}
		w.Members = append(w.Members, m)
	}
	return w, rows.Err()
}

// ListWorkspaces returns every workspace, for the reminder worker's scan.
func (r *SQLiteRepository) ListWorkspaces(ctx context.Context) ([]core.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, owner_id FROM workspaces ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list all workspaces: %w", err)
	}
	defer rows.Close()

	var out []core.Workspace
	for rows.Next() {
		var w core.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.OwnerID); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListWorkspacesForUser(ctx context.Context, userID string) ([]core.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.name, w.owner_id
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = ?
		 ORDER BY w.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []core.Workspace
	for rows.Next() {
		var w core.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.OwnerID); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// EnsureDefaultWorkspace returns the user's first workspace, creating a
// personal one on first contact.
func (r *SQLiteRepository) EnsureDefaultWorkspace(ctx context.Context, userID string) (core.Workspace, error) {
	existing, err := r.ListWorkspacesForUser(ctx, userID)
	if err != nil {
		return core.Workspace{}, err
	}
	if len(existing) > 0 {
		return r.GetWorkspace(ctx, existing[0].ID)
	}
	return r.CreateWorkspace(ctx, core.Workspace{Name: "Pessoal", OwnerID: userID})
}

func (r *SQLiteRepository) AddMember(ctx context.Context, workspaceID string, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, display_name, avatar)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = excluded.role,
		   display_name = excluded.display_name, avatar = excluded.avatar`,
		workspaceID, m.UserID, m.Role, m.Name, m.Avatar)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, workspace_id, name, type, color, parent_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.WorkspaceID, c.Name, c.Type, c.Color, c.ParentID)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, workspaceID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, type, color, parent_id
		 FROM categories WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Type, &c.Color, &c.ParentID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND workspace_id = ?`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- accounts ---

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, workspace_id, name, credit_limit_cents, closing_day, due_day, initial_balance_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.WorkspaceID, a.Name, a.CreditLimit.Cents, a.ClosingDay, a.DueDay, a.InitialBalance.Cents)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, workspaceID, id string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, credit_limit_cents, closing_day, due_day, initial_balance_cents
		 FROM accounts WHERE id = ? AND workspace_id = ?`, id, workspaceID).
		Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.CreditLimit.Cents, &a.ClosingDay, &a.DueDay, &a.InitialBalance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, workspaceID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, credit_limit_cents, closing_day, due_day, initial_balance_cents
		 FROM accounts WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.CreditLimit.Cents, &a.ClosingDay, &a.DueDay, &a.InitialBalance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- budgets ---

// UpsertBudget replaces the limit for (workspace, category, period).
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, workspace_id, category_id, amount_cents, period, rollover)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (workspace_id, category_id, period) DO UPDATE SET
		   amount_cents = excluded.amount_cents, rollover = excluded.rollover`,
		b.ID, b.WorkspaceID, b.CategoryID, b.Amount.Cents, b.Period, b.Rollover)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	// The conflict path keeps the original row's ID.
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM budgets WHERE workspace_id = ? AND category_id = ? AND period = ?`,
		b.WorkspaceID, b.CategoryID, b.Period).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("reselect budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, workspaceID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, category_id, amount_cents, period, rollover
		 FROM budgets WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.CategoryID, &b.Amount.Cents, &b.Period, &b.Rollover); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND workspace_id = ?`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- transactions ---

const txColumns = `id, workspace_id, description, amount_cents, date, type,
	category_id, status, payment_method, account_id, user_id, series_id,
	recur_frequency, recur_end_date, beneficiary_id, attachment_url, tags,
	transfer_to_id`

// InsertTransactions persists a batch atomically and returns the rows as
// stored, IDs assigned. Installment expansion hands its whole series here.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (`+txColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		freq, end := "", ""
		if t.Recurrence != nil {
			freq = string(t.Recurrence.Frequency)
			if !t.Recurrence.EndDate.IsZero() {
				end = t.Recurrence.EndDate.ISO()
			}
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.WorkspaceID, t.Description, t.Amount.Cents, t.Date.ISO(), t.Type,
			t.CategoryID, t.Status, t.PaymentMethod, t.AccountID, t.UserID, t.SeriesID,
			freq, end, t.BeneficiaryID, t.AttachmentURL, joinTags(t.Tags), t.TransferToID); err != nil {
			return nil, fmt.Errorf("insert transaction %s: %w", t.Description, err)
		}
		out = append(out, t)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions inserted",
		"workspace_id", txs[0].WorkspaceID,
		"count", len(out))
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return t, err
}

// ListTransactions returns the workspace's rows within [start, end], both
// bounds included. Zero bounds disable the corresponding cut.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, workspaceID string, start, end core.Date) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE workspace_id = ?`
	args := []any{workspaceID}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.ISO())
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.ISO())
	}
	query += ` ORDER BY date, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransactionPatch carries the fields an update may change. Nil means leave
// as is.
type TransactionPatch struct {
	Description   *string
	Amount        *core.Money
	Date          *core.Date
	CategoryID    *string
	Status        *core.TransactionStatus
	PaymentMethod *core.PaymentMethod
	AccountID     *string
	BeneficiaryID *string
	AttachmentURL *string
	Tags          *[]string
}

// UpdateTransaction applies the patch to the row and, when applyToSeries is
// set and the row belongs to a series, to every later row of that series.
// Series siblings keep their own date and description (installment rows own
// their "(i/n)" suffix). Returns every row that changed, in date order.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p TransactionPatch, applyToSeries bool) ([]core.Transaction, error) {
	target, err := r.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := []string{id}
	if applyToSeries && target.SeriesID != "" {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id FROM transactions
			 WHERE series_id = ? AND workspace_id = ? AND id != ? AND date >= ?`,
			target.SeriesID, target.WorkspaceID, id, target.Date.ISO())
		if err != nil {
			return nil, fmt.Errorf("list series rows: %w", err)
		}
		for rows.Next() {
			var sid string
			if err := rows.Scan(&sid); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan series id: %w", err)
			}
			ids = append(ids, sid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer dbTx.Rollback()

	for _, rowID := range ids {
		sets := []string{"updated_at = datetime('now')"}
		args := []any{}
		add := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		if p.Description != nil && rowID == id {
			add("description", *p.Description)
		}
		if p.Amount != nil {
			add("amount_cents", p.Amount.Cents)
		}
		if p.Date != nil && rowID == id {
			add("date", p.Date.ISO())
		}
		if p.CategoryID != nil {
			add("category_id", *p.CategoryID)
		}
		if p.Status != nil {
			add("status", string(*p.Status))
		}
		if p.PaymentMethod != nil {
			add("payment_method", string(*p.PaymentMethod))
		}
		if p.AccountID != nil {
			add("account_id", *p.AccountID)
		}
		if p.BeneficiaryID != nil {
			add("beneficiary_id", *p.BeneficiaryID)
		}
		if p.AttachmentURL != nil {
			add("attachment_url", *p.AttachmentURL)
		}
		if p.Tags != nil {
			add("tags", joinTags(*p.Tags))
		}
		args = append(args, rowID)
		if _, err := dbTx.ExecContext(ctx,
			`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return nil, fmt.Errorf("update transaction %s: %w", rowID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	updated := make([]core.Transaction, 0, len(ids))
	for _, rowID := range ids {
		t, err := r.GetTransaction(ctx, rowID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, t)
	}
	sortByDate(updated)

	slog.InfoContext(ctx, "Transaction updated",
		"id", id,
		"series", applyToSeries && target.SeriesID != "",
		"rows", len(updated))
	return updated, nil
}

// DeleteTransaction removes the row and, when applyToSeries is set, every
// later row of its series. Returns the IDs actually removed.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string, applyToSeries bool) ([]string, error) {
	target, err := r.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	var deleted []string
	if applyToSeries && target.SeriesID != "" {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id FROM transactions WHERE series_id = ? AND workspace_id = ? AND date >= ?`,
			target.SeriesID, target.WorkspaceID, target.Date.ISO())
		if err != nil {
			return nil, fmt.Errorf("list series rows: %w", err)
		}
		for rows.Next() {
			var sid string
			if err := rows.Scan(&sid); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan series id: %w", err)
			}
			deleted = append(deleted, sid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	} else {
		deleted = []string{id}
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(deleted)), ",")
	args := make([]any, len(deleted))
	for i, d := range deleted {
		args[i] = d
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions deleted", "count", len(deleted))
	return deleted, nil
}

// --- import rules ---

func (r *SQLiteRepository) ListImportRules(ctx context.Context, workspaceID string) ([]core.ImportRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, pattern, category_id
		 FROM import_rules WHERE workspace_id = ? ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list import rules: %w", err)
	}
	defer rows.Close()

	var out []core.ImportRule
	for rows.Next() {
		var ir core.ImportRule
		if err := rows.Scan(&ir.ID, &ir.WorkspaceID, &ir.Pattern, &ir.CategoryID); err != nil {
			return nil, fmt.Errorf("scan import rule: %w", err)
		}
		out = append(out, ir)
	}
	return out, rows.Err()
}

// InsertImportRules stores learned rules, ignoring duplicates another
// confirmation may have raced in.
func (r *SQLiteRepository) InsertImportRules(ctx context.Context, workspaceID string, rules []core.ImportRule) error {
	for _, ir := range rules {
		id := ir.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO import_rules (id, workspace_id, pattern, category_id)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (workspace_id, pattern, category_id) DO NOTHING`,
			id, workspaceID, ir.Pattern, ir.CategoryID); err != nil {
			return fmt.Errorf("insert import rule: %w", err)
		}
	}
	return nil
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		date       string
		freq, end  string
		tags       string
	)
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.Description, &t.Amount.Cents, &date, &t.Type,
		&t.CategoryID, &t.Status, &t.PaymentMethod, &t.AccountID, &t.UserID, &t.SeriesID,
		&freq, &end, &t.BeneficiaryID, &t.AttachmentURL, &tags, &t.TransferToID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	if freq != "" {
		rec := &core.Recurrence{Frequency: core.Frequency(freq)}
		if end != "" {
			rec.EndDate, err = core.ParseDate(end)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("parse stored end date %q: %w", end, err)
			}
		}
		t.Recurrence = rec
	}
	t.Tags = splitTags(tags)
	return t, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func sortByDate(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date.Time)
	})
}
