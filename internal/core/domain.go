package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"

	Pending   TransactionStatus = "pending"
	Completed TransactionStatus = "completed"

	Cash   PaymentMethod = "cash"
	Debit  PaymentMethod = "debit"
	Credit PaymentMethod = "credit"

	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"

	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"

	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

type (
	TransactionType   string
	TransactionStatus string
	PaymentMethod     string
	Frequency         string
	BudgetPeriod      string
	MemberRole        string

	// Money is an amount in currency minor units (centavos).
	Money struct {
		Cents int64
	}

	// Date is a calendar date; the time component is always UTC midnight.
	Date struct {
		time.Time
	}

	// Recurrence tags a transaction as the head of a repeating series.
	// Occurrences are never materialized in advance; downstream projection
	// and reminders read the tag.
	Recurrence struct {
		Frequency Frequency
		EndDate   Date // zero means open-ended
	}

	// Transaction is one ledger entry. Amount is always a non-negative
	// magnitude; the sign is derived from Type at aggregation time.
	Transaction struct {
		ID            string
		WorkspaceID   string
		Description   string
		Amount        Money
		Date          Date
		Type          TransactionType
		CategoryID    string // required for income/expense, empty for transfer
		Status        TransactionStatus
		PaymentMethod PaymentMethod
		AccountID     string // card/account, optional
		UserID        string
		SeriesID      string // shared by installment/recurring siblings
		Recurrence    *Recurrence
		BeneficiaryID string
		AttachmentURL string
		Tags          []string
		TransferToID  string // destination account for transfers
	}

	Category struct {
		ID          string
		WorkspaceID string
		Name        string
		Type        TransactionType // income or expense, never transfer
		Color       string
		ParentID    string // at most one level of nesting
	}

	// Account is a card or wallet. ClosingDay/DueDay only apply to credit
	// accounts.
	Account struct {
		ID             string
		WorkspaceID    string
		Name           string
		CreditLimit    Money
		ClosingDay     int // 1-31, day the invoice closes
		DueDay         int // 1-31
		InitialBalance Money // debt carried in before tracking began
	}

	Budget struct {
		ID          string
		WorkspaceID string
		CategoryID  string
		Amount      Money
		Period      BudgetPeriod
		Rollover    bool
	}

	// ImportRule maps a statement description pattern to a category.
	// Patterns are matched as case-insensitive substrings, first match wins
	// in caller-provided order. Rules are learned from confirmed imports and
	// never auto-deleted.
	ImportRule struct {
		ID          string
		WorkspaceID string
		Pattern     string
		CategoryID  string
	}

	Member struct {
		UserID string
		Role   MemberRole
		Name   string // per-workspace display name override, optional
		Avatar string
	}

	Workspace struct {
		ID      string
		Name    string
		OwnerID string
		Members []Member
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingCategory  = errors.New("missing category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyWorkspace   = errors.New("empty workspace name")
)

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO "2006-01-02" calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// ISO renders the date as "2006-01-02".
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Before and After on the embedded time.Time compare instants; dates built
// through NewDate/ParseDate are always UTC midnight so they behave as
// calendar-date comparisons.

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Validate checks the invariants a transaction must satisfy before it is
// handed to the persistence boundary. Callers validate before calling the
// calculators; the calculators themselves assume valid input.
func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case Income, Expense:
		if t.CategoryID == "" {
			return ErrMissingCategory
		}
	case Transfer:
		// transfers carry no category
	default:
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return errors.New("zero date")
	}
	if t.Recurrence != nil && !t.Recurrence.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	return nil
}

func (w Workspace) Validate() error {
	if len(strings.TrimSpace(w.Name)) == 0 {
		return ErrEmptyWorkspace
	}
	return nil
}
