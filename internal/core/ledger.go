package core

import "time"

// Summary aggregates one period of the ledger. Balance counts completed
// entries only; Predicted also counts pending ones, as a forward
// projection. Transfers never contribute to either.
type Summary struct {
	Income    Money
	Expense   Money
	Balance   Money
	Predicted Money
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (Date, Date) {
	start := NewDate(year, month, 1)
	end := Date{Time: start.AddDate(0, 1, -1)}
	return start, end
}

// ScopedTransactions filters the full ledger down to one workspace and a
// closed date interval [start, end]; entries dated exactly on either bound
// are included. Order is not guaranteed.
func ScopedTransactions(all []Transaction, workspaceID string, start, end Date) []Transaction {
	out := make([]Transaction, 0, len(all))
	for _, t := range all {
		if t.WorkspaceID != workspaceID {
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Summarize computes realized and predicted figures for an already
// period-scoped transaction set.
func Summarize(txs []Transaction) Summary {
	var s Summary
	var allIncome, allExpense int64
	for _, t := range txs {
		switch t.Type {
		case Income:
			allIncome += t.Amount.Cents
			if t.Status == Completed {
				s.Income.Cents += t.Amount.Cents
			}
		case Expense:
			allExpense += t.Amount.Cents
			if t.Status == Completed {
				s.Expense.Cents += t.Amount.Cents
			}
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.Predicted = Money{Cents: allIncome - allExpense}
	return s
}
