package core

// BudgetProgress is spent-vs-limit for one category over one period.
// Percentage is clamped to 100; overspending is detectable by comparing
// Spent against the limit, not from the percentage.
type BudgetProgress struct {
	Spent      Money
	Percentage float64
}

// ComputeBudgetProgress sums completed expense transactions in the category
// over the closed interval [start, end]. Pending expenses do not count
// against the budget.
//
// A zero limit cannot divide: the percentage is 100 when anything was spent
// and 0 otherwise.
func ComputeBudgetProgress(txs []Transaction, categoryID string, limit Money, start, end Date) BudgetProgress {
	var spent Money
	for _, t := range txs {
		if t.Type != Expense || t.Status != Completed || t.CategoryID != categoryID {
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		spent.Cents += t.Amount.Cents
	}

	var pct float64
	switch {
	case limit.Cents <= 0:
		if spent.Cents > 0 {
			pct = 100
		}
	default:
		pct = float64(spent.Cents) / float64(limit.Cents) * 100
		if pct > 100 {
			pct = 100
		}
	}
	return BudgetProgress{Spent: spent, Percentage: pct}
}
