package core

import (
	"fmt"
	"time"
)

// AddMonthsClamped advances d by n calendar months keeping the day of
// month, clamping to the last day when the target month is shorter
// (Jan 31 + 1 month = Feb 28/29). time.AddDate would normalize into the
// following month instead.
func AddMonthsClamped(d Date, n int) Date {
	first := NewDate(d.Year(), d.Month(), 1).AddDate(0, n, 0)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.Year(), first.Month(), day)
}

// ExpandInstallments turns one base transaction into n concrete ledger
// entries, one calendar month apart starting at the base date. Each entry
// carries the full base amount, undivided across installments; splitting
// the total is deliberately not done. Descriptions gain an "(i/n)" suffix
// and all entries share the base SeriesID. Only the first installment keeps
// the requested paid status; the rest are forced to pending.
//
// Precondition: n >= 2 and base.Type == Expense. The caller decides when
// installment expansion applies; it takes precedence over a recurrence
// request on the same transaction.
func ExpandInstallments(base Transaction, n int, paid bool) []Transaction {
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		t := base
		t.ID = ""
		t.Description = fmt.Sprintf("%s (%d/%d)", base.Description, i+1, n)
		t.Date = AddMonthsClamped(base.Date, i)
		t.Recurrence = nil
		if i == 0 && paid {
			t.Status = Completed
		} else {
			t.Status = Pending
		}
		out = append(out, t)
	}
	return out
}
