package core

// InvoicePeriodOf maps a purchase date to the first day of the statement
// month it bills into. A purchase on or after the card's closing day rolls
// into the next month's invoice.
//
// ClosingDay outside 1-31 is a caller error and is not validated here. In
// months shorter than the closing day the comparison is still by day number,
// so day 31 in a 30-day month always counts as past closing.
func InvoicePeriodOf(date Date, closingDay int) Date {
	if date.Day() >= closingDay {
		return Date{Time: NewDate(date.Year(), date.Month(), 1).AddDate(0, 1, 0)}
	}
	return NewDate(date.Year(), date.Month(), 1)
}

// OpenInvoiceTotal sums the expenses on one card that bill into the invoice
// open at ref. Callers pass the real current date as ref, never the
// browsing month: the open invoice is anchored to today regardless of which
// month the user is looking at.
func OpenInvoiceTotal(txs []Transaction, accountID string, closingDay int, ref Date) Money {
	open := InvoicePeriodOf(ref, closingDay)
	var total Money
	for _, t := range txs {
		if t.AccountID != accountID || t.Type != Expense {
			continue
		}
		if InvoicePeriodOf(t.Date, closingDay).Equal(open.Time) {
			total.Cents += t.Amount.Cents
		}
	}
	return total
}

// AvailableLimit is the credit limit minus the open invoice. The raw signed
// value is returned; overspent cards go negative and display-side clamping
// is the caller's business.
func AvailableLimit(limit Money, txs []Transaction, accountID string, closingDay int, ref Date) Money {
	return limit.Sub(OpenInvoiceTotal(txs, accountID, closingDay, ref))
}
