package core

import (
	"testing"
	"time"
)

func TestScopedTransactions(t *testing.T) {
	start, end := MonthRange(2024, time.March)

	all := []Transaction{
		{ID: "a", WorkspaceID: "ws1", Date: NewDate(2024, time.March, 1)},
		{ID: "b", WorkspaceID: "ws1", Date: NewDate(2024, time.March, 31)},
		{ID: "c", WorkspaceID: "ws1", Date: NewDate(2024, time.February, 29)},
		{ID: "d", WorkspaceID: "ws1", Date: NewDate(2024, time.April, 1)},
		{ID: "e", WorkspaceID: "ws2", Date: NewDate(2024, time.March, 15)},
	}

	got := ScopedTransactions(all, "ws1", start, end)

	want := map[string]bool{"a": true, "b": true}
	if len(got) != len(want) {
		t.Fatalf("ScopedTransactions() returned %d transactions, want %d", len(got), len(want))
	}
	for _, tx := range got {
		if !want[tx.ID] {
			t.Errorf("ScopedTransactions() included unexpected transaction %q", tx.ID)
		}
	}
}

func TestScopedTransactionsIncludesBoundaries(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	if start.ISO() != "2024-02-01" || end.ISO() != "2024-02-29" {
		t.Fatalf("MonthRange(2024, February) = %s..%s, want 2024-02-01..2024-02-29", start.ISO(), end.ISO())
	}

	all := []Transaction{
		{ID: "first", WorkspaceID: "ws", Date: start},
		{ID: "last", WorkspaceID: "ws", Date: end},
	}
	got := ScopedTransactions(all, "ws", start, end)
	if len(got) != 2 {
		t.Fatalf("transactions dated exactly on the period bounds must be included, got %d of 2", len(got))
	}
}

func TestScopedTransactionsEmptyInput(t *testing.T) {
	start, end := MonthRange(2024, time.March)
	got := ScopedTransactions(nil, "ws", start, end)
	if len(got) != 0 {
		t.Fatalf("ScopedTransactions(nil) = %d transactions, want 0", len(got))
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want Summary
	}{
		{
			name: "completed income and pending expense",
			txs: []Transaction{
				{Amount: Money{Cents: 100_00}, Type: Income, Status: Completed, Date: NewDate(2024, time.March, 1)},
				{Amount: Money{Cents: 40_00}, Type: Expense, Status: Pending, Date: NewDate(2024, time.March, 5)},
			},
			want: Summary{
				Income:    Money{Cents: 100_00},
				Expense:   Money{Cents: 0},
				Balance:   Money{Cents: 100_00},
				Predicted: Money{Cents: 60_00},
			},
		},
		{
			name: "no pending items makes predicted equal balance",
			txs: []Transaction{
				{Amount: Money{Cents: 500_00}, Type: Income, Status: Completed},
				{Amount: Money{Cents: 120_00}, Type: Expense, Status: Completed},
			},
			want: Summary{
				Income:    Money{Cents: 500_00},
				Expense:   Money{Cents: 120_00},
				Balance:   Money{Cents: 380_00},
				Predicted: Money{Cents: 380_00},
			},
		},
		{
			name: "transfers are excluded from every figure",
			txs: []Transaction{
				{Amount: Money{Cents: 100_00}, Type: Income, Status: Completed},
				{Amount: Money{Cents: 999_00}, Type: Transfer, Status: Completed},
			},
			want: Summary{
				Income:    Money{Cents: 100_00},
				Balance:   Money{Cents: 100_00},
				Predicted: Money{Cents: 100_00},
			},
		},
		{
			name: "empty set",
			txs:  nil,
			want: Summary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.txs)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	txs := []Transaction{
		{Amount: Money{Cents: 73_21}, Type: Income, Status: Completed},
		{Amount: Money{Cents: 12_50}, Type: Income, Status: Pending},
		{Amount: Money{Cents: 9_99}, Type: Expense, Status: Completed},
		{Amount: Money{Cents: 44_00}, Type: Expense, Status: Pending},
	}
	s := Summarize(txs)
	if s.Income.Sub(s.Expense) != s.Balance {
		t.Errorf("income - expense = %d, balance = %d", s.Income.Sub(s.Expense).Cents, s.Balance.Cents)
	}
	if s.Predicted == s.Balance {
		t.Error("predicted must differ from balance when pending entries exist")
	}
}
