package core

import (
	"bufio"
	"io"
	"strings"
)

// StatementRow is one parsed line of a bank statement export: calendar
// date, description, signed amount in cents (negative = money out).
type StatementRow struct {
	Date        Date
	Description string
	Cents       int64
}

// PreviewItem is a classified statement row awaiting user confirmation.
// CategoryID may be empty when neither a learned rule nor a keyword
// matched; the user fills it in during preview.
type PreviewItem struct {
	Date        Date
	Description string
	Amount      Money
	Type        TransactionType
	CategoryID  string
}

// Keyword fallbacks applied when no learned rule matches. Lookup is by
// exact category name within the workspace.
var keywordCategories = []struct {
	keywords []string
	category string
}{
	{keywords: []string{"uber", "posto"}, category: "Transporte"},
	{keywords: []string{"mercado", "food", "ifood"}, category: "Alimentação"},
}

// ParseStatement reads a headerless `date,description,signedAmount` text
// blob, one row per line. Malformed lines (missing or blank fields,
// unparseable date or amount) are skipped silently, never surfaced as
// errors; only the reader itself can fail.
func ParseStatement(r io.Reader) ([]StatementRow, error) {
	var rows []StatementRow
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), ",", 3)
		if len(fields) < 3 {
			continue
		}
		rawDate := strings.TrimSpace(fields[0])
		desc := strings.TrimSpace(fields[1])
		rawAmount := strings.TrimSpace(fields[2])
		if rawDate == "" || desc == "" || rawAmount == "" {
			continue
		}
		date, err := ParseDate(rawDate)
		if err != nil {
			continue
		}
		cents, err := ParseSignedDecimalToCents(rawAmount)
		if err != nil {
			continue
		}
		rows = append(rows, StatementRow{Date: date, Description: desc, Cents: cents})
	}
	if err := sc.Err(); err != nil {
		return rows, err
	}
	return rows, nil
}

// Classify assigns a type and category to each statement row. Negative
// amounts become expenses, the rest income; the stored amount is the
// magnitude.
//
// Category inference is learned-rule-first: the first rule, in the order the
// caller supplies them, whose pattern is a case-insensitive substring of the
// description wins. Only then do the keyword fallbacks run. Rules are a
// linear scan on purpose: substring semantics and first-match-wins ordering
// are part of the contract.
func Classify(rows []StatementRow, rules []ImportRule, categories []Category) []PreviewItem {
	items := make([]PreviewItem, 0, len(rows))
	for _, row := range rows {
		item := PreviewItem{
			Date:        row.Date,
			Description: row.Description,
			Amount:      Money{Cents: row.Cents},
			Type:        Income,
		}
		if row.Cents < 0 {
			item.Type = Expense
			item.Amount.Cents = -row.Cents
		}
		item.CategoryID = inferCategory(row.Description, rules, categories)
		items = append(items, item)
	}
	return items
}

func inferCategory(description string, rules []ImportRule, categories []Category) string {
	lower := strings.ToLower(description)
	for _, r := range rules {
		if r.Pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(r.Pattern)) {
			return r.CategoryID
		}
	}
	for _, kc := range keywordCategories {
		for _, kw := range kc.keywords {
			if strings.Contains(lower, kw) {
				return categoryByName(categories, kc.category)
			}
		}
	}
	return ""
}

func categoryByName(categories []Category, name string) string {
	for _, c := range categories {
		if c.Name == name {
			return c.ID
		}
	}
	return ""
}

// LearnRules derives new import rules from user-confirmed preview items.
// The learned pattern is the row's description verbatim; future imports
// match it by substring containment. An item yields no rule when it has no
// category or when an existing rule already carries the exact
// (pattern, category) pair. Duplicates within one confirmation batch
// collapse to a single rule.
func LearnRules(confirmed []PreviewItem, existing []ImportRule) []ImportRule {
	type pair struct{ pattern, category string }
	seen := make(map[pair]bool, len(existing))
	for _, r := range existing {
		seen[pair{r.Pattern, r.CategoryID}] = true
	}

	var learned []ImportRule
	for _, item := range confirmed {
		if item.CategoryID == "" {
			continue
		}
		p := pair{item.Description, item.CategoryID}
		if seen[p] {
			continue
		}
		seen[p] = true
		learned = append(learned, ImportRule{
			Pattern:    item.Description,
			CategoryID: item.CategoryID,
		})
	}
	return learned
}
