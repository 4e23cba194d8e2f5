// Package core holds the ledger model, budget evaluation and the calendar
// and money helpers shared by every adapter. It performs no I/O.
package core

import (
	"errors"
	"math"
	"strings"
	"unicode"
)

// BudgetCategory is the reserved pseudo-category holding the budget ceiling.
const BudgetCategory = "Budget"

const (
	Food          = "Food"
	Travel        = "Travel"
	Loans         = "Loans"
	Entertainment = "Entertainment"
	Shopping      = "Shopping"
	Others        = "Others"
)

// ExpenseCategories is the closed set of spending categories, in ledger order.
var ExpenseCategories = []string{Food, Travel, Loans, Entertainment, Shopping, Others}

type (
	// Entry is one row of a ledger.
	Entry struct {
		Category string
		Total    float64
	}

	// Ledger maps category to accumulated total for the current month.
	// Order is significant and preserved across load/save.
	Ledger struct {
		Entries []Entry
	}
)

var (
	ErrEmptyUser        = errors.New("empty user name")
	ErrInvalidUser      = errors.New("invalid user name")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrReservedCategory = errors.New("reserved category")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrBudgetAlreadySet = errors.New("budget already set")
	ErrReportNotFound   = errors.New("report not found")
)

// NormalizeUser lowercases and trims a user name. The result names files
// and directories, so path separators, dot segments and control characters
// are rejected.
func NormalizeUser(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", ErrEmptyUser
	}
	if n == "." || strings.Contains(n, "..") || strings.ContainsAny(n, `/\:`) {
		return "", ErrInvalidUser
	}
	for _, r := range n {
		if unicode.IsControl(r) {
			return "", ErrInvalidUser
		}
	}
	return n, nil
}

// NewLedger returns a ledger with every category and the budget at zero.
func NewLedger() Ledger {
	entries := make([]Entry, 0, len(ExpenseCategories)+1)
	for _, c := range ExpenseCategories {
		entries = append(entries, Entry{Category: c})
	}
	entries = append(entries, Entry{Category: BudgetCategory})
	return Ledger{Entries: entries}
}

// Normalize enforces the single-Budget invariant: a missing Budget row is
// appended at zero and duplicates after the first are dropped.
func (l Ledger) Normalize() Ledger {
	out := Ledger{Entries: make([]Entry, 0, len(l.Entries)+1)}
	seenBudget := false
	for _, e := range l.Entries {
		if e.Category == BudgetCategory {
			if seenBudget {
				continue
			}
			seenBudget = true
		}
		out.Entries = append(out.Entries, e)
	}
	if !seenBudget {
		out.Entries = append(out.Entries, Entry{Category: BudgetCategory})
	}
	return out
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	return Ledger{Entries: append([]Entry(nil), l.Entries...)}
}

// Budget returns the budget ceiling, zero when absent.
func (l Ledger) Budget() float64 {
	v, _ := l.Total(BudgetCategory)
	return v
}

// Total returns the total for a category.
func (l Ledger) Total(category string) (float64, bool) {
	for _, e := range l.Entries {
		if e.Category == category {
			return e.Total, true
		}
	}
	return 0, false
}

// Expenses returns every non-Budget entry.
func (l Ledger) Expenses() []Entry {
	out := make([]Entry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if e.Category != BudgetCategory {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the names of the expense categories present in the ledger.
func (l Ledger) Categories() []string {
	exp := l.Expenses()
	out := make([]string, len(exp))
	for i, e := range exp {
		out[i] = e.Category
	}
	return out
}

// SetBudget overwrites the budget value.
func (l *Ledger) SetBudget(v float64) {
	for i := range l.Entries {
		if l.Entries[i].Category == BudgetCategory {
			l.Entries[i].Total = v
			return
		}
	}
	l.Entries = append(l.Entries, Entry{Category: BudgetCategory, Total: v})
}

// AddExpense adds amount to an existing expense category. The ledger is left
// untouched when the category total or the month's spending would no longer
// be a finite number.
func (l *Ledger) AddExpense(category string, amount float64) error {
	if category == BudgetCategory {
		return ErrReservedCategory
	}
	for i := range l.Entries {
		if l.Entries[i].Category != category {
			continue
		}
		sum := amount
		for _, e := range l.Expenses() {
			sum += e.Total
		}
		next := l.Entries[i].Total + amount
		if !isFinite(next) || !isFinite(sum) {
			return ErrInvalidAmount
		}
		l.Entries[i].Total = next
		return nil
	}
	return ErrUnknownCategory
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ResetExpenses zeroes every non-Budget total. The budget is carried forward.
func (l *Ledger) ResetExpenses() {
	for i := range l.Entries {
		if l.Entries[i].Category != BudgetCategory {
			l.Entries[i].Total = 0
		}
	}
}

// AsMap returns the ledger as an unordered category to total map.
func (l Ledger) AsMap() map[string]float64 {
	m := make(map[string]float64, len(l.Entries))
	for _, e := range l.Entries {
		m[e.Category] = e.Total
	}
	return m
}
