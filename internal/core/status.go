package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tier classifies how much of the budget has been used.
type Tier int

const (
	WithinBudget Tier = iota
	NearLimit
	Exceeded
)

const (
	nearLimitPercent = 80
	exceededPercent  = 100
)

// String returns the tier name shown to users.
func (t Tier) String() string {
	switch t {
	case Exceeded:
		return "Exceeded"
	case NearLimit:
		return "Near limit"
	default:
		return "Within budget"
	}
}

// ReportLabel returns the wording used in the month end summary.
func (t Tier) ReportLabel() string {
	switch t {
	case Exceeded:
		return "Budget Exceeded"
	case NearLimit:
		return "Close to Budget"
	default:
		return "Within Budget"
	}
}

// Status is the derived budget state of a ledger. It is never persisted.
type Status struct {
	Budget        float64
	TotalExpenses float64
	Remaining     float64
	PercentUsed   float64
}

// Evaluate derives the budget status of a ledger. Non-finite totals count
// as zero.
func Evaluate(l Ledger) Status {
	total := decimal.Zero
	for _, e := range l.Expenses() {
		total = total.Add(finiteDecimal(e.Total))
	}
	budget := finiteDecimal(l.Budget())

	percent := decimal.Zero
	if budget.IsPositive() {
		percent = total.Div(budget).Mul(decimal.NewFromInt(100))
	}

	st := Status{
		Budget:        budget.InexactFloat64(),
		TotalExpenses: total.InexactFloat64(),
		PercentUsed:   percent.InexactFloat64(),
	}
	if math.IsInf(st.TotalExpenses, 0) {
		st.TotalExpenses = math.MaxFloat64
	}
	if math.IsInf(st.PercentUsed, 0) {
		st.PercentUsed = math.MaxFloat64
	}
	st.Remaining = st.Budget - st.TotalExpenses
	return st
}

func finiteDecimal(v float64) decimal.Decimal {
	if !isFinite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// HasBudget reports whether a budget is set. A zero budget disables alerts.
func (s Status) HasBudget() bool {
	return s.Budget > 0
}

// Tier classifies PercentUsed. Lower bounds are inclusive.
func (s Status) Tier() Tier {
	switch {
	case s.PercentUsed >= exceededPercent:
		return Exceeded
	case s.PercentUsed >= nearLimitPercent:
		return NearLimit
	default:
		return WithinBudget
	}
}
