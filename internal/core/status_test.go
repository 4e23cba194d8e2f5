package core

import (
	"math"
	"testing"
)

func ledgerOf(budget float64, totals map[string]float64) Ledger {
	l := NewLedger()
	for cat, v := range totals {
		_ = l.AddExpense(cat, v)
	}
	l.SetBudget(budget)
	return l
}

func TestEvaluateScenarios(t *testing.T) {
	tests := []struct {
		name   string
		ledger Ledger
		want   Status
		tier   Tier
	}{
		{
			name:   "within budget",
			ledger: ledgerOf(1000, map[string]float64{Food: 200, Travel: 100}),
			want:   Status{Budget: 1000, TotalExpenses: 300, Remaining: 700, PercentUsed: 30},
			tier:   WithinBudget,
		},
		{
			name:   "exceeded after food expense",
			ledger: ledgerOf(1000, map[string]float64{Food: 1050, Travel: 100}),
			want:   Status{Budget: 1000, TotalExpenses: 1150, Remaining: -150, PercentUsed: 115},
			tier:   Exceeded,
		},
		{
			name:   "near limit lower bound inclusive",
			ledger: ledgerOf(1000, map[string]float64{Shopping: 800}),
			want:   Status{Budget: 1000, TotalExpenses: 800, Remaining: 200, PercentUsed: 80},
			tier:   NearLimit,
		},
		{
			name:   "exceeded lower bound inclusive",
			ledger: ledgerOf(500, map[string]float64{Loans: 500}),
			want:   Status{Budget: 500, TotalExpenses: 500, Remaining: 0, PercentUsed: 100},
			tier:   Exceeded,
		},
		{
			name:   "zero budget never divides",
			ledger: ledgerOf(0, map[string]float64{Food: 999}),
			want:   Status{Budget: 0, TotalExpenses: 999, Remaining: -999, PercentUsed: 0},
			tier:   WithinBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.ledger)
			if got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
			if got.Tier() != tt.tier {
				t.Errorf("Tier() = %v, want %v", got.Tier(), tt.tier)
			}
		})
	}
}

func TestEvaluateRemainingIsBudgetMinusTotal(t *testing.T) {
	ledgers := []Ledger{
		ledgerOf(1, map[string]float64{Food: 0.1, Travel: 0.2}),
		ledgerOf(123.45, map[string]float64{Others: 67.891}),
		ledgerOf(0, nil),
		ledgerOf(10, map[string]float64{Entertainment: 1e9}),
	}
	for i, l := range ledgers {
		s := Evaluate(l)
		if s.Remaining != s.Budget-s.TotalExpenses {
			t.Fatalf("case %d: remaining %v != %v - %v", i, s.Remaining, s.Budget, s.TotalExpenses)
		}
	}
}

func TestEvaluateIgnoresBudgetRow(t *testing.T) {
	s := Evaluate(ledgerOf(1000, nil))
	if s.TotalExpenses != 0 {
		t.Fatalf("budget counted as expense: %v", s.TotalExpenses)
	}
	if !s.HasBudget() {
		t.Fatalf("expected HasBudget")
	}
	if Evaluate(NewLedger()).HasBudget() {
		t.Fatalf("zero budget reported as set")
	}
}

func TestTierLabels(t *testing.T) {
	cases := map[Tier][2]string{
		WithinBudget: {"Within budget", "Within Budget"},
		NearLimit:    {"Near limit", "Close to Budget"},
		Exceeded:     {"Exceeded", "Budget Exceeded"},
	}
	for tier, want := range cases {
		if tier.String() != want[0] || tier.ReportLabel() != want[1] {
			t.Fatalf("tier %d: got %q/%q", tier, tier.String(), tier.ReportLabel())
		}
	}
}

func TestEvaluateTreatsNonFiniteTotalsAsZero(t *testing.T) {
	l := Ledger{Entries: []Entry{
		{Food, math.Inf(1)},
		{Travel, 200},
		{Others, math.NaN()},
		{BudgetCategory, 1000},
	}}
	st := Evaluate(l)
	if st.TotalExpenses != 200 || st.Remaining != 800 || st.PercentUsed != 20 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestEvaluateClampsHugePercent(t *testing.T) {
	l := Ledger{Entries: []Entry{{Food, 1e300}, {BudgetCategory, 1e-300}}}
	st := Evaluate(l)
	if math.IsInf(st.PercentUsed, 0) || st.Tier() != Exceeded {
		t.Fatalf("unexpected status: %+v", st)
	}
}
