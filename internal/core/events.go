package core

import "time"

// EventType names a ledger change published to downstream consumers.
type EventType string

const (
	EventBudgetSet      EventType = "budget.set"
	EventBudgetModified EventType = "budget.modified"
	EventExpenseAdded   EventType = "expense.added"
	EventMonthClosed    EventType = "month.closed"
)

// LedgerEvent describes one ledger change together with the status after it.
type LedgerEvent struct {
	ID         string
	Type       EventType
	User       string
	MonthKey   string
	Category   string
	Amount     float64
	Status     Status
	OccurredAt time.Time
}

// ChartKind selects one of the two chart artifacts.
type ChartKind string

const (
	BarChart ChartKind = "bar"
	PieChart ChartKind = "pie"
)

// ChartPaths are the files written by a chart refresh.
type ChartPaths struct {
	Bar string
	Pie string
}

// Path returns the artifact for kind, or "" if kind is unknown.
func (p ChartPaths) Path(kind ChartKind) string {
	switch kind {
	case BarChart:
		return p.Bar
	case PieChart:
		return p.Pie
	default:
		return ""
	}
}
