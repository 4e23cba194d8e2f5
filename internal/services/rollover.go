package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

// RolloverEngine closes a finished month: it finalizes the previous month's
// report with the totals being reset, zeroes every expense category and
// records the new month key.
type RolloverEngine struct {
	ledgers ports.LedgerStore
	markers ports.MarkerStore
	reports ports.ReportWriter
}

func NewRolloverEngine(ledgers ports.LedgerStore, markers ports.MarkerStore, reports ports.ReportWriter) *RolloverEngine {
	return &RolloverEngine{ledgers: ledgers, markers: markers, reports: reports}
}

// ShouldRollover reports whether now is the first day of a month that has
// not been rolled over yet. A stale marker on any other day is ignored, so
// a month whose first day is skipped is never closed automatically.
func ShouldRollover(marker string, now time.Time) bool {
	return now.Day() == 1 && marker != core.MonthKey(now)
}

// Check runs the rollover for user when due and returns the ledger to keep
// working with. fired is false when nothing changed.
func (e *RolloverEngine) Check(ctx context.Context, user string, now time.Time, l core.Ledger) (core.Ledger, bool, error) {
	marker, err := e.markers.ReadMarker(ctx, user)
	if err != nil {
		return l, false, fmt.Errorf("read rollover marker: %w", err)
	}
	if !ShouldRollover(marker, now) {
		return l, false, nil
	}

	prev := core.PreviousMonthEnd(now)
	if err := e.reports.Finalize(ctx, user, l, prev); err != nil {
		return l, false, fmt.Errorf("finalize %s report: %w", core.MonthKey(prev), err)
	}

	reset := l.Clone()
	reset.ResetExpenses()
	if err := e.ledgers.Save(ctx, user, reset); err != nil {
		return l, false, fmt.Errorf("save reset ledger: %w", err)
	}

	key := core.MonthKey(now)
	if err := e.markers.WriteMarker(ctx, user, key); err != nil {
		return reset, false, fmt.Errorf("write rollover marker: %w", err)
	}

	slog.InfoContext(ctx, "Month rolled over",
		"user", user, "closed", core.MonthKey(prev), "marker", key)
	return reset, true, nil
}
