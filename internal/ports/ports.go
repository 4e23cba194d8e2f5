package ports

import (
	"context"
	"time"

	"kharcha/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerStore persists one ledger per user. Save fully overwrites.
	LedgerStore interface {
		Load(ctx context.Context, user string) (core.Ledger, error)
		Save(ctx context.Context, user string, l core.Ledger) error
	}

	// MarkerStore persists the month key of the last rollover per user.
	// ReadMarker returns "" when no rollover has happened yet.
	MarkerStore interface {
		ReadMarker(ctx context.Context, user string) (string, error)
		WriteMarker(ctx context.Context, user string, monthKey string) error
	}

	// UserRegistry is the durable set of known user names.
	UserRegistry interface {
		// Register adds name if absent and reports whether it was new.
		Register(ctx context.Context, name string) (created bool, err error)
		Users(ctx context.Context) ([]string, error)
	}

	// ReportWriter maintains the per-user monthly text reports.
	ReportWriter interface {
		EnsureExists(ctx context.Context, user string, month time.Time) (path string, created bool, err error)
		AppendExpense(ctx context.Context, user, category string, amount float64, at time.Time) error
		Finalize(ctx context.Context, user string, l core.Ledger, month time.Time) error
		UpdateBudget(ctx context.Context, user string, month time.Time, budget float64) error
		List(ctx context.Context, user string) ([]string, error)
		Read(ctx context.Context, user, name string) ([]byte, error)
	}

	// ChartRenderer regenerates the bar and pie charts of a ledger.
	ChartRenderer interface {
		Render(ctx context.Context, user string, month time.Time, l core.Ledger) (core.ChartPaths, error)
	}

	// EventPublisher ships ledger events to downstream consumers.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
	}

	// EventExporter writes a ledger event to an external sink and returns a
	// reference to where it landed.
	EventExporter interface {
		ExportEvent(ctx context.Context, ev core.LedgerEvent) (ref string, err error)
	}
)
