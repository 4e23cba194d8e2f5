package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/ports"
)

const (
	exportedCacheSize = 4096
	exportedCacheTTL  = 24 * time.Hour
)

// ExportWorker copies ledger events to an external sheet. Event IDs already
// exported are remembered so a redelivered message is not appended twice.
type ExportWorker struct {
	exporter ports.EventExporter
	exported *cache.LRUCache[string]
}

func NewExportWorker(exporter ports.EventExporter) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		exported: cache.NewLRUCache[string](exportedCacheSize, exportedCacheTTL),
	}
}

// HandleEvent exports one event. A returned error makes the consumer
// requeue the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev core.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"id", ev.ID,
		"type", ev.Type,
		"user", ev.User)

	if ev.ID != "" {
		if ref, ok := w.exported.Get(ev.ID); ok {
			slog.InfoContext(ctx, "Ledger event already exported, skipping",
				"id", ev.ID, "sheets_ref", ref)
			return nil
		}
	}

	ref, err := w.exporter.ExportEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("export event %s: %w", ev.ID, err)
	}
	if ev.ID != "" {
		w.exported.Set(ev.ID, ref)
	}

	slog.InfoContext(ctx, "Successfully exported ledger event",
		"id", ev.ID,
		"type", ev.Type,
		"sheets_ref", ref,
		"percent_used", ev.Status.PercentUsed)
	return nil
}

// Cache exposes the exported-ID cache for periodic cleanup.
func (w *ExportWorker) Cache() cache.Cleaner {
	return w.exported
}
