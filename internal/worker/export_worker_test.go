package worker

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/core"
)

type fakeExporter struct {
	calls []core.LedgerEvent
	err   error
}

func (f *fakeExporter) ExportEvent(_ context.Context, ev core.LedgerEvent) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, ev)
	return "Events!A2:L2", nil
}

func TestHandleEventExportsOnce(t *testing.T) {
	ctx := context.Background()
	exp := &fakeExporter{}
	w := NewExportWorker(exp)
	ev := core.LedgerEvent{ID: "evt-1", Type: core.EventExpenseAdded, User: "alice"}

	for i := 0; i < 3; i++ {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	if len(exp.calls) != 1 {
		t.Fatalf("exported %d times, want 1", len(exp.calls))
	}

	if err := w.HandleEvent(ctx, core.LedgerEvent{ID: "evt-2", Type: core.EventBudgetSet, User: "alice"}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(exp.calls) != 2 {
		t.Fatalf("exported %d times, want 2", len(exp.calls))
	}
}

func TestHandleEventWithoutIDAlwaysExports(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(exp)
	ev := core.LedgerEvent{Type: core.EventMonthClosed, User: "bob"}

	_ = w.HandleEvent(context.Background(), ev)
	_ = w.HandleEvent(context.Background(), ev)
	if len(exp.calls) != 2 {
		t.Fatalf("exported %d times, want 2", len(exp.calls))
	}
}

func TestHandleEventReturnsExportError(t *testing.T) {
	ctx := context.Background()
	exp := &fakeExporter{err: errors.New("quota exceeded")}
	w := NewExportWorker(exp)
	ev := core.LedgerEvent{ID: "evt-1", Type: core.EventExpenseAdded, User: "alice"}

	if err := w.HandleEvent(ctx, ev); err == nil {
		t.Fatal("expected export error")
	}

	// a failed export must not be remembered as done
	exp.err = nil
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(exp.calls) != 1 {
		t.Fatalf("expected retry to export, got %d calls", len(exp.calls))
	}
}
