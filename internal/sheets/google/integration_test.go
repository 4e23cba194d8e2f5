//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"kharcha/internal/core"
)

// Integration tests require a real spreadsheet and service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ev := core.LedgerEvent{
		ID:         "integration-" + time.Now().Format("20060102150405"),
		Type:       core.EventExpenseAdded,
		User:       "integration",
		MonthKey:   core.MonthKey(time.Now()),
		Category:   core.Others,
		Amount:     1,
		OccurredAt: time.Now(),
	}
	ref, err := client.ExportEvent(ctx, ev)
	if err != nil {
		t.Fatalf("ExportEvent: %v", err)
	}
	if !strings.Contains(ref, "!") {
		t.Errorf("expected an A1 range reference, got %q", ref)
	}
	t.Logf("exported to %s", ref)
}
