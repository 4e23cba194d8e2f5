package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base name of the events sheet. The year is
// prefixed automatically, e.g. "2025 Events".
const DefaultSheetName = "Events"

// Client appends ledger events as rows of a yearly events sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	now           func() time.Time
}

var _ ports.EventExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Events")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}

	return New(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"),
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a client for spreadsheetID with explicit client options.
func New(ctx context.Context, spreadsheetID, sheetBase string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = DefaultSheetName
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", sheetBase)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase, now: time.Now}, nil
}

// serviceAccountCredentials reads the service account JSON from the
// environment, inline first, then from a file.
func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportEvent implements ports.EventExporter. It returns the updated range,
// e.g. "'2025 Events'!A12:L12".
func (c *Client) ExportEvent(ctx context.Context, ev core.LedgerEvent) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	year := ev.OccurredAt.Year()
	if ev.OccurredAt.IsZero() {
		year = c.now().Year()
	}
	rng := fmt.Sprintf("'%s'!A:L", yearPrefixedName(c.sheetBase, year))
	vr := &gsheet.ValueRange{Values: [][]any{eventRow(ev)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// eventRow lays out one event as
// Timestamp, ID, Type, User, Month, Category, Amount, Budget, Spent,
// Remaining, Percent used, Tier.
func eventRow(ev core.LedgerEvent) []any {
	return []any{
		core.Timestamp(ev.OccurredAt),
		ev.ID,
		string(ev.Type),
		ev.User,
		ev.MonthKey,
		ev.Category,
		core.FormatFixed(ev.Amount),
		core.FormatFixed(ev.Status.Budget),
		core.FormatFixed(ev.Status.TotalExpenses),
		core.FormatFixed(ev.Status.Remaining),
		core.FormatFixed(ev.Status.PercentUsed),
		ev.Status.Tier().String(),
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
