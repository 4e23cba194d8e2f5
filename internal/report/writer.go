// Package report writes the per-user monthly text reports.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

const (
	headerPrefix  = "Expense Report for "
	budgetPrefix  = "Budget: "
	columnsHeader = "Timestamp | Category | Amount"
	reportExt     = ".txt"
)

// Writer appends to {dir}/{user}_{Month_YYYY}.txt. It reads the current
// budget through the ledger store when a header has to be written.
type Writer struct {
	dir     string
	ledgers ports.LedgerStore
}

var _ ports.ReportWriter = (*Writer)(nil)

func NewWriter(dir string, ledgers ports.LedgerStore) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &Writer{dir: dir, ledgers: ledgers}, nil
}

// Name returns the report file name for user and month.
func Name(user string, month time.Time) string {
	return user + "_" + core.MonthLabel(month) + reportExt
}

// Path returns the report file of user for month.
func (w *Writer) Path(user string, month time.Time) string {
	return filepath.Join(w.dir, Name(user, month))
}

// EnsureExists writes the header iff the report is absent and the user's
// budget is positive. It never touches an existing file.
func (w *Writer) EnsureExists(ctx context.Context, user string, month time.Time) (string, bool, error) {
	path := w.Path(user, month)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return path, false, fmt.Errorf("stat report: %w", err)
	}

	l, err := w.ledgers.Load(ctx, user)
	if err != nil {
		return path, false, fmt.Errorf("load ledger: %w", err)
	}
	budget := l.Budget()
	if budget <= 0 {
		return path, false, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return path, false, nil
	}
	if err != nil {
		return path, false, fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header(user, month, budget)); err != nil {
		return path, false, fmt.Errorf("write report header: %w", err)
	}
	slog.InfoContext(ctx, "Monthly report created", "user", user, "report", filepath.Base(path))
	return path, true, nil
}

// AppendExpense adds one timestamped line to the report of at's month.
// The category is not checked here.
func (w *Writer) AppendExpense(ctx context.Context, user, category string, amount float64, at time.Time) error {
	if _, _, err := w.EnsureExists(ctx, user, at); err != nil {
		return err
	}
	line := fmt.Sprintf("%s | %s | %s\n", core.Timestamp(at), category, core.FormatAmount(amount))
	return w.appendTo(w.Path(user, at), line)
}

// Finalize appends the month end summary computed from l to month's report.
func (w *Writer) Finalize(ctx context.Context, user string, l core.Ledger, month time.Time) error {
	st := core.Evaluate(l)
	var b strings.Builder
	b.WriteString("\n---- Month End Summary ----\n")
	fmt.Fprintf(&b, "Total Expenses: %s\n", core.FormatAmount(st.TotalExpenses))
	fmt.Fprintf(&b, "Remaining: %s\n", core.FormatAmount(st.Remaining))
	fmt.Fprintf(&b, "Percent Used: %s%%\n", core.FormatFixed(st.PercentUsed))
	fmt.Fprintf(&b, "Status: %s\n", st.Tier().ReportLabel())
	fmt.Fprintf(&b, "Closed on: %s\n", core.ClosingDate(month))

	if err := w.appendTo(w.Path(user, month), b.String()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Monthly report finalized",
		"user", user, "month", core.MonthKey(month), "tier", st.Tier().String())
	return nil
}

// UpdateBudget rewrites the header of an existing report with budget and
// keeps every expense line. A missing report is left alone.
func (w *Writer) UpdateBudget(ctx context.Context, user string, month time.Time, budget float64) error {
	path := w.Path(user, month)
	old, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	var body []byte
	if bytes.HasPrefix(old, []byte(headerPrefix)) {
		// drop the title and budget lines, keep the rest verbatim
		body = dropLines(old, 2)
	} else {
		// report was started before any budget existed
		body = append([]byte(columnsHeader+"\n"), old...)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s%s - %s\n", headerPrefix, user, core.MonthTitle(month))
	fmt.Fprintf(&b, "%s%s\n", budgetPrefix, core.FormatAmount(budget))
	b.Write(body)

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return fmt.Errorf("rewrite report: %w", err)
	}
	slog.InfoContext(ctx, "Report budget updated", "user", user, "report", filepath.Base(path))
	return nil
}

// List returns the user's report names, newest name first.
func (w *Writer) List(_ context.Context, user string) ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !ownsReport(user, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Read returns the contents of one of the user's reports.
func (w *Writer) Read(_ context.Context, user, name string) ([]byte, error) {
	if !ownsReport(user, name) {
		return nil, core.ErrReportNotFound
	}
	b, err := os.ReadFile(filepath.Join(w.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return b, nil
}

func (w *Writer) appendTo(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("append report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

func header(user string, month time.Time, budget float64) string {
	return fmt.Sprintf("%s%s - %s\n%s%s\n%s\n",
		headerPrefix, user, core.MonthTitle(month),
		budgetPrefix, core.FormatAmount(budget),
		columnsHeader)
}

func ownsReport(user, name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	label, ok := strings.CutPrefix(name, user+"_")
	if !ok {
		return false
	}
	label, ok = strings.CutSuffix(label, reportExt)
	return ok && core.IsMonthLabel(label)
}

func dropLines(b []byte, n int) []byte {
	offset := 0
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(b[offset:], '\n')
		if idx < 0 {
			return nil
		}
		offset += idx + 1
	}
	return b[offset:]
}
