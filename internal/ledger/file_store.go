// Package ledger stores per-user ledgers and rollover markers as plain files.
//
// A ledger is a two-column CSV (Categories,Total) with one row per category
// and a reserved Budget row. A rollover marker is a text file holding a
// single YYYY-MM month key.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

const (
	categoriesColumn = "Categories"
	totalColumn      = "Total"
)

// FileStore keeps ledgers in ledgerDir/{user}.csv and markers in
// markerDir/{user}.txt.
type FileStore struct {
	ledgerDir string
	markerDir string
}

var (
	_ ports.LedgerStore = (*FileStore)(nil)
	_ ports.MarkerStore = (*FileStore)(nil)
)

// NewFileStore creates both directories if needed.
func NewFileStore(ledgerDir, markerDir string) (*FileStore, error) {
	for _, dir := range []string{ledgerDir, markerDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &FileStore{ledgerDir: ledgerDir, markerDir: markerDir}, nil
}

// LedgerPath returns the CSV file of a user.
func (s *FileStore) LedgerPath(user string) string {
	return filepath.Join(s.ledgerDir, user+".csv")
}

// MarkerPath returns the rollover marker file of a user.
func (s *FileStore) MarkerPath(user string) string {
	return filepath.Join(s.markerDir, user+".txt")
}

// Load returns the user's ledger, or a fresh one when no file exists.
func (s *FileStore) Load(_ context.Context, user string) (core.Ledger, error) {
	f, err := os.Open(s.LedgerPath(user))
	if errors.Is(err, fs.ErrNotExist) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read ledger csv: %w", err)
	}
	return decodeRecords(records), nil
}

// Save overwrites the user's ledger file.
func (s *FileStore) Save(_ context.Context, user string, l core.Ledger) error {
	path := s.LedgerPath(user)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(encodeRecords(l)); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write ledger csv: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close ledger file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

// ReadMarker returns the stored month key, or "" when none exists.
func (s *FileStore) ReadMarker(_ context.Context, user string) (string, error) {
	b, err := os.ReadFile(s.MarkerPath(user))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read marker: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// WriteMarker overwrites the marker with monthKey.
func (s *FileStore) WriteMarker(_ context.Context, user string, monthKey string) error {
	if err := os.WriteFile(s.MarkerPath(user), []byte(monthKey), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// decodeRecords turns CSV records into a normalized ledger. The first record
// is always the header; unknown layouts fall back to columns 0 and 1.
func decodeRecords(records [][]string) core.Ledger {
	if len(records) == 0 {
		return core.NewLedger()
	}

	catIdx, totalIdx := 0, 1
	for i, h := range records[0] {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case categoriesColumn:
			catIdx = i
		case totalColumn:
			totalIdx = i
		}
	}

	var l core.Ledger
	for _, rec := range records[1:] {
		if catIdx >= len(rec) {
			continue
		}
		cat := strings.TrimSpace(rec[catIdx])
		if cat == "" {
			continue
		}
		var total float64
		if totalIdx < len(rec) {
			total = core.CoerceTotal(rec[totalIdx])
		}
		l.Entries = append(l.Entries, core.Entry{Category: cat, Total: total})
	}
	return l.Normalize()
}

func encodeRecords(l core.Ledger) [][]string {
	records := make([][]string, 0, len(l.Entries)+1)
	records = append(records, []string{categoriesColumn, totalColumn})
	for _, e := range l.Entries {
		records = append(records, []string{e.Category, core.FormatTotal(e.Total)})
	}
	return records
}
