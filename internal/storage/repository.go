package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kharcha/internal/core"
	"kharcha/internal/ports"

	_ "modernc.org/sqlite"
)

// SQLiteRepository holds the user registry and, when the sqlite ledger
// backend is selected, ledgers and rollover markers.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.UserRegistry = (*SQLiteRepository)(nil)
	_ ports.LedgerStore  = (*SQLiteRepository)(nil)
	_ ports.MarkerStore  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer; sessions are serial anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Register implements ports.UserRegistry.
func (r *SQLiteRepository) Register(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (name) VALUES (?)`, name)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "User registered", "user", name)
	}
	return n > 0, nil
}

// Users implements ports.UserRegistry.
func (r *SQLiteRepository) Users(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Load implements ports.LedgerStore.
func (r *SQLiteRepository) Load(ctx context.Context, user string) (core.Ledger, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, total FROM ledger_entries WHERE user_name = ? ORDER BY position`, user)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var l core.Ledger
	for rows.Next() {
		var (
			cat   string
			total sql.NullFloat64
		)
		if err := rows.Scan(&cat, &total); err != nil {
			return core.Ledger{}, fmt.Errorf("scan ledger entry: %w", err)
		}
		l.Entries = append(l.Entries, core.Entry{Category: cat, Total: core.FiniteTotal(total.Float64)})
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate ledger: %w", err)
	}
	if len(l.Entries) == 0 {
		return core.NewLedger(), nil
	}
	return l.Normalize(), nil
}

// Save implements ports.LedgerStore. Existing rows are replaced in one
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, user string, l core.Ledger) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE user_name = ?`, user); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for i, e := range l.Entries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (user_name, position, category, total) VALUES (?, ?, ?, ?)`,
			user, i, e.Category, e.Total); err != nil {
			return fmt.Errorf("insert ledger entry %s: %w", e.Category, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

// ReadMarker implements ports.MarkerStore.
func (r *SQLiteRepository) ReadMarker(ctx context.Context, user string) (string, error) {
	var key string
	err := r.db.QueryRowContext(ctx,
		`SELECT month_key FROM rollover_markers WHERE user_name = ?`, user).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read marker: %w", err)
	}
	return key, nil
}

// WriteMarker implements ports.MarkerStore.
func (r *SQLiteRepository) WriteMarker(ctx context.Context, user string, monthKey string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rollover_markers (user_name, month_key) VALUES (?, ?)
		ON CONFLICT(user_name) DO UPDATE SET month_key = excluded.month_key, updated_at = CURRENT_TIMESTAMP`,
		user, monthKey)
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
