package backend

import (
	"context"

	"kharcha/internal/ports"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Stores is the storage handle set injected into the tracker. The registry
// is always SQLite; ledgers and markers follow the selected backend.
type Stores struct {
	Registry ports.UserRegistry
	Ledgers  ports.LedgerStore
	Markers  ports.MarkerStore
	Cleanup  CleanupFunc
}

// Factory creates the storage handles based on configuration
type Factory interface {
	CreateStores(ctx context.Context, config Config) (*Stores, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Always used, for the user registry
	SQLiteDBPath string

	// Files backend
	LedgerDir string
	MarkerDir string
}

// BackendType selects where ledgers and rollover markers live.
type BackendType string

const (
	FilesBackend  BackendType = "files"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FilesBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
