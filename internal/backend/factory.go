package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kharcha/internal/ledger"
	"kharcha/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStores implements Factory.CreateStores
func (f *DefaultFactory) CreateStores(ctx context.Context, config Config) (*Stores, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	stores := &Stores{
		Registry: repo,
		Cleanup:  repo.Close,
	}

	switch config.Type {
	case SQLiteBackend:
		stores.Ledgers = repo
		stores.Markers = repo
	case FilesBackend:
		files, err := ledger.NewFileStore(config.LedgerDir, config.MarkerDir)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		stores.Ledgers = files
		stores.Markers = files
	default:
		repo.Close()
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		"type", config.Type,
		"db_path", config.SQLiteDBPath,
		"ledger_dir", config.LedgerDir)

	return stores, nil
}
