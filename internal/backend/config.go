package backend

import (
	"fmt"

	"kharcha/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.LedgerBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.LedgerBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		LedgerDir:    appConfig.LedgerDir(),
		MarkerDir:    appConfig.MarkersDir(),
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for the user registry")
	}
	if c.Type == FilesBackend && (c.LedgerDir == "" || c.MarkerDir == "") {
		return fmt.Errorf("ledger and marker directories are required for files backend")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FilesBackend, SQLiteBackend}
}
