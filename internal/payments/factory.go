package payments

import "fmt"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StoreConfig selects and configures an intent store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`
	// DSN is the connection string for the postgres backend.
	DSN string `yaml:"dsn"`
}

// NewIntentStore builds the configured backend. An empty backend means
// memory.
func NewIntentStore(cfg StoreConfig) (IntentStore, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = "payments.db"
		}
		return NewSQLiteStore(path)
	case BackendPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres intent store requires a dsn")
		}
		return NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown intent store backend %q", cfg.Backend)
	}
}
