package kv

import (
	"context"
	"fmt"

	"github.com/pders01/draftkeeper/internal/config"
	"github.com/spf13/afero"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(afero.NewOsFs(), cfg.Dir)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
