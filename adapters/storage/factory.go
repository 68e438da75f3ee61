package storage

import (
	"io"

	"premium-estimator/internal/config"
	"premium-estimator/internal/errors"
)

// New creates the store selected by the storage configuration
func New(cfg config.StorageConfig) (Store, error) {
	switch Backend(cfg.Backend) {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		path := cfg.Path
		if path == "" {
			path = ".premium-estimator"
		}
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, errors.Config("unsupported storage backend: " + cfg.Backend)
	}
}

// Ensure interfaces are implemented
var (
	_ Store     = (*MemoryStore)(nil)
	_ Store     = (*FileStore)(nil)
	_ Store     = (*SQLiteStore)(nil)
	_ io.Closer = (*SQLiteStore)(nil)
)
