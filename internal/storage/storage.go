// Package storage provides the keyed local storage the stores persist into.
// Every key holds one opaque payload, overwritten as a whole on each write.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when nothing has been stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a keyed payload store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dataDir is used by the file and sqlite
// drivers, dsn by postgres (and by sqlite when set).
func Open(driver, dataDir, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile, "":
		return NewFileStore(dataDir)
	case DriverSQLite:
		if dsn == "" {
			dsn = filepath.Join(dataDir, "pantrypal.db")
		}
		return NewSQLStore(DriverSQLite, dsn)
	case DriverPostgres:
		return NewSQLStore(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
