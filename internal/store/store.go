package store

import (
	"context"
	"fmt"

	"github.com/ogero/mediacatalog/pkg/catalog"
)

// SchemaVersion is the layout version written on first use. Bump only on breaking layout changes.
const SchemaVersion = 1

const (
	// DriverBadger selects the badger key-value backend.
	DriverBadger = "badger"
	// DriverSQLite selects the SQLite backend.
	DriverSQLite = "sqlite"
)

// StorageError reports that the durable medium is unavailable or rejected an operation.
type StorageError struct {
	// Op is the store operation that failed, e.g. "put".
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is the durable mapping from item id to Item.
type Store interface {
	// Put upserts item by ID and returns once the write is durable.
	Put(ctx context.Context, item catalog.Item) error
	// GetAll returns every stored item. Order carries no meaning.
	GetAll(ctx context.Context) ([]catalog.Item, error)
	// Close releases the underlying medium.
	Close() error
}

// Open opens the store for driver at path, creating its schema if absent.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverBadger, "":
		return OpenBadger(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("unknown driver %q", driver)}
	}
}
