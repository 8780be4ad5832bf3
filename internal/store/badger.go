package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/ogero/mediacatalog/internal/common"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	itemKeyPrefix    = []byte("item:")
	schemaVersionKey = []byte("meta:schema_version")
)

type badgerStore struct {
	db *badger.DB
}

// OpenBadger opens a badger store at path. An empty path opens an in-memory store.
func OpenBadger(path string) (Store, error) {
	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1).
		WithSyncWrites(true).
		WithValueLogFileSize(1024 * 1024 * 100).
		WithLogger(&l{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("failed to badger.Open: %w", err)}
	}

	s := &badgerStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema writes the schema version on first use and verifies it afterwards.
func (s *badgerStore) initSchema() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry, err := txn.Get(schemaVersionKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(schemaVersionKey, []byte(strconv.Itoa(SchemaVersion)))
		}
		if err != nil {
			return err
		}

		return entry.Value(func(val []byte) error {
			version, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("corrupt schema version %q", val)
			}
			if version != SchemaVersion {
				return fmt.Errorf("schema version %d, want %d", version, SchemaVersion)
			}
			return nil
		})
	})
	if err != nil {
		return &StorageError{Op: "init", Err: err}
	}
	return nil
}

func itemKey(id string) []byte {
	return append(append([]byte{}, itemKeyPrefix...), id...)
}

// Put upserts item by ID.
func (s *badgerStore) Put(ctx context.Context, item catalog.Item) error {

	_, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "store.Badger.Put")
	defer span.End()

	span.SetAttributes(attribute.String("item.id", item.ID))

	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Err: err}
	}

	data, err := json.Marshal(item)
	if err != nil {
		return &StorageError{Op: "put", Err: fmt.Errorf("failed to json.Marshal: %w", err)}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ID), data)
	})
	if err != nil {
		span.RecordError(err)
		return &StorageError{Op: "put", Err: fmt.Errorf("failed to badger.DB.Update: %w", err)}
	}

	return nil
}

// GetAll returns every stored item in key order.
func (s *badgerStore) GetAll(ctx context.Context) ([]catalog.Item, error) {

	_, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "store.Badger.GetAll")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "get_all", Err: err}
	}

	items := []catalog.Item{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(itemKeyPrefix); it.ValidForPrefix(itemKeyPrefix); it.Next() {
			var item catalog.Item
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				return fmt.Errorf("failed to decode %q: %w", it.Item().Key(), err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, &StorageError{Op: "get_all", Err: fmt.Errorf("failed to badger.DB.View: %w", err)}
	}
	span.SetAttributes(attribute.Int("items.count", len(items)))

	return items, nil
}

// Close closes the DB. It's crucial to call it to ensure all the pending updates make their way to disk.
func (s *badgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// l routes badger's internal logging to the app logger.
type l struct{}

func (l *l) Errorf(s string, i ...interface{}) {
	common.Log.Error("badger", "msg", fmt.Sprintf(s, i...))
}

func (l *l) Warningf(s string, i ...interface{}) {
	common.Log.Warn("badger", "msg", fmt.Sprintf(s, i...))
}

func (l *l) Infof(s string, i ...interface{}) {
	common.Log.Debug("badger", "msg", fmt.Sprintf(s, i...))
}

func (l *l) Debugf(s string, i ...interface{}) {
	common.Log.Debug("badger", "msg", fmt.Sprintf(s, i...))
}
