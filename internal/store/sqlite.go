package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ogero/mediacatalog/pkg/catalog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite store. A directory path gets a catalog.db file inside it.
func OpenSQLite(path string) (Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "catalog.db")
	} else if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Err: fmt.Errorf("failed to os.MkdirAll: %w", err)}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("failed to sql.Open: %w", err)}
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, &StorageError{Op: "open", Err: fmt.Errorf("apply pragma %q: %w", pragma, err)}
		}
	}

	s := &sqliteStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates the items table if absent and records the schema version in user_version.
func (s *sqliteStore) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "init", Err: fmt.Errorf("failed to sql.DB.BeginTx: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return &StorageError{Op: "init", Err: fmt.Errorf("read user_version: %w", err)}
	}
	if version != 0 && version != SchemaVersion {
		return &StorageError{Op: "init", Err: fmt.Errorf("schema version %d, want %d", version, SchemaVersion)}
	}

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS items (
            id   TEXT PRIMARY KEY,
            data TEXT NOT NULL
        )`); err != nil {
		return &StorageError{Op: "init", Err: fmt.Errorf("create items table: %w", err)}
	}

	if version == 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return &StorageError{Op: "init", Err: fmt.Errorf("write user_version: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "init", Err: fmt.Errorf("failed to sql.Tx.Commit: %w", err)}
	}
	return nil
}

// Put upserts item by ID.
func (s *sqliteStore) Put(ctx context.Context, item catalog.Item) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "store.SQLite.Put")
	defer span.End()

	span.SetAttributes(attribute.String("item.id", item.ID))

	data, err := json.Marshal(item)
	if err != nil {
		return &StorageError{Op: "put", Err: fmt.Errorf("failed to json.Marshal: %w", err)}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, data) VALUES (?, ?)
         ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		item.ID, string(data),
	)
	if err != nil {
		span.RecordError(err)
		return &StorageError{Op: "put", Err: fmt.Errorf("upsert item: %w", err)}
	}

	return nil
}

// GetAll returns every stored item in insertion order.
func (s *sqliteStore) GetAll(ctx context.Context) ([]catalog.Item, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "store.SQLite.GetAll")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM items ORDER BY rowid`)
	if err != nil {
		span.RecordError(err)
		return nil, &StorageError{Op: "get_all", Err: fmt.Errorf("query items: %w", err)}
	}
	defer rows.Close()

	items := []catalog.Item{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, &StorageError{Op: "get_all", Err: fmt.Errorf("scan item: %w", err)}
		}
		var item catalog.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, &StorageError{Op: "get_all", Err: fmt.Errorf("failed to decode %q: %w", id, err)}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "get_all", Err: fmt.Errorf("iterate items: %w", err)}
	}
	span.SetAttributes(attribute.Int("items.count", len(items)))

	return items, nil
}

// Close closes the underlying database connection.
func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
