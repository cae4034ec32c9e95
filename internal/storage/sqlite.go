// Package storage provides a SQLite-backed entry store. The database lives
// in process memory only and is gone when the store is closed.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"ledger/internal/core"
	"ledger/internal/log"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// MemoryDSN returns the shared-cache in-memory DSN for a database name.
// Stores opened with the same name in one process share a database.
func MemoryDSN(name string) string {
	return "file:" + url.PathEscape(name) + "?mode=memory&cache=shared"
}

// NewSQLiteStore opens the in-memory database called name and migrates it.
func NewSQLiteStore(name string, logger *log.Logger) (*SQLiteStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("sqlite database name cannot be empty")
	}
	if logger == nil {
		logger = log.Discard()
	}
	dsn := MemoryDSN(name)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A memory database disappears with its last connection, so the pool
	// keeps exactly one open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}
	version, err := s.upgradeSchema(dsn)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("Entries schema ready",
		"db_name", name,
		"schema_version", version,
		log.FieldOperation, log.OpMigrate)

	return s, nil
}

// upgradeSchema applies the embedded migrations to the database behind dsn
// and returns the resulting schema version. golang-migrate closes the
// connection it is given, so it gets one of its own; the shared cache
// makes it the same database the store sees.
func (s *SQLiteStore) upgradeSchema(dsn string) (uint, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return 0, fmt.Errorf("open schema connection: %w", err)
	}
	defer conn.Close()

	target, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("schema driver: %w", err)
	}
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("schema source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("schema migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("upgrade entries schema: %w", err)
	}
	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append implements ledger.Store.
func (s *SQLiteStore) Append(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, kind, amount_cents, category_value, category_label, category_color, category_icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		string(e.Kind),
		e.Amount.Cents,
		e.Category.Value,
		e.Category.Label,
		e.Category.Color,
		e.Category.Icon,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	s.logger.DebugContext(ctx, "Entry saved to SQLite",
		log.FieldEntryID, e.ID,
		log.FieldKind, string(e.Kind),
		log.FieldAmount, e.Amount.String())
	return nil
}

// List implements ledger.Store.
func (s *SQLiteStore) List(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, amount_cents, category_value, category_label, category_color, category_icon, created_at
		FROM entries
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var (
			e         core.Entry
			kind      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Amount.Cents,
			&e.Category.Value, &e.Category.Label, &e.Category.Color, &e.Category.Icon,
			&createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = core.Kind(kind)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// Sum implements ledger.Summer with one aggregate query per call.
func (s *SQLiteStore) Sum(ctx context.Context) (core.Totals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM entries
		GROUP BY kind`)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum entries: %w", err)
	}
	defer rows.Close()

	var t core.Totals
	for rows.Next() {
		var (
			kind  string
			cents int64
			count int
		)
		if err := rows.Scan(&kind, &cents, &count); err != nil {
			return core.Totals{}, fmt.Errorf("scan sum: %w", err)
		}
		switch core.Kind(kind) {
		case core.Income:
			t.Income = core.Money{Cents: cents}
		case core.Expense:
			t.Expense = core.Money{Cents: cents}
		}
		t.Count += count
	}
	if err := rows.Err(); err != nil {
		return core.Totals{}, fmt.Errorf("iterate sums: %w", err)
	}

	t.Balance = t.Income.Sub(t.Expense)
	return t, nil
}
