package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomas1pit/loop-calendar-bot/internal/migrations"
)

// DB is the connection surface the migration runner needs. *pgxpool.Pool
// satisfies it; tests supply a mock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

const recordVersionSQL = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`

// ApplyMigrations brings the schema up to date from the SQL files embedded
// in internal/migrations, applied in lexical order. A populated database
// without a tracking table is treated as already carrying the baseline
// schema: the first file is recorded as applied but never replayed.
func ApplyMigrations(ctx context.Context, db DB) error {
	files, err := migrationFiles()
	if err != nil || len(files) == 0 {
		return err
	}

	m := migrator{db: db}
	if err := m.bootstrap(ctx, files[0]); err != nil {
		return err
	}
	for _, name := range files {
		if err := m.applyOnce(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

type migrator struct {
	db DB
}

func migrationFiles() ([]string, error) {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// bootstrap creates the tracking table on first contact with a database,
// recording the baseline file as applied when other tables already exist.
func (m migrator) bootstrap(ctx context.Context, baseline string) error {
	var tracked bool
	err := m.db.QueryRow(ctx,
		`SELECT to_regclass('public.schema_migrations') IS NOT NULL`).Scan(&tracked)
	if err != nil {
		return fmt.Errorf("check migration table: %w", err)
	}
	if tracked {
		return nil
	}

	var tables int
	err = m.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`).Scan(&tables)
	if err != nil {
		return fmt.Errorf("count tables: %w", err)
	}

	_, err = m.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	if tables > 0 {
		if _, err := m.db.Exec(ctx, recordVersionSQL, baseline); err != nil {
			return fmt.Errorf("record baseline %s: %w", baseline, err)
		}
	}
	return nil
}

// applyOnce runs one migration and its tracking insert in a single
// transaction, skipping files the tracking table already lists.
func (m migrator) applyOnce(ctx context.Context, name string) error {
	var done bool
	err := m.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, name).Scan(&done)
	if err != nil {
		return fmt.Errorf("check migration %s: %w", name, err)
	}
	if done {
		return nil
	}

	contents, err := migrations.Files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, recordVersionSQL, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
