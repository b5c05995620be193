package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20240301120000_create_headline_records_table",
		UpSQL: `
		CREATE TABLE headline_records(
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		country_code CHAR(2) NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX headline_records_fetched_at_idx ON headline_records (fetched_at DESC);`,
	},
	{
		ID: "20240301120100_create_headlines_table",
		UpSQL: `
		CREATE TABLE headlines(
		record_id TEXT NOT NULL REFERENCES headline_records(id) ON DELETE CASCADE,
		position INT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		PRIMARY KEY (record_id, position)
		);`,
	},
	{
		ID: "20240315090000_add_headline_records_seq",
		UpSQL: `
		ALTER TABLE headline_records ADD COLUMN seq BIGSERIAL;
		DROP INDEX IF EXISTS headline_records_fetched_at_idx;
		CREATE INDEX headline_records_order_idx ON headline_records (fetched_at DESC, seq DESC);`,
	},
}

// Sorted возвращает миграции в порядке применения.
func Sorted() []Migration {
	out := append([]Migration(nil), allMigrations...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Apply применяет все непримененные миграции к базе данных в одной транзакции.
func Apply(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
	id TEXT PRIMARY KEY
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	rows, err := pool.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	appliedMigrations := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration id: %w", err)
		}
		appliedMigrations[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	pending := Pending(appliedMigrations)
	if len(pending) == 0 {
		log.Info("Database is up to date, no new migrations found.")
		return nil
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	for _, m := range pending {
		log.Info("Applying migration", slog.String("id", m.ID))
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	log.Info("Database migrations applied successfully", slog.Int("count", len(pending)))
	return nil
}

// Pending возвращает отсортированные миграции, которых нет среди applied.
func Pending(applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range Sorted() {
		if !applied[m.ID] {
			out = append(out, m)
		}
	}
	return out
}
