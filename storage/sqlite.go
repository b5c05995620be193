package storage

import (
	"context"
	"database/sql"
	"fmt"
	"geonews/internal/domain"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS headline_records (
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		country_code TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		fetched_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS headline_records_fetched_at_idx ON headline_records (fetched_at DESC)`,
	`CREATE TABLE IF NOT EXISTS headlines (
		record_id TEXT NOT NULL REFERENCES headline_records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		published_at INTEGER,
		PRIMARY KEY (record_id, position)
	)`,
}

// SQLiteRecordDB хранит записи в файле SQLite. Схема совпадает с PostgreSQL,
// время хранится в наносекундах Unix.
type SQLiteRecordDB struct {
	db           *sql.DB
	log          *slog.Logger
	defaultLimit int
}

// NewSQLiteRecordDB открывает (или создает) базу по пути path и применяет схему.
// Путь ":memory:" открывает базу в памяти.
func NewSQLiteRecordDB(ctx context.Context, path string, defaultLimit int, log *slog.Logger) (*SQLiteRecordDB, error) {
	log.Info("Initializing SQLite record storage", slog.String("path", path))
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{"PRAGMA foreign_keys=ON"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, stmt := range append(pragmas, sqliteSchema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
		}
	}
	return &SQLiteRecordDB{db: db, log: log, defaultLimit: defaultLimit}, nil
}

func (s *SQLiteRecordDB) Close() {
	s.log.Info("Closing SQLite database")
	if err := s.db.Close(); err != nil {
		s.log.Error("Failed to close SQLite database", slog.Any("error", err))
	}
}

func (s *SQLiteRecordDB) SaveRecord(ctx context.Context, record *domain.Record) (err error) {
	const op = "storage.sqlite.SaveRecord"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.log.Error("Failed to rollback transaction", slog.String("op", op), slog.Any("error", rollbackErr))
			}
		}
	}()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO headline_records (id, country, country_code, lat, lon, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Country, record.Code, record.Coords.Lat, record.Coords.Lon, record.FetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert record: %w", op, err)
	}
	for i, h := range record.Feed {
		var published any
		if !h.PublishedAt.IsZero() {
			published = h.PublishedAt.UnixNano()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO headlines (record_id, position, title, link, source, published_at) VALUES (?, ?, ?, ?, ?, ?)`,
			record.ID, i, h.Title, h.Link, h.Source, published,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to insert headline: %w", op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

func (s *SQLiteRecordDB) GetRecords(ctx context.Context, n int) ([]domain.Record, error) {
	const op = "storage.sqlite.GetRecords"
	limit := n
	if limit <= 0 {
		limit = s.defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, country_code, lat, lon, fetched_at
		FROM headline_records
		ORDER BY fetched_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	var records []domain.Record
	index := make(map[string]int)
	for rows.Next() {
		var r domain.Record
		var fetched int64
		if err := rows.Scan(&r.ID, &r.Country, &r.Code, &r.Coords.Lat, &r.Coords.Lon, &fetched); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: failed to scan record: %w", op, err)
		}
		r.FetchedAt = time.Unix(0, fetched).UTC()
		r.Feed = []domain.Headline{}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read records: %w", op, err)
	}
	if len(records) == 0 {
		return []domain.Record{}, nil
	}

	args := make([]any, len(records))
	for i, r := range records {
		args[i] = r.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(records)), ",")
	hrows, err := s.db.QueryContext(ctx, `
		SELECT record_id, title, link, source, published_at
		FROM headlines
		WHERE record_id IN (`+placeholders+`)
		ORDER BY record_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query headlines: %w", op, err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			recordID  string
			h         domain.Headline
			published sql.NullInt64
		)
		if err := hrows.Scan(&recordID, &h.Title, &h.Link, &h.Source, &published); err != nil {
			return nil, fmt.Errorf("%s: failed to scan headline: %w", op, err)
		}
		if published.Valid {
			h.PublishedAt = time.Unix(0, published.Int64).UTC()
		}
		i := index[recordID]
		records[i].Feed = append(records[i].Feed, h)
	}
	if err := hrows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read headlines: %w", op, err)
	}
	return records, nil
}
