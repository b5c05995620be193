package storage

import (
	"context"
	"fmt"
	"geonews/internal/config"
	"geonews/internal/domain"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecordDB хранит записи в PostgreSQL: шапку записи в headline_records,
// заголовки - в headlines с сохранением порядка.
type PostgresRecordDB struct {
	pool         *pgxpool.Pool
	log          *slog.Logger
	defaultLimit int
}

func NewPostgresRecordDB(pool *pgxpool.Pool, appCfg config.AppConfig, log *slog.Logger) *PostgresRecordDB {
	log.Info("Initializing Postgres record storage")
	return &PostgresRecordDB{
		pool:         pool,
		log:          log,
		defaultLimit: appCfg.DefaultRecordLimit,
	}
}

func (db *PostgresRecordDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveRecord сохраняет запись и ее заголовки в одной транзакции.
func (db *PostgresRecordDB) SaveRecord(ctx context.Context, record *domain.Record) (err error) {
	const op = "storage.postgres.SaveRecord"
	log := db.log.With(slog.String("op", op), slog.String("record_id", record.ID))
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
			}
		}
	}()
	_, err = tx.Exec(ctx, `
	INSERT INTO headline_records (id, country, country_code, lat, lon, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`, record.ID, record.Country, record.Code, record.Coords.Lat, record.Coords.Lon, record.FetchedAt)
	if err != nil {
		log.Error("Failed to insert record", slog.Any("error", err))
		return fmt.Errorf("%s: failed to insert record: %w", op, err)
	}
	if len(record.Feed) > 0 {
		batch := &pgx.Batch{}
		query := `
		INSERT INTO headlines (record_id, position, title, link, source, published_at)
		VALUES ($1, $2, $3, $4, $5, $6);
		`
		for i, h := range record.Feed {
			batch.Queue(query, record.ID, i, h.Title, h.Link, h.Source, nullableTime(h.PublishedAt))
		}
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			log.Error("Failed to execute batch", slog.Any("error", err))
			return fmt.Errorf("%s: failed to insert headlines: %w", op, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

func (db *PostgresRecordDB) GetRecords(ctx context.Context, n int) ([]domain.Record, error) {
	limit := n
	if limit <= 0 {
		limit = db.defaultLimit
	}
	const op = "storage.postgres.GetRecords"
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	rows, err := db.pool.Query(ctx, `
	SELECT id, country, country_code, lat, lon, fetched_at
	FROM headline_records
	ORDER BY fetched_at DESC, seq DESC
	LIMIT $1;
	`, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Record, error) {
		var r domain.Record
		err := row.Scan(&r.ID, &r.Country, &r.Code, &r.Coords.Lat, &r.Coords.Lon, &r.FetchedAt)
		r.FetchedAt = r.FetchedAt.UTC()
		return r, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan record: %w", op, err)
	}
	if len(records) == 0 {
		return records, nil
	}
	ids := make([]string, len(records))
	index := make(map[string]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
		index[r.ID] = i
		records[i].Feed = []domain.Headline{}
	}
	hrows, err := db.pool.Query(ctx, `
	SELECT record_id, title, link, source, published_at
	FROM headlines
	WHERE record_id = ANY($1)
	ORDER BY record_id, position;
	`, ids)
	if err != nil {
		log.Error("Headlines query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to query headlines: %w", op, err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var (
			recordID  string
			h         domain.Headline
			published *time.Time
		)
		if err := hrows.Scan(&recordID, &h.Title, &h.Link, &h.Source, &published); err != nil {
			log.Error("Failed to scan headline", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to scan headline: %w", op, err)
		}
		if published != nil {
			h.PublishedAt = published.UTC()
		}
		i := index[recordID]
		records[i].Feed = append(records[i].Feed, h)
	}
	if err := hrows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read headlines: %w", op, err)
	}
	log.Debug("Successfully retrieved records", slog.Int("count", len(records)))
	return records, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
