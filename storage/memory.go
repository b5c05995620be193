package storage

import (
	"context"
	"geonews/internal/domain"
	"log/slog"
	"sync"
)

// MemoryStorage - накопитель записей в памяти процесса, только на добавление.
// Дубликаты стран не схлопываются, записи не вытесняются.
type MemoryStorage struct {
	mu           sync.RWMutex
	records      []domain.Record
	defaultLimit int
	log          *slog.Logger
}

func NewMemoryStorage(defaultLimit int, log *slog.Logger) *MemoryStorage {
	log.Info("Initializing in-memory record storage")
	return &MemoryStorage{
		defaultLimit: defaultLimit,
		log:          log,
	}
}

func (s *MemoryStorage) SaveRecord(ctx context.Context, record *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := *record
	rec.Feed = append([]domain.Headline(nil), record.Feed...)
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetRecords(ctx context.Context, limit int) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]domain.Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Len возвращает общее число накопленных записей.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStorage) Close() {
	s.log.Info("Closing in-memory record storage", slog.Int("count", s.Len()))
}
