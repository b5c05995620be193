package storage

import (
	"context"
	"errors"
	"geonews/internal/domain"
)

// ErrUnknownDriver возвращается при неизвестном драйвере хранилища.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Storage определяет общий интерфейс накопителя записей о заголовках.
// GetRecords возвращает не более limit последних записей, новые первыми;
// limit <= 0 означает лимит хранилища по умолчанию.
type Storage interface {
	SaveRecord(ctx context.Context, record *domain.Record) error
	GetRecords(ctx context.Context, limit int) ([]domain.Record, error)
	Close()
}
