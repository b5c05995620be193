package usecase

import (
	"context"
	"geonews/internal/domain"
)

// RecordReader определяет интерфейс чтения накопленных записей.
type RecordReader interface {
	GetRecords(ctx context.Context, limit int) ([]domain.Record, error)
}

// RecordGetterUseCase отдает накопленные записи для HTTP-слоя.
type RecordGetterUseCase struct {
	storage RecordReader
}

func NewRecordGetterUseCase(s RecordReader) *RecordGetterUseCase {
	return &RecordGetterUseCase{storage: s}
}

// GetRecords возвращает не более limit последних записей, новые первыми.
func (uc *RecordGetterUseCase) GetRecords(ctx context.Context, limit int) ([]domain.Record, error) {
	return uc.storage.GetRecords(ctx, limit)
}
