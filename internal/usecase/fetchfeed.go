package usecase

import (
	"context"
	"geonews/internal/domain"
)

// HeadlineSource определяет интерфейс источника заголовков новостей по стране.
type HeadlineSource interface {
	Headlines(ctx context.Context, country domain.Country) (*domain.Feed, error)
}

// Geocoder определяет интерфейс перевода названия места в координаты.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinates, error)
}

// RecordStorage определяет интерфейс накопителя записей.
type RecordStorage interface {
	SaveRecord(ctx context.Context, record *domain.Record) error
}

// RecordPublisher определяет интерфейс публикации сохраненных записей во внешнюю систему.
type RecordPublisher interface {
	Publish(ctx context.Context, record domain.Record) error
}
