package usecase

import (
	"context"
	"fmt"
	"geonews/internal/domain"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	StageNews    = "news"
	StageGeocode = "geocode"
	StageSave    = "save"
)

// StageError сообщает, на каком этапе обработки страны произошел сбой.
type StageError struct {
	Stage   string
	Country string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Country, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// HeadlineFetchUseCase получает заголовки и координаты страны и сохраняет запись.
type HeadlineFetchUseCase struct {
	source    HeadlineSource
	geocoder  Geocoder
	storage   RecordStorage
	publisher RecordPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewHeadlineFetchUseCase создает use case. publisher может быть nil.
func NewHeadlineFetchUseCase(
	source HeadlineSource,
	geocoder Geocoder,
	storage RecordStorage,
	publisher RecordPublisher,
	log *slog.Logger,
) *HeadlineFetchUseCase {
	return &HeadlineFetchUseCase{
		source:    source,
		geocoder:  geocoder,
		storage:   storage,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// FetchCountry выполняет полный цикл для одной страны: заголовки, геокодирование, сохранение.
// При сбое любого этапа запись не добавляется, возвращается *StageError.
// Ошибка публикации не считается сбоем: запись уже сохранена.
func (uc *HeadlineFetchUseCase) FetchCountry(ctx context.Context, country domain.Country) (*domain.Record, error) {
	start := time.Now()
	log := uc.log.With(
		slog.String("component", "headline-fetch"),
		slog.String("country", country.Name),
		slog.String("code", country.Code),
	)

	feed, err := uc.source.Headlines(ctx, country)
	if err != nil {
		log.Error("Headlines fetch failed", slog.String("stage", StageNews), slog.Any("error", err))
		return nil, &StageError{Stage: StageNews, Country: country.Name, Err: err}
	}

	coords, err := uc.geocoder.Geocode(ctx, country.Name)
	if err != nil {
		log.Warn("Geocoding failed", slog.String("stage", StageGeocode), slog.Any("error", err))
		return nil, &StageError{Stage: StageGeocode, Country: country.Name, Err: err}
	}

	record := &domain.Record{
		ID:        uuid.NewString(),
		Country:   country.Name,
		Code:      country.Code,
		Feed:      feed.Items,
		Coords:    coords,
		FetchedAt: uc.now().UTC(),
	}
	if err := uc.storage.SaveRecord(ctx, record); err != nil {
		log.Error("Record save failed", slog.String("stage", StageSave), slog.Any("error", err))
		return nil, &StageError{Stage: StageSave, Country: country.Name, Err: err}
	}

	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, *record); err != nil {
			log.Warn("Record publish failed", slog.String("record_id", record.ID), slog.Any("error", err))
		}
	}

	log.Info("Country processed",
		slog.String("record_id", record.ID),
		slog.Int("headlines", len(record.Feed)),
		slog.Duration("duration", time.Since(start)),
	)
	return record, nil
}
