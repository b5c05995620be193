package usecase

import (
	"context"
	"errors"
	"geonews/internal/domain"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	feed *domain.Feed
	err  error
}

func (s *stubSource) Headlines(_ context.Context, _ domain.Country) (*domain.Feed, error) {
	return s.feed, s.err
}

type stubGeocoder struct {
	coords domain.Coordinates
	err    error
	query  string
}

func (s *stubGeocoder) Geocode(_ context.Context, query string) (domain.Coordinates, error) {
	s.query = query
	return s.coords, s.err
}

type stubStorage struct {
	records []domain.Record
	err     error
}

func (s *stubStorage) SaveRecord(_ context.Context, r *domain.Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, *r)
	return nil
}

func (s *stubStorage) GetRecords(_ context.Context, limit int) ([]domain.Record, error) {
	return s.records, nil
}

type stubPublisher struct {
	published []domain.Record
	err       error
}

func (s *stubPublisher) Publish(_ context.Context, r domain.Record) error {
	s.published = append(s.published, r)
	return s.err
}

var (
	testLog     = slog.New(slog.NewTextHandler(io.Discard, nil))
	testCountry = domain.Country{Code: "NO", Alpha3: "NOR", Name: "Norway"}
	testFeed    = &domain.Feed{Items: []domain.Headline{
		{Title: "Oslo", Link: "https://example.com/1"},
		{Title: "Bergen", Link: "https://example.com/2"},
	}}
)

func TestFetchCountry_AppendsOneRecord(t *testing.T) {
	geo := &stubGeocoder{coords: domain.Coordinates{Lat: 64.57, Lon: 11.52}}
	store := &stubStorage{}
	pub := &stubPublisher{}
	uc := NewHeadlineFetchUseCase(&stubSource{feed: testFeed}, geo, store, pub, testLog)
	uc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	record, err := uc.FetchCountry(context.Background(), testCountry)

	require.NoError(t, err)
	require.Len(t, store.records, 1)
	assert.Equal(t, "Norway", store.records[0].Country)
	assert.Equal(t, "NO", store.records[0].Code)
	assert.Len(t, store.records[0].Feed, 2)
	assert.Equal(t, domain.Coordinates{Lat: 64.57, Lon: 11.52}, store.records[0].Coords)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), store.records[0].FetchedAt)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Norway", geo.query)
	require.Len(t, pub.published, 1)
	assert.Equal(t, record.ID, pub.published[0].ID)
}

func TestFetchCountry_GeocodeFailureAppendsNothing(t *testing.T) {
	store := &stubStorage{}
	uc := NewHeadlineFetchUseCase(&stubSource{feed: testFeed}, &stubGeocoder{err: errors.New("no such place")}, store, nil, testLog)

	record, err := uc.FetchCountry(context.Background(), testCountry)

	assert.Nil(t, record)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageGeocode, stageErr.Stage)
	assert.Empty(t, store.records)
}

func TestFetchCountry_NewsFailure(t *testing.T) {
	store := &stubStorage{}
	geo := &stubGeocoder{}
	uc := NewHeadlineFetchUseCase(&stubSource{err: errors.New("503")}, geo, store, nil, testLog)

	_, err := uc.FetchCountry(context.Background(), testCountry)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageNews, stageErr.Stage)
	assert.Empty(t, geo.query)
	assert.Empty(t, store.records)
}

func TestFetchCountry_SaveFailure(t *testing.T) {
	store := &stubStorage{err: errors.New("disk full")}
	pub := &stubPublisher{}
	uc := NewHeadlineFetchUseCase(&stubSource{feed: testFeed}, &stubGeocoder{}, store, pub, testLog)

	_, err := uc.FetchCountry(context.Background(), testCountry)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageSave, stageErr.Stage)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, pub.published)
}

func TestFetchCountry_PublishFailureIsNotFatal(t *testing.T) {
	store := &stubStorage{}
	uc := NewHeadlineFetchUseCase(&stubSource{feed: testFeed}, &stubGeocoder{}, store, &stubPublisher{err: errors.New("broker down")}, testLog)

	record, err := uc.FetchCountry(context.Background(), testCountry)

	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Len(t, store.records, 1)
}

func TestRecordGetter(t *testing.T) {
	store := &stubStorage{records: []domain.Record{{ID: "a"}, {ID: "b"}}}

	records, err := NewRecordGetterUseCase(store).GetRecords(context.Background(), 10)

	require.NoError(t, err)
	assert.Len(t, records, 2)
}
