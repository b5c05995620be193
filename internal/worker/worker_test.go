package worker

import (
	"context"
	"errors"
	"geonews/internal/domain"
	"geonews/internal/metrics"
	"geonews/internal/usecase"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu      sync.Mutex
	visited []string
	failFor map[string]error
}

func (s *stubFetcher) FetchCountry(_ context.Context, c domain.Country) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, c.Code)
	if err, ok := s.failFor[c.Code]; ok {
		return nil, err
	}
	return &domain.Record{Country: c.Name, Code: c.Code}, nil
}

func (s *stubFetcher) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

var testCountries = []domain.Country{
	{Code: "AR", Name: "Argentina"},
	{Code: "BR", Name: "Brazil"},
	{Code: "CL", Name: "Chile"},
}

func newTestWorker(f CountryFetcher, m *metrics.Metrics) *Worker {
	return New(f, testCountries, time.Millisecond, time.Second, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStep_AdvancesCursorAndWraps(t *testing.T) {
	f := &stubFetcher{}
	w := newTestWorker(f, nil)

	for i := 0; i < 4; i++ {
		w.Step(context.Background())
	}

	assert.Equal(t, []string{"AR", "BR", "CL", "AR"}, f.Visited())
	assert.Equal(t, 1, w.Cursor())
}

func TestStep_FailureDoesNotStopRotation(t *testing.T) {
	f := &stubFetcher{failFor: map[string]error{
		"BR": &usecase.StageError{Stage: usecase.StageGeocode, Country: "Brazil", Err: errors.New("not found")},
	}}
	m := metrics.New()
	w := newTestWorker(f, m)

	for i := 0; i < 3; i++ {
		w.Step(context.Background())
	}

	assert.Equal(t, []string{"AR", "BR", "CL"}, f.Visited())
	assert.Equal(t, 0, w.Cursor())
}

func TestStep_CancelledContextDoesNothing(t *testing.T) {
	f := &stubFetcher{}
	w := newTestWorker(f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.Step(ctx)

	assert.Empty(t, f.Visited())
	assert.Equal(t, 0, w.Cursor())
}

func TestStartStop(t *testing.T) {
	f := &stubFetcher{}
	w := newTestWorker(f, nil)

	w.Start()
	require.Eventually(t, func() bool { return len(f.Visited()) >= 5 }, time.Second, time.Millisecond)
	w.Stop()

	visited := len(f.Visited())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, visited, len(f.Visited()))
	w.Stop()
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, metrics.ResultSuccess, resultOf(nil))
	assert.Equal(t, metrics.ResultGeocodeError, resultOf(&usecase.StageError{Stage: usecase.StageGeocode}))
	assert.Equal(t, metrics.ResultSaveError, resultOf(&usecase.StageError{Stage: usecase.StageSave}))
	assert.Equal(t, metrics.ResultNewsError, resultOf(&usecase.StageError{Stage: usecase.StageNews}))
	assert.Equal(t, metrics.ResultNewsError, resultOf(errors.New("timeout")))
}

func TestStep_RecordsMetrics(t *testing.T) {
	f := &stubFetcher{failFor: map[string]error{
		"BR": &usecase.StageError{Stage: usecase.StageGeocode, Err: errors.New("not found")},
	}}
	m := metrics.New()
	w := newTestWorker(f, m)

	for i := 0; i < 3; i++ {
		w.Step(context.Background())
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "geonews_records_total 2")
	assert.Contains(t, body, `geonews_fetch_total{result="geocode_error"} 1`)
	assert.Contains(t, body, "geonews_cursor_position 0")
}

type cancellingFetcher struct {
	cancel context.CancelFunc
}

func (c *cancellingFetcher) FetchCountry(ctx context.Context, _ domain.Country) (*domain.Record, error) {
	c.cancel()
	<-ctx.Done()
	return nil, &usecase.StageError{Stage: usecase.StageNews, Err: ctx.Err()}
}

func TestStep_ShutdownIsNotCountedAsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := metrics.New()
	w := newTestWorker(&cancellingFetcher{cancel: cancel}, m)

	w.Step(ctx)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `geonews_fetch_total{result="news_error"} 0`)
	assert.Equal(t, 1, w.Cursor())
}
