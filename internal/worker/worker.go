package worker

import (
	"context"
	"errors"
	"geonews/internal/countries"
	"geonews/internal/domain"
	"geonews/internal/metrics"
	"geonews/internal/usecase"
	"log/slog"
	"sync"
	"time"
)

// CountryFetcher определяет интерфейс обработки одной страны.
type CountryFetcher interface {
	FetchCountry(ctx context.Context, country domain.Country) (*domain.Record, error)
}

// Worker обходит список стран по кругу: на каждом тике обрабатывает одну страну
// под курсором и сдвигает курсор. Ошибки обработки не останавливают цикл.
type Worker struct {
	fetcher   CountryFetcher
	countries []domain.Country
	cursor    *countries.Cursor
	interval  time.Duration
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	mu        sync.Mutex
}

// New создает воркер. interval - пауза между странами, timeout - предел на обработку одной страны.
func New(
	fetcher CountryFetcher,
	list []domain.Country,
	interval, timeout time.Duration,
	m *metrics.Metrics,
	log *slog.Logger,
) *Worker {
	return &Worker{
		fetcher:   fetcher,
		countries: list,
		cursor:    countries.NewCursor(len(list)),
		interval:  interval,
		timeout:   timeout,
		metrics:   m,
		log:       log.With(slog.String("component", "worker")),
	}
}

// Start запускает цикл обхода в отдельной горутине. Повторный вызов ничего не делает.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop отменяет цикл и ждет завершения текущей страны.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.log.Info("Country fetch worker started",
		slog.String("interval", w.interval.String()),
		slog.Int("country_count", len(w.countries)),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.Step(ctx)
	for {
		select {
		case <-ticker.C:
			w.Step(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// Step обрабатывает ровно одну страну под курсором и сдвигает курсор на одну позицию.
func (w *Worker) Step(ctx context.Context) {
	if ctx.Err() != nil || len(w.countries) == 0 {
		return
	}
	pos := w.cursor.Next()
	if w.metrics != nil {
		w.metrics.SetCursor(w.cursor.Position())
	}
	country := w.countries[pos]

	opCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	_, err := w.fetcher.FetchCountry(opCtx, country)
	if err != nil && ctx.Err() != nil {
		w.log.Debug("Country fetch interrupted by shutdown", slog.Int("cursor", pos), slog.String("country", country.Name))
		return
	}
	result := resultOf(err)
	if w.metrics != nil {
		w.metrics.ObserveFetch(result)
	}
	if err != nil {
		w.log.Warn("Country fetch failed, moving on",
			slog.Int("cursor", pos),
			slog.String("country", country.Name),
			slog.String("result", result),
			slog.Any("error", err),
		)
		return
	}
	w.log.Debug("Country fetch succeeded", slog.Int("cursor", pos), slog.String("country", country.Name))
}

func resultOf(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var stageErr *usecase.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case usecase.StageGeocode:
			return metrics.ResultGeocodeError
		case usecase.StageSave:
			return metrics.ResultSaveError
		}
	}
	return metrics.ResultNewsError
}

// Cursor возвращает текущую позицию курсора.
func (w *Worker) Cursor() int { return w.cursor.Position() }

// Countries возвращает список стран, который обходит воркер.
func (w *Worker) Countries() []domain.Country { return w.countries }

// Interval возвращает паузу между странами.
func (w *Worker) Interval() time.Duration { return w.interval }
