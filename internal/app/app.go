package app

import (
	"context"
	"fmt"
	"geonews/internal/adapter/fetcher"
	"geonews/internal/adapter/geocoder"
	"geonews/internal/adapter/gnews"
	"geonews/internal/adapter/parser"
	"geonews/internal/adapter/publisher"
	"geonews/internal/config"
	"geonews/internal/countries"
	"geonews/internal/logger"
	"geonews/internal/metrics"
	"geonews/internal/migrations"
	server "geonews/internal/transport/http"
	"geonews/internal/usecase"
	"geonews/internal/worker"
	"geonews/storage"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App связывает компоненты geonews: воркер обхода стран, HTTP-сервер,
// хранилище записей и необязательную публикацию в Kafka.
type App struct {
	config    *config.Config
	logger    *slog.Logger
	server    *http.Server
	worker    *worker.Worker
	storage   storage.Storage
	geocoder  *geocoder.Nominatim
	publisher *publisher.KafkaPublisher
	stopChan  chan os.Signal
	wg        sync.WaitGroup
}

// New создает и инициализирует приложение по конфигурации.
// Конфигурация должна быть проверена через Validate.
func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)
	durations, err := cfg.ParseDurations()
	if err != nil {
		return nil, fmt.Errorf("bad init app: %w", err)
	}
	catalog, err := countries.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}
	list, err := countries.Filter(catalog, cfg.App.Countries)
	if err != nil {
		return nil, fmt.Errorf("invalid app.countries: %w", err)
	}

	recordStorage, err := newStorage(context.Background(), cfg, appLogger)
	if err != nil {
		return nil, err
	}

	newsFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.News.UserAgent, durations.NewsTimeout)
	geoFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.Geocoder.UserAgent, durations.GeocodeTimeout)
	feedParser := parser.NewFeedParser(appLogger)
	newsSource := gnews.NewClient(cfg.News.BaseURL, cfg.News.Language, cfg.News.Country, newsFetcher, feedParser, appLogger)
	nominatim := geocoder.NewNominatim(cfg.Geocoder.BaseURL, geoFetcher, cfg.Geocoder.CacheSize, durations.GeocodeTTL, appLogger)

	var kafkaPublisher *publisher.KafkaPublisher
	var recordPublisher usecase.RecordPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher = publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, appLogger)
		recordPublisher = kafkaPublisher
	}

	fetchUseCase := usecase.NewHeadlineFetchUseCase(newsSource, nominatim, recordStorage, recordPublisher, appLogger)
	recordGetter := usecase.NewRecordGetterUseCase(recordStorage)

	appMetrics := metrics.New()
	countryWorker := worker.New(fetchUseCase, list, durations.FetchInterval, durations.FetchTimeout, appMetrics, appLogger)

	handler, err := server.NewHandler(appLogger, recordGetter, server.Limits{
		Default: cfg.App.DefaultRecordLimit,
		Max:     cfg.App.MaxRecordLimit,
	})
	if err != nil {
		recordStorage.Close()
		return nil, fmt.Errorf("failed to init http handler: %w", err)
	}
	router := server.NewServer(appLogger, handler, appMetrics.Handler())

	return &App{
		config: cfg,
		logger: appLogger,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		worker:    countryWorker,
		storage:   recordStorage,
		geocoder:  nominatim,
		publisher: kafkaPublisher,
		stopChan:  make(chan os.Signal, 1),
	}, nil
}

// newStorage открывает накопитель записей выбранного драйвера.
func newStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStorage(cfg.App.DefaultRecordLimit, log), nil
	case config.DriverSQLite:
		db, err := storage.NewSQLiteRecordDB(ctx, cfg.Storage.SQLitePath, cfg.App.DefaultRecordLimit, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		dbPool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := migrations.Apply(ctx, log, dbPool); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return storage.NewPostgresRecordDB(dbPool, cfg.App, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// Run запускает воркер и HTTP-сервер и блокируется до сигнала завершения
// или падения сервера, после чего выполняет Shutdown.
func (a *App) Run() error {
	a.logger.Info("Starting geonews",
		slog.String("component", "app"),
		slog.Int("country_count", len(a.worker.Countries())),
		slog.String("fetch_interval", a.worker.Interval().String()),
		slog.String("storage", a.config.Storage.Driver),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return multierror.Append(fmt.Errorf("failed to create listener: %w", err), a.Shutdown())
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serverErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serverErr <- err
		}
	}()
	a.worker.Start()

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)
	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	if err := a.Shutdown(); err != nil {
		runErr = multierror.Append(runErr, err)
	}
	return runErr
}

// Shutdown останавливает воркер, HTTP-сервер, публикацию и хранилище.
// Ошибки всех этапов собираются в одну.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	var result *multierror.Error
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
		result = multierror.Append(result, fmt.Errorf("http server shutdown: %w", err))
	}
	a.wg.Wait()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("kafka publisher close: %w", err))
		}
	}
	if a.geocoder != nil {
		a.geocoder.Stop()
	}
	if a.storage != nil {
		a.storage.Close()
	}
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return result.ErrorOrNil()
}
