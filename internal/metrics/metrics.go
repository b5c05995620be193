package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess      = "success"
	ResultNewsError    = "news_error"
	ResultGeocodeError = "geocode_error"
	ResultSaveError    = "save_error"
)

// Metrics хранит метрики цикла обхода стран в собственном реестре Prometheus.
type Metrics struct {
	registry       *prometheus.Registry
	fetches        *prometheus.CounterVec
	records        prometheus.Counter
	cursorPosition prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geonews_fetch_total",
			Help: "Country fetch attempts by result",
		}, []string{"result"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geonews_records_total",
			Help: "Headline records saved",
		}),
		cursorPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geonews_cursor_position",
			Help: "Position of the round-robin country cursor",
		}),
	}
	registry.MustRegister(m.fetches, m.records, m.cursorPosition)
	for _, result := range []string{ResultSuccess, ResultNewsError, ResultGeocodeError, ResultSaveError} {
		m.fetches.WithLabelValues(result)
	}
	return m
}

// ObserveFetch учитывает результат обработки одной страны.
func (m *Metrics) ObserveFetch(result string) {
	m.fetches.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.records.Inc()
	}
}

func (m *Metrics) SetCursor(pos int) {
	m.cursorPosition.Set(float64(pos))
}

// Handler отдает метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
