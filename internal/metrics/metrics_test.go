package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch(ResultSuccess)
	m.ObserveFetch(ResultSuccess)
	m.ObserveFetch(ResultGeocodeError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultGeocodeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.fetches.WithLabelValues(ResultNewsError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.records))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetCursor(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "geonews_cursor_position 42")
	assert.Contains(t, string(body), `geonews_fetch_total{result="success"} 0`)
}
