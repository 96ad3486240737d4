package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/onflow/proof-relay/module/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	handler := RateLimitMiddleware(limiter)(okHandler())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/proofs", nil))
		assert.Equal(t, http.StatusAccepted, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/proofs", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var modelError ModelError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &modelError))
	assert.Equal(t, int32(http.StatusTooManyRequests), modelError.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	router := mux.NewRouter()
	router.Use(LoggingMiddleware(log))
	router.Handle("/v1/proofs", okHandler())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/proofs", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, http.MethodPost, entry["method"])
	assert.Equal(t, "/v1/proofs", entry["uri"])
	assert.EqualValues(t, http.StatusAccepted, entry["response_code"])
}

func TestMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := mux.NewRouter()
	router.Use(MetricsMiddleware(metrics.NewRestCollector(registry)))
	router.Handle("/v1/proofs", okHandler()).Name("getProofs")

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/proofs", nil))
		require.Equal(t, http.StatusAccepted, rr.Code)
	}

	families, err := registry.Gather()
	require.NoError(t, err)
	byName := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				byName[family.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				byName[family.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, float64(2), byName["proof_rest_api_total_requests"])
	assert.Equal(t, float64(2), byName["proof_rest_api_http_request_duration_seconds"])
}
