package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fixedDepth int

func (d fixedDepth) QueueDepth() int { return int(d) }

func TestQueueDepthGauge(t *testing.T) {
	g := NewQueueDepthGauge(fixedDepth(7))
	assert.Equal(t, 7.0, testutil.ToFloat64(g))
}

func TestRegisterPipelineMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterPipelineMetrics()
		RegisterPipelineMetrics()
	})
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "204"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "204")))
}
