package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerWritesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "info")

	r := chi.NewRouter()
	r.Use(RequestLogger{Logger: logger}.Middleware)
	r.Get("/bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/7", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, "/bills/{id}", entry["route"])
	assert.Equal(t, "/bills/7", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, 2, entry["bytes"])
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestDomainMetrics(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())
	m.ObserveBill("CASH", decimal.RequireFromString("306.00"))
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.BillingError("InvalidCharge")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillsTotal.WithLabelValues("CASH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalcErrorsTotal.WithLabelValues("InvalidCharge")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveBill("CASH", decimal.Zero)
		nilMetrics.SessionOpened()
		nilMetrics.BillingError("x")
	})
}
