package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics groups the HTTP and billing collectors exported on /metrics.
type Metrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge

	BillsTotal      *prometheus.CounterVec
	BillAmount      prometheus.Histogram
	ActiveSessions  prometheus.Gauge
	CalcErrorsTotal *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		BillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills saved at checkout, by payment mode.",
		}, []string{"payment_mode"}),
		BillAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_grand_total",
			Help:      "Grand total of saved bills.",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "billing_sessions_active",
			Help:      "Billing sessions that are open and not yet checked out.",
		}),
		CalcErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_errors_total",
			Help:      "Rejected billing operations, by error kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.ReqTotal, m.ReqDur, m.InFlight, m.BillsTotal, m.BillAmount, m.ActiveSessions, m.CalcErrorsTotal)
	return m
}

// ObserveBill records a saved bill. Nil receivers are ignored so callers can run without metrics.
func (m *Metrics) ObserveBill(mode string, grandTotal decimal.Decimal) {
	if m == nil {
		return
	}
	m.BillsTotal.WithLabelValues(mode).Inc()
	m.BillAmount.Observe(grandTotal.InexactFloat64())
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

func (m *Metrics) BillingError(kind string) {
	if m != nil {
		m.CalcErrorsTotal.WithLabelValues(kind).Inc()
	}
}
