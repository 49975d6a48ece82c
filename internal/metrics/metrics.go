package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wrenchworks/docdesk/internal/types"
)

const namespace = "docdesk"

// Outcome labels for calls that returned an error
const (
	LabelFailed      = "failed"
	LabelNotInvoiced = "not_invoiced"
)

// Metrics owns a private registry so several instances can coexist in tests
type Metrics struct {
	registry     *prometheus.Registry
	reservations *prometheus.CounterVec
	payments     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	txDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Document number reservations by outcome.",
		}, []string{"outcome"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Mark-paid requests by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Retries after transient storage failures, by operation.",
		}, []string{"operation"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of database transactions by result.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.reservations,
		m.payments,
		m.retries,
		m.txDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the collectors for scraping and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveReservation(outcome types.ReservationOutcome) {
	m.reservations.WithLabelValues(string(outcome)).Inc()
}

// ObserveReservationFailure counts a reservation that ended in a storage error
func (m *Metrics) ObserveReservationFailure() {
	m.reservations.WithLabelValues(LabelFailed).Inc()
}

func (m *Metrics) ObservePayment(outcome types.PaymentOutcome) {
	m.payments.WithLabelValues(string(outcome)).Inc()
}

// ObservePaymentFailure counts a rejected or failed mark-paid call under label
func (m *Metrics) ObservePaymentFailure(label string) {
	m.payments.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveRetry(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveTransaction(d time.Duration, err error) {
	result := "commit"
	if err != nil {
		result = "rollback"
	}
	m.txDuration.WithLabelValues(result).Observe(d.Seconds())
}
