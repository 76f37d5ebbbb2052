package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are the HTTP API's prometheus collectors.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bookings   *prometheus.CounterVec
	mismatches prometheus.Counter
}

// NewMetrics registers the API collectors, plus the Go and process
// collectors, on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kassabok_http_requests_total",
				Help: "HTTP requests by route template, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kassabok_http_request_duration_seconds",
				Help:    "HTTP request latency by route template.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kassabok_verifications_booked_total",
				Help: "Verification booking attempts through the API.",
			},
			[]string{"result"}, // booked | rejected | failed
		),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kassabok_balance_sheet_mismatches_total",
			Help: "Balance sheets served whose sides did not agree.",
		}),
	}
	registerer.MustRegister(
		m.requests,
		m.duration,
		m.bookings,
		m.mismatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
