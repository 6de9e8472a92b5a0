// Package metrics exposes Prometheus collectors for the price editor: calls to
// the upstream price API, form outcomes and live form sessions.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "price_admin_"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Operations reported by the upstream and form collectors.
const (
	OpFetch  = "fetch"
	OpUpdate = "update"
)

var (
	registerOnce sync.Once

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	formOutcomes   *prometheus.CounterVec
	staleResponses *prometheus.CounterVec

	formSessions prometheus.Gauge

	eventsPublished *prometheus.CounterVec
)

// Init registers the collectors with the default registry.  Observe calls
// made before Init are dropped.
func Init() {
	registerOnce.Do(func() {
		upstreamRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_requests_total",
				Help: "Price API requests by operation and result",
			},
			[]string{"op", "result"},
		)
		upstreamLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_latency_seconds",
				Help:    "Price API latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)
		formOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "form_outcomes_total",
				Help: "Form fetch/update outcomes as seen by operators",
			},
			[]string{"op", "result"},
		)
		staleResponses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stale_responses_total",
				Help: "Responses discarded because a newer request superseded them",
			},
			[]string{"op"},
		)
		formSessions = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "form_sessions",
				Help: "Live price form sessions",
			},
		)
		eventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Price updated events published by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			upstreamRequests,
			upstreamLatency,
			formOutcomes,
			staleResponses,
			formSessions,
			eventsPublished,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveUpstream records one call to the price API.
func ObserveUpstream(op string, err error, duration time.Duration) {
	if upstreamRequests != nil {
		upstreamRequests.WithLabelValues(op, result(err)).Inc()
	}
	if upstreamLatency != nil {
		upstreamLatency.WithLabelValues(op).Observe(duration.Seconds())
	}
}

// ObserveFormOutcome records whether a fetch or update ended with an error
// message on the form.
func ObserveFormOutcome(op string, failed bool) {
	if formOutcomes == nil {
		return
	}
	r := ResultSuccess
	if failed {
		r = ResultError
	}
	formOutcomes.WithLabelValues(op, r).Inc()
}

// IncStale counts a response dropped by request fencing.
func IncStale(op string) {
	if staleResponses != nil {
		staleResponses.WithLabelValues(op).Inc()
	}
}

// SetSessions reports the number of live form sessions.
func SetSessions(n int) {
	if formSessions != nil {
		formSessions.Set(float64(n))
	}
}

// ObservePublish records a price updated event publish attempt.
func ObservePublish(err error) {
	if eventsPublished != nil {
		eventsPublished.WithLabelValues(result(err)).Inc()
	}
}
