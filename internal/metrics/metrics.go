// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "messages_posted_total",
		Help:      "Chat messages accepted.",
	})

	MembershipJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "membership_joins_total",
		Help:      "Join attempts by outcome.",
	}, []string{"outcome"})

	MembershipRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "membership_repairs_total",
		Help:      "Mirror rows added by the reconciler.",
	})

	SnapshotsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "snapshots_delivered_total",
		Help:      "Realtime snapshots delivered, by collection.",
	}, []string{"collection"})

	StreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "stream_failures_total",
		Help:      "Subscriptions that became unavailable, by collection.",
	}, []string{"collection"})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simplecomm",
		Name:      "ai_requests_total",
		Help:      "AI proxy calls by outcome.",
	}, []string{"outcome"})
)

// StreamObserver feeds realtime broker signals into the collectors.
type StreamObserver struct{}

// SnapshotDelivered counts one delivery.
func (StreamObserver) SnapshotDelivered(collection string) {
	SnapshotsDelivered.WithLabelValues(collection).Inc()
}

// StreamFailed counts one terminal failure.
func (StreamObserver) StreamFailed(collection string) {
	StreamFailures.WithLabelValues(collection).Inc()
}

// RegisterClientGauge exposes the live websocket client count.
func RegisterClientGauge(count func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "simplecomm",
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
