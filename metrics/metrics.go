// Package metrics exposes Prometheus instruments for the POS server on a
// private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultReplayed = "replayed"
)

// Registry holds the server instruments on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	// Purchases and Refunds are labelled by result: success, replayed or an
	// error kind.
	Purchases *prometheus.CounterVec
	Refunds   *prometheus.CounterVec

	CommitLatencySec prometheus.Histogram
	GuardWaitSec     prometheus.Histogram
	FeedFailures     prometheus.Counter

	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates and registers all instruments.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_purchases_total",
		Help: "Purchase attempts by result.",
	}, []string{"result"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_refunds_total",
		Help: "Refund attempts by result.",
	}, []string{"result"})
	commitLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_commit_latency_seconds",
		Help:    "Time from guard acquisition to commit of a mutating operation.",
		Buckets: prometheus.DefBuckets,
	})
	guardWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_guard_wait_seconds",
		Help:    "Time spent waiting for the mutation guard.",
		Buckets: prometheus.DefBuckets,
	})
	feedFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_feed_publish_failures_total",
		Help: "Committed events that could not be published to the change feed.",
	})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	r.MustRegister(purchases, refunds, commitLatency, guardWait, feedFailures, httpRequests)
	return &Registry{
		reg:              r,
		Purchases:        purchases,
		Refunds:          refunds,
		CommitLatencySec: commitLatency,
		GuardWaitSec:     guardWait,
		FeedFailures:     feedFailures,
		HTTPRequests:     httpRequests,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
