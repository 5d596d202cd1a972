// Package metrics exposes Prometheus counters for bidding outcomes.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the bidding service and HTTP layer report to
type Recorder interface {
	RecordBidAccepted(extended bool)
	RecordBidRejected(reason string)
	RecordCommitConflict()
	RecordWinnerResolution(outcome string)
	RecordHTTPRequest(method string, statusCode int)
}

// Collector is the Prometheus-backed Recorder
type Collector struct {
	bidsAccepted    prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	extensions      prometheus.Counter
	commitConflicts prometheus.Counter
	resolutions     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_accepted_total",
			Help: "Number of bids accepted as the new highest bid.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Number of rejected bids by reason.",
		}, []string{"reason"}),
		extensions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_deadline_extensions_total",
			Help: "Number of late bids that pushed an auction end date back.",
		}),
		commitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bid_commit_conflicts_total",
			Help: "Number of optimistic bid commits retried after a concurrent write.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_winner_resolutions_total",
			Help: "Number of winner resolutions by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.bidsAccepted,
		c.bidsRejected,
		c.extensions,
		c.commitConflicts,
		c.resolutions,
		c.httpRequests,
	)
	return c
}

func (c *Collector) RecordBidAccepted(extended bool) {
	c.bidsAccepted.Inc()
	if extended {
		c.extensions.Inc()
	}
}

func (c *Collector) RecordBidRejected(reason string) {
	c.bidsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordCommitConflict() {
	c.commitConflicts.Inc()
}

func (c *Collector) RecordWinnerResolution(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, statusCode int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when metrics are not wired, e.g. in benchmarks.
type Nop struct{}

func (Nop) RecordBidAccepted(bool)        {}
func (Nop) RecordBidRejected(string)      {}
func (Nop) RecordCommitConflict()         {}
func (Nop) RecordWinnerResolution(string) {}
func (Nop) RecordHTTPRequest(string, int) {}
