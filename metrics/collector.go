// Package metrics provides a Prometheus collector for the core's own
// observable surface: order submission, matching latency/throughput,
// orderbook depth/spread, and event queue backlog. Trimmed from teacher's
// much larger Collector (positions, liquidations, insurance fund, ADL,
// funding, oracle, websocket/API traffic) down to what this module
// actually emits — none of the chain-level concepts those metrics describe
// exist here (see DESIGN.md).
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds this module's metrics.
type Collector struct {
	OrdersTotal   *prometheus.CounterVec
	OrdersActive  *prometheus.GaugeVec
	OrderLatency  *prometheus.HistogramVec

	MatchingLatency    *prometheus.HistogramVec
	MatchingThroughput *prometheus.GaugeVec
	OrderbookDepth     *prometheus.GaugeVec
	SpreadBps          *prometheus.GaugeVec

	TradesTotal *prometheus.CounterVec
	TradeVolume *prometheus.CounterVec

	EventQueueBacklog *prometheus.GaugeVec
	EventsPushed      *prometheus.CounterVec
	EventsPopped      *prometheus.CounterVec
}

// GetCollector returns the singleton metrics collector, registering its
// metric families with the default Prometheus registry on first use.
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clobcore", Subsystem: "orders", Name: "total",
			Help: "Total number of new_order calls processed",
		}, []string{"market_id", "side", "posted"}),

		OrdersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clobcore", Subsystem: "orders", Name: "active",
			Help: "Number of resting orders currently in a market's book",
		}, []string{"market_id", "side"}),

		OrderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clobcore", Subsystem: "orders", Name: "latency_ms",
			Help: "new_order call latency in milliseconds",
		}, []string{"market_id"}),

		MatchingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clobcore", Subsystem: "matching", Name: "latency_ms",
			Help: "Per-match-iteration latency in milliseconds",
		}, []string{"market_id"}),

		MatchingThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clobcore", Subsystem: "matching", Name: "matches_per_call",
			Help: "Matches performed by the most recent new_order call",
		}, []string{"market_id"}),

		OrderbookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clobcore", Subsystem: "orderbook", Name: "depth",
			Help: "Number of resting orders on one side of a market",
		}, []string{"market_id", "side"}),

		SpreadBps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clobcore", Subsystem: "orderbook", Name: "spread_bps",
			Help: "Best-ask minus best-bid, in basis points of the mid",
		}, []string{"market_id"}),

		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clobcore", Subsystem: "trades", Name: "total",
			Help: "Total Fill events emitted",
		}, []string{"market_id"}),

		TradeVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clobcore", Subsystem: "trades", Name: "base_volume",
			Help: "Cumulative base quantity traded",
		}, []string{"market_id"}),

		EventQueueBacklog: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clobcore", Subsystem: "event_queue", Name: "backlog",
			Help: "Live (unconsumed) entries in a market's event queue",
		}, []string{"market_id"}),

		EventsPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clobcore", Subsystem: "event_queue", Name: "pushed_total",
			Help: "Total events appended to the queue",
		}, []string{"market_id", "kind"}),

		EventsPopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clobcore", Subsystem: "event_queue", Name: "popped_total",
			Help: "Total events removed via consume_events",
		}, []string{"market_id"}),
	}

	prometheus.MustRegister(c.OrdersTotal)
	prometheus.MustRegister(c.OrdersActive)
	prometheus.MustRegister(c.OrderLatency)
	prometheus.MustRegister(c.MatchingLatency)
	prometheus.MustRegister(c.MatchingThroughput)
	prometheus.MustRegister(c.OrderbookDepth)
	prometheus.MustRegister(c.SpreadBps)
	prometheus.MustRegister(c.TradesTotal)
	prometheus.MustRegister(c.TradeVolume)
	prometheus.MustRegister(c.EventQueueBacklog)
	prometheus.MustRegister(c.EventsPushed)
	prometheus.MustRegister(c.EventsPopped)

	return c
}

// RecordOrder records one new_order call's outcome.
func (c *Collector) RecordOrder(marketID, side string, posted bool) {
	c.OrdersTotal.WithLabelValues(marketID, side, boolLabel(posted)).Inc()
}

// RecordOrderLatency records new_order call latency.
func (c *Collector) RecordOrderLatency(marketID string, latencyMs float64) {
	c.OrderLatency.WithLabelValues(marketID).Observe(latencyMs)
}

// RecordTrade records one Fill event's volume.
func (c *Collector) RecordTrade(marketID string, baseQty float64) {
	c.TradesTotal.WithLabelValues(marketID).Inc()
	c.TradeVolume.WithLabelValues(marketID).Add(baseQty)
}

// RecordMatchingLatency records one match iteration's latency.
func (c *Collector) RecordMatchingLatency(marketID string, latencyMs float64) {
	c.MatchingLatency.WithLabelValues(marketID).Observe(latencyMs)
}

// SetDepth sets the current resting-order count for one side.
func (c *Collector) SetDepth(marketID, side string, depth float64) {
	c.OrderbookDepth.WithLabelValues(marketID, side).Set(depth)
}

// SetSpreadBps sets the current spread in basis points.
func (c *Collector) SetSpreadBps(marketID string, bps float64) {
	c.SpreadBps.WithLabelValues(marketID).Set(bps)
}

// RecordEventPushed records one queued event of the given kind ("fill" or
// "out"), and updates the backlog gauge.
func (c *Collector) RecordEventPushed(marketID, kind string, backlog float64) {
	c.EventsPushed.WithLabelValues(marketID, kind).Inc()
	c.EventQueueBacklog.WithLabelValues(marketID).Set(backlog)
}

// RecordEventsPopped records a consume_events drain and updates the
// backlog gauge.
func (c *Collector) RecordEventsPopped(marketID string, n, backlog float64) {
	c.EventsPopped.WithLabelValues(marketID).Add(n)
	c.EventQueueBacklog.WithLabelValues(marketID).Set(backlog)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed latency for the Record*Latency calls above.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ElapsedMs returns the elapsed time in milliseconds.
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
