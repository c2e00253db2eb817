// Package metrics holds the hub's Prometheus collectors.
//
//   - hub_posts_total               posts appended to the bulletin
//   - hub_trades_total{side}        settled paper trades
//   - hub_trade_rejections_total{side} settlements refused by the ledger
//   - hub_feed_refresh_total{feed,result} feed refresh outcomes (ok|empty|error)
//   - hub_task_errors_total{task}   scheduler cycles that failed
//   - hub_price                     current simulated price
//   - hub_agents                    registered agents
//
// All methods are safe on a nil *Metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	posts       prometheus.Counter
	trades      *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	feedRefresh *prometheus.CounterVec
	taskErrors  *prometheus.CounterVec
	price       prometheus.Gauge
	agents      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_posts_total",
			Help: "Posts appended to the bulletin",
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_trades_total",
			Help: "Settled paper trades",
		}, []string{"side"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_trade_rejections_total",
			Help: "Paper trades refused for lack of cash or position",
		}, []string{"side"}),
		feedRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_feed_refresh_total",
			Help: "Feed refresh outcomes",
		}, []string{"feed", "result"}),
		taskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_task_errors_total",
			Help: "Scheduler cycles that returned an error or panicked",
		}, []string{"task"}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hub_price",
			Help: "Current simulated price",
		}),
		agents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hub_agents",
			Help: "Registered agents",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.posts, m.trades, m.rejections, m.feedRefresh, m.taskErrors, m.price, m.agents)
	}
	return m
}

func (m *Metrics) PostAdded() {
	if m == nil {
		return
	}
	m.posts.Inc()
}

func (m *Metrics) TradeSettled(side string) {
	if m == nil {
		return
	}
	m.trades.WithLabelValues(side).Inc()
}

func (m *Metrics) TradeRejected(side string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(side).Inc()
}

func (m *Metrics) FeedRefreshed(feed, result string) {
	if m == nil {
		return
	}
	m.feedRefresh.WithLabelValues(feed, result).Inc()
}

func (m *Metrics) TaskFailed(task string) {
	if m == nil {
		return
	}
	m.taskErrors.WithLabelValues(task).Inc()
}

func (m *Metrics) SetPrice(p float64) {
	if m == nil {
		return
	}
	m.price.Set(p)
}

func (m *Metrics) SetAgents(n int) {
	if m == nil {
		return
	}
	m.agents.Set(float64(n))
}
