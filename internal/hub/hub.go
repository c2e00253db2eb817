// Package hub owns the shared simulation state: the price process, the
// bulletin, the ledgers, the trade log and the feed caches. Every read and
// write from the API and the scheduler goes through a Hub.
package hub

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/xtrntr/agenthub/internal/bulletin"
	"github.com/xtrntr/agenthub/internal/exchange"
	"github.com/xtrntr/agenthub/internal/feed"
	"github.com/xtrntr/agenthub/internal/ledger"
	"github.com/xtrntr/agenthub/internal/metrics"
	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/price"
)

const (
	SystemAgent    = "SYSTEM"
	PnLLimit       = 25
	welcomeMessage = "System online. Agents will begin posting shortly."
)

var (
	ErrAgentRequired = errors.New("agent is required")
	ErrPostRequired  = errors.New("agent and text are required")
)

// Config holds the hub parameters.
type Config struct {
	Agents                []string // Roster registered at startup
	RosterSize            int      // Profile index range; len(Agents) when zero
	InitialCash           float64
	MaxPosts              int
	ResearchSnapshotLimit int
	Price                 price.Config
	Exchange              exchange.Config
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		Agents:                ledger.Roster(nil, 33),
		InitialCash:           100000,
		MaxPosts:              2000,
		ResearchSnapshotLimit: 12,
		Price:                 price.DefaultConfig(),
		Exchange:              exchange.DefaultConfig(),
	}
}

// State is the public board: price, recent posts and recent trades.
type State struct {
	Price  float64        `json:"price"`
	Posts  []models.Post  `json:"posts"`
	Trades []models.Trade `json:"trades"`
}

// Hub is the single owner of simulation state. Each component guards
// itself; a Hub read composes independent sub-reads.
type Hub struct {
	cfg      Config
	price    *price.Process
	ledger   *ledger.Ledger
	bulletin *bulletin.Bulletin
	exchange *exchange.Exchange
	feeds    *feed.Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger

	priceOpts    []price.Option
	exchangeOpts []exchange.Option
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithPriceOptions passes options to the price process.
func WithPriceOptions(opts ...price.Option) Option {
	return func(h *Hub) { h.priceOpts = append(h.priceOpts, opts...) }
}

// WithExchangeOptions passes options to the exchange.
func WithExchangeOptions(opts ...exchange.Option) Option {
	return func(h *Hub) { h.exchangeOpts = append(h.exchangeOpts, opts...) }
}

// New builds a hub and registers the configured roster. feeds may be nil,
// in which case research and markets stay empty.
func New(cfg Config, feeds *feed.Cache, opts ...Option) *Hub {
	def := DefaultConfig()
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = def.MaxPosts
	}
	if cfg.ResearchSnapshotLimit <= 0 {
		cfg.ResearchSnapshotLimit = def.ResearchSnapshotLimit
	}
	h := &Hub{
		cfg:    cfg,
		feeds:  feeds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.feeds == nil {
		h.feeds = feed.NewCache(feed.DefaultConfig(), nil, nil, h.metrics, h.logger)
	}

	if cfg.RosterSize <= 0 {
		cfg.RosterSize = len(cfg.Agents)
	}
	h.ledger = ledger.New(cfg.InitialCash, ledger.NewProfiler(cfg.RosterSize))
	for _, name := range cfg.Agents {
		h.ledger.Ensure(name)
	}
	h.metrics.SetAgents(h.ledger.Len())

	h.price = price.New(cfg.Price, h.priceOpts...)
	h.metrics.SetPrice(h.price.Current())
	h.bulletin = bulletin.New(cfg.MaxPosts)

	exOpts := append([]exchange.Option{
		exchange.WithLogger(h.logger),
		exchange.WithMetrics(h.metrics),
	}, h.exchangeOpts...)
	h.exchange = exchange.NewExchange(cfg.Exchange, h.ledger, h.price, exOpts...)
	return h
}

// Seed records the opening price sample and the welcome post.
func (h *Hub) Seed() {
	h.price.Sample()
	h.SystemPost(welcomeMessage)
}

// Tick advances the price by one step.
func (h *Hub) Tick() error {
	p := h.price.Advance()
	h.metrics.SetPrice(p)
	return nil
}

// SystemPost appends a post authored by the hub itself.
func (h *Hub) SystemPost(text string) models.Post {
	p := h.bulletin.Append(SystemAgent, text, nil)
	h.metrics.PostAdded()
	return p
}

// Post appends an agent note and may settle a paper trade from it. The
// trade is nil when none happened.
func (h *Hub) Post(agent, text string, replyTo *int) (models.Post, *models.Trade, error) {
	agent = strings.TrimSpace(agent)
	text = strings.TrimSpace(text)
	if agent == "" || text == "" {
		return models.Post{}, nil, ErrPostRequired
	}

	h.ensure(agent)
	p := h.bulletin.Append(agent, text, replyTo)
	h.metrics.PostAdded()

	t, ok := h.exchange.MaybeTrade(agent, text)
	if !ok {
		return p, nil, nil
	}
	h.logger.Info("paper trade",
		"agent", agent,
		"side", t.Side,
		"qty", t.Qty,
		"price", t.Price,
	)
	return p, &t, nil
}

func (h *Hub) ensure(agent string) {
	if h.ledger.Ensure(agent) {
		h.logger.Info("agent registered", "agent", agent, "role", h.ledger.Profile(agent).Role)
		h.metrics.SetAgents(h.ledger.Len())
	}
}

// Snapshot is the composite read for one agent, registering it on first
// sight. Each part is current as of its own read; parts are not aligned
// with each other.
func (h *Hub) Snapshot(agent string, limitPosts, limitPrices int) (models.Snapshot, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return models.Snapshot{}, ErrAgentRequired
	}
	h.ensure(agent)

	acct := h.ledger.Account(agent)
	return models.Snapshot{
		Price:        h.price.Current(),
		RecentPrices: h.price.RecentPrices(limitPrices),
		Posts:        h.bulletin.Recent(limitPosts),
		Position:     acct.Position,
		Cash:         acct.Cash,
		Research:     h.feeds.Research(h.cfg.ResearchSnapshotLimit),
	}, nil
}

// State returns the public board.
func (h *Hub) State(limitPosts, limitTrades int) State {
	return State{
		Price:  h.price.Current(),
		Posts:  h.bulletin.Recent(limitPosts),
		Trades: h.exchange.RecentTrades(limitTrades),
	}
}

// PnL returns the top agents by equity at the current price.
func (h *Hub) PnL() []models.AgentPnL {
	return h.ledger.Leaderboard(h.price.Current(), PnLLimit)
}

// Research returns the cached highlights served in snapshots.
func (h *Hub) Research() []models.ResearchItem {
	return h.feeds.Research(h.cfg.ResearchSnapshotLimit)
}

// Markets returns the cached quote board.
func (h *Hub) Markets() feed.Markets {
	return h.feeds.Markets()
}

// Feeds exposes the caches for the scheduler.
func (h *Hub) Feeds() *feed.Cache {
	return h.feeds
}

// Account returns an agent's book, registering the agent if needed.
func (h *Hub) Account(agent string) models.Account {
	h.ensure(agent)
	return h.ledger.Account(agent)
}

// AgentCount returns the number of registered agents.
func (h *Hub) AgentCount() int {
	return h.ledger.Len()
}

// Price returns the current simulated price.
func (h *Hub) Price() float64 {
	return h.price.Current()
}
