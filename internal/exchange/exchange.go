package exchange

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtrntr/agenthub/internal/metrics"
	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/ring"
)

// Settler moves cash and position for one agent
type Settler interface {
	SettleBuy(agent string, qty, price float64) error
	SettleSell(agent string, qty, price float64) error
}

// PriceSource reports the current simulated price
type PriceSource interface {
	Current() float64
}

// Dice returns uniform draws in [0, 1)
type Dice interface {
	Float64() float64
}

type globalDice struct{}

func (globalDice) Float64() float64 { return rand.Float64() }

// Config holds the trade decision parameters
type Config struct {
	TradeChance float64 // Probability a note leads to a trade attempt
	MinQty      float64
	MaxQty      float64
	MaxTrades   int // Trade log capacity
}

// DefaultConfig returns the hub defaults
func DefaultConfig() Config {
	return Config{
		TradeChance: 0.25,
		MinQty:      1,
		MaxQty:      10,
		MaxTrades:   2000,
	}
}

// Exchange turns notes into paper trades and keeps the trade log
type Exchange struct {
	cfg     Config
	ledger  Settler
	price   PriceSource
	dice    Dice
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	trades *ring.Buffer[models.Trade]
	nextID int
}

// Option configures an Exchange
type Option func(*Exchange)

// WithDice replaces the random source
func WithDice(d Dice) Option {
	return func(e *Exchange) { e.dice = d }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Exchange) { e.logger = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exchange) { e.metrics = m }
}

// NewExchange creates an exchange settling against ledger at price
func NewExchange(cfg Config, ledger Settler, price PriceSource, opts ...Option) *Exchange {
	def := DefaultConfig()
	if cfg.MaxTrades <= 0 {
		cfg.MaxTrades = def.MaxTrades
	}
	if cfg.MinQty <= 0 || cfg.MaxQty < cfg.MinQty {
		cfg.MinQty, cfg.MaxQty = def.MinQty, def.MaxQty
	}
	e := &Exchange{
		cfg:    cfg,
		ledger: ledger,
		price:  price,
		dice:   globalDice{},
		logger: slog.Default(),
		now:    time.Now,
		trades: ring.New[models.Trade](cfg.MaxTrades, cfg.MaxTrades),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaybeTrade decides whether agent's note leads to a paper trade. It
// reports the trade and true only when one was settled; a skipped draw, a
// neutral or missing bias and a refused settlement all return false.
func (e *Exchange) MaybeTrade(agent, note string) (models.Trade, bool) {
	if e.dice.Float64() >= e.cfg.TradeChance {
		return models.Trade{}, false
	}

	var side models.Side
	switch models.ParseBias(note) {
	case models.BiasLong:
		side = models.SideBuy
	case models.BiasShort:
		side = models.SideSell
	default:
		return models.Trade{}, false
	}

	qty := e.drawQty()
	px := e.price.Current()

	var err error
	if side == models.SideBuy {
		err = e.ledger.SettleBuy(agent, qty, px)
	} else {
		err = e.ledger.SettleSell(agent, qty, px)
	}
	if err != nil {
		e.logger.Debug("paper trade skipped",
			"agent", agent,
			"side", side,
			"qty", qty,
			"price", px,
			"err", err,
		)
		e.metrics.TradeRejected(string(side))
		return models.Trade{}, false
	}

	t := e.record(agent, side, qty, px)
	e.metrics.TradeSettled(string(side))
	return t, true
}

// drawQty picks a uniform quantity in [MinQty, MaxQty] rounded to 2 dp
func (e *Exchange) drawQty() float64 {
	raw := e.cfg.MinQty + e.dice.Float64()*(e.cfg.MaxQty-e.cfg.MinQty)
	qty, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	if qty < e.cfg.MinQty {
		qty = e.cfg.MinQty
	}
	if qty > e.cfg.MaxQty {
		qty = e.cfg.MaxQty
	}
	return qty
}

func (e *Exchange) record(agent string, side models.Side, qty, px float64) models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := models.Trade{
		ID:    e.nextID,
		TS:    models.Stamp(e.now()),
		Agent: agent,
		Side:  side,
		Qty:   qty,
		Price: px,
	}
	e.nextID++
	e.trades.Append(t)
	return t
}

// RecentTrades returns the newest n trades, oldest first
func (e *Exchange) RecentTrades(n int) []models.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trades.Last(n)
}

// TradeCount returns the number of trades in the log
func (e *Exchange) TradeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trades.Len()
}
