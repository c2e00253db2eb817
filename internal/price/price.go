package price

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/ring"
)

// Config holds the price process parameters.
type Config struct {
	Start           float64 // Starting price
	Floor           float64 // Lowest allowed price
	DriftPct        float64 // Constant drift per tick, in percent
	ShockStdDevPct  float64 // Std deviation of the normal shock, in percent
	HistoryCapacity int     // Samples kept before compaction
	HistoryRetain   int     // Samples left after compaction
}

// DefaultConfig returns the parameters the hub runs with.
func DefaultConfig() Config {
	return Config{
		Start:           100,
		Floor:           1,
		DriftPct:        0.01,
		ShockStdDevPct:  0.35,
		HistoryCapacity: 300,
		HistoryRetain:   200,
	}
}

// Process evolves a single synthetic price and keeps a bounded history.
type Process struct {
	cfg     Config
	mu      sync.RWMutex
	price   float64
	history *ring.Buffer[models.PricePoint]

	shock func() float64 // standard normal draw
	now   func() time.Time
}

// Option configures a Process.
type Option func(*Process)

// WithShock replaces the standard normal source.
func WithShock(fn func() float64) Option {
	return func(p *Process) {
		p.shock = fn
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(p *Process) {
		p.now = fn
	}
}

// New creates a price process starting at cfg.Start.
func New(cfg Config, opts ...Option) *Process {
	def := DefaultConfig()
	if cfg.Floor <= 0 {
		cfg.Floor = def.Floor
	}
	if cfg.Start < cfg.Floor {
		cfg.Start = cfg.Floor
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = def.HistoryCapacity
		cfg.HistoryRetain = def.HistoryRetain
	}
	p := &Process{
		cfg:     cfg,
		price:   cfg.Start,
		history: ring.New[models.PricePoint](cfg.HistoryCapacity, cfg.HistoryRetain),
		shock:   rand.NormFloat64,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Advance applies one tick: drift plus a normal shock, clamped at the floor.
// The new price is appended to the history.
func (p *Process) Advance() float64 {
	pct := p.cfg.DriftPct + p.shock()*p.cfg.ShockStdDevPct

	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.price * (1 + pct/100)
	if math.IsNaN(next) || next < p.cfg.Floor {
		next = p.cfg.Floor
	}
	p.price = next
	p.history.Append(models.PricePoint{TS: p.now(), Price: next})
	return next
}

// Sample records the current price without moving it.
func (p *Process) Sample() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Append(models.PricePoint{TS: p.now(), Price: p.price})
}

// Current returns the current price.
func (p *Process) Current() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.price
}

// RecentPrices returns up to n of the newest prices, oldest first. It is
// never empty: with no history it returns the current price.
func (p *Process) RecentPrices(n int) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	points := p.history.Last(n)
	if len(points) == 0 {
		return []float64{p.price}
	}
	out := make([]float64, len(points))
	for i, pt := range points {
		out[i] = pt.Price
	}
	return out
}

// HistoryLen returns the number of stored samples.
func (p *Process) HistoryLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history.Len()
}
