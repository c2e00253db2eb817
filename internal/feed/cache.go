// Package feed keeps the hub's read caches of external research
// highlights and market quotes. Each cache is refreshed on its own timer;
// readers always see a complete, immutable snapshot.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/xtrntr/agenthub/internal/metrics"
	"github.com/xtrntr/agenthub/internal/models"
)

// ResearchFetcher returns the latest research highlights.
type ResearchFetcher interface {
	FetchResearch(ctx context.Context) ([]models.ResearchItem, error)
}

// MarketFetcher returns the latest commodity and crypto quotes.
type MarketFetcher interface {
	FetchMarkets(ctx context.Context) (commodities, cryptos []models.MarketItem, err error)
}

// ResearchFetcherFunc adapts a function to ResearchFetcher.
type ResearchFetcherFunc func(ctx context.Context) ([]models.ResearchItem, error)

func (f ResearchFetcherFunc) FetchResearch(ctx context.Context) ([]models.ResearchItem, error) {
	return f(ctx)
}

// MarketFetcherFunc adapts a function to MarketFetcher.
type MarketFetcherFunc func(ctx context.Context) ([]models.MarketItem, []models.MarketItem, error)

func (f MarketFetcherFunc) FetchMarkets(ctx context.Context) ([]models.MarketItem, []models.MarketItem, error) {
	return f(ctx)
}

// Markets is the cached quote board.
type Markets struct {
	Commodities []models.MarketItem `json:"commodities"`
	Cryptos     []models.MarketItem `json:"cryptos"`
	UpdatedTS   models.UnixTime     `json:"updated_ts"` // Zero until the first non-empty refresh
}

type researchSnapshot struct {
	items   []models.ResearchItem
	updated time.Time
}

// Config holds cache parameters.
type Config struct {
	ResearchMaxItems int           // Items kept after sorting
	FetchTimeout     time.Duration // Bound on one markets refresh
	ResearchTimeout  time.Duration // Bound on one research sweep; FetchTimeout when zero
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		ResearchMaxItems: 80,
		FetchTimeout:     20 * time.Second,
	}
}

// Cache holds both feeds. Refreshes swap a new snapshot in; they never
// edit one readers may hold.
type Cache struct {
	cfg      Config
	research ResearchFetcher
	markets  MarketFetcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	researchSnap atomic.Pointer[researchSnapshot]
	marketSnap   atomic.Pointer[Markets]
}

// NewCache creates a cache. Either fetcher may be nil, in which case that
// feed stays empty.
func NewCache(cfg Config, research ResearchFetcher, markets MarketFetcher, m *metrics.Metrics, logger *slog.Logger) *Cache {
	def := DefaultConfig()
	if cfg.ResearchMaxItems <= 0 {
		cfg.ResearchMaxItems = def.ResearchMaxItems
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.ResearchTimeout <= 0 {
		cfg.ResearchTimeout = cfg.FetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		cfg:      cfg,
		research: research,
		markets:  markets,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	c.researchSnap.Store(&researchSnapshot{items: []models.ResearchItem{}})
	c.marketSnap.Store(&Markets{
		Commodities: []models.MarketItem{},
		Cryptos:     []models.MarketItem{},
	})
	return c
}

// RefreshResearch fetches research and replaces the cache wholesale when
// the result is non-empty. On error or an empty result the previous
// snapshot is kept.
func (c *Cache) RefreshResearch(ctx context.Context) error {
	if c.research == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ResearchTimeout)
	defer cancel()

	items, err := c.research.FetchResearch(ctx)
	if err != nil {
		c.metrics.FeedRefreshed("research", "error")
		return fmt.Errorf("fetch research: %w", err)
	}
	if len(items) == 0 {
		c.metrics.FeedRefreshed("research", "empty")
		return nil
	}

	items = rankResearch(items, c.cfg.ResearchMaxItems)
	c.researchSnap.Store(&researchSnapshot{items: items, updated: c.now()})
	c.metrics.FeedRefreshed("research", "ok")
	c.logger.Debug("research cache refreshed", "items", len(items))
	return nil
}

// rankResearch sorts a copy by score then recency, both descending, and
// trims it to max.
func rankResearch(in []models.ResearchItem, max int) []models.ResearchItem {
	items := make([]models.ResearchItem, len(in))
	copy(items, in)
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scoreOf(items[i]), scoreOf(items[j])
		if si != sj {
			return si > sj
		}
		return items[i].TS.After(items[j].TS.Time)
	})
	if len(items) > max {
		items = items[:max]
	}
	return items
}

func scoreOf(it models.ResearchItem) int {
	if it.Score == nil {
		return 0
	}
	return *it.Score
}

// RefreshMarkets fetches quotes. Commodities and cryptos are each replaced
// only when the new list is non-empty; the update time moves when either
// was replaced. On error nothing changes.
func (c *Cache) RefreshMarkets(ctx context.Context) error {
	if c.markets == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	commodities, cryptos, err := c.markets.FetchMarkets(ctx)
	if err != nil {
		c.metrics.FeedRefreshed("markets", "error")
		return fmt.Errorf("fetch markets: %w", err)
	}
	if len(commodities) == 0 && len(cryptos) == 0 {
		c.metrics.FeedRefreshed("markets", "empty")
		return nil
	}

	prev := c.marketSnap.Load()
	next := &Markets{
		Commodities: prev.Commodities,
		Cryptos:     prev.Cryptos,
		UpdatedTS:   models.Stamp(c.now()),
	}
	if len(commodities) > 0 {
		next.Commodities = append([]models.MarketItem(nil), commodities...)
	}
	if len(cryptos) > 0 {
		next.Cryptos = append([]models.MarketItem(nil), cryptos...)
	}
	c.marketSnap.Store(next)
	c.metrics.FeedRefreshed("markets", "ok")
	c.logger.Debug("market cache refreshed",
		"commodities", len(next.Commodities),
		"cryptos", len(next.Cryptos),
	)
	return nil
}

// Research returns up to limit cached items in rank order.
func (c *Cache) Research(limit int) []models.ResearchItem {
	items := c.researchSnap.Load().items
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.ResearchItem, len(items))
	copy(out, items)
	return out
}

// ResearchUpdated returns the time of the last non-empty refresh.
func (c *Cache) ResearchUpdated() time.Time {
	return c.researchSnap.Load().updated
}

// Markets returns the cached quote board.
func (c *Cache) Markets() Markets {
	return *c.marketSnap.Load()
}
