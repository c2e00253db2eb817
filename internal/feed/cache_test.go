package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/agenthub/internal/models"
)

func score(v int) *int { return &v }

// scriptedResearch returns the queued results in order
type scriptedResearch struct {
	results [][]models.ResearchItem
	errs    []error
	calls   int
}

func (s *scriptedResearch) FetchResearch(ctx context.Context) ([]models.ResearchItem, error) {
	i := s.calls
	s.calls++
	return s.results[i], s.errs[i]
}

func TestCache_ResearchRefreshPolicy(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := []models.ResearchItem{
		{ID: "reddit:a", TS: models.Stamp(base), Score: score(10), Title: "a"},
		{ID: "reddit:b", TS: models.Stamp(base), Score: score(50), Title: "b"},
	}
	second := []models.ResearchItem{
		{ID: "reddit:c", TS: models.Stamp(base), Score: score(1), Title: "c"},
	}
	src := &scriptedResearch{
		results: [][]models.ResearchItem{first, nil, {}, second},
		errs:    []error{nil, errors.New("upstream down"), nil, nil},
	}
	c := NewCache(DefaultConfig(), src, nil, nil, nil)
	assert.Empty(t, c.Research(12))
	assert.True(t, c.ResearchUpdated().IsZero())

	require.NoError(t, c.RefreshResearch(context.Background()))
	got := c.Research(12)
	require.Len(t, got, 2)
	assert.Equal(t, "reddit:b", got[0].ID)
	updated := c.ResearchUpdated()
	assert.False(t, updated.IsZero())

	// Failure keeps the previous cache.
	err := c.RefreshResearch(context.Background())
	assert.Error(t, err)
	assert.Equal(t, got, c.Research(12))

	// Empty success keeps it too, and does not move the timestamp.
	require.NoError(t, c.RefreshResearch(context.Background()))
	assert.Equal(t, got, c.Research(12))
	assert.Equal(t, updated, c.ResearchUpdated())

	// Non-empty success replaces wholesale.
	require.NoError(t, c.RefreshResearch(context.Background()))
	got = c.Research(12)
	require.Len(t, got, 1)
	assert.Equal(t, "reddit:c", got[0].ID)
}

func TestRankResearch(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []models.ResearchItem{
		{ID: "old", TS: models.Stamp(base), Score: score(5)},
		{ID: "none", TS: models.Stamp(base.Add(time.Hour))},
		{ID: "new", TS: models.Stamp(base.Add(time.Minute)), Score: score(5)},
		{ID: "top", TS: models.Stamp(base), Score: score(100)},
	}
	out := rankResearch(in, 3)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"top", "new", "old"}, []string{out[0].ID, out[1].ID, out[2].ID})
	// Input is untouched.
	assert.Equal(t, "old", in[0].ID)
}

func TestCache_ResearchTrimmedAtCacheTime(t *testing.T) {
	var items []models.ResearchItem
	for i := 0; i < 10; i++ {
		items = append(items, models.ResearchItem{ID: string(rune('a' + i)), Score: score(i)})
	}
	cfg := DefaultConfig()
	cfg.ResearchMaxItems = 4
	c := NewCache(cfg, ResearchFetcherFunc(func(ctx context.Context) ([]models.ResearchItem, error) {
		return items, nil
	}), nil, nil, nil)

	require.NoError(t, c.RefreshResearch(context.Background()))
	assert.Len(t, c.Research(100), 4)
	assert.Len(t, c.Research(2), 2)
}

func TestCache_FetchTimeoutBoundsCall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	c := NewCache(cfg, ResearchFetcherFunc(func(ctx context.Context) ([]models.ResearchItem, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil, nil, nil)

	start := time.Now()
	err := c.RefreshResearch(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCache_ResearchTimeoutIsSeparate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchTimeout = 10 * time.Millisecond
	cfg.ResearchTimeout = time.Second
	c := NewCache(cfg, ResearchFetcherFunc(func(ctx context.Context) ([]models.ResearchItem, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return []models.ResearchItem{{ID: "reddit:slow", Title: "slow"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}), nil, nil, nil)

	require.NoError(t, c.RefreshResearch(context.Background()))
	assert.Len(t, c.Research(10), 1)
}

func TestCache_MarketsRefreshPolicy(t *testing.T) {
	gold := models.MarketItem{ID: "yahoo:GC=F", Symbol: "GC=F", Price: 2000}
	btc := models.MarketItem{ID: "cg:bitcoin", Symbol: "BTC", Price: 60000}
	eth := models.MarketItem{ID: "cg:ethereum", Symbol: "ETH", Price: 3000}

	type result struct {
		commodities, cryptos []models.MarketItem
		err                  error
	}
	queue := []result{
		{[]models.MarketItem{gold}, []models.MarketItem{btc}, nil},
		{nil, nil, errors.New("timeout")},
		{nil, nil, nil},
		{nil, []models.MarketItem{eth}, nil},
	}
	c := NewCache(DefaultConfig(), nil, MarketFetcherFunc(func(ctx context.Context) ([]models.MarketItem, []models.MarketItem, error) {
		r := queue[0]
		queue = queue[1:]
		return r.commodities, r.cryptos, r.err
	}), nil, nil)

	m := c.Markets()
	assert.Empty(t, m.Commodities)
	assert.True(t, m.UpdatedTS.IsZero())

	require.NoError(t, c.RefreshMarkets(context.Background()))
	m = c.Markets()
	assert.Equal(t, []models.MarketItem{gold}, m.Commodities)
	assert.Equal(t, []models.MarketItem{btc}, m.Cryptos)
	require.False(t, m.UpdatedTS.IsZero())
	stamp := m.UpdatedTS.Time

	assert.Error(t, c.RefreshMarkets(context.Background()))
	require.NoError(t, c.RefreshMarkets(context.Background()))
	assert.Equal(t, m, c.Markets())

	// Only cryptos came back: commodities are kept.
	require.NoError(t, c.RefreshMarkets(context.Background()))
	m = c.Markets()
	assert.Equal(t, []models.MarketItem{gold}, m.Commodities)
	assert.Equal(t, []models.MarketItem{eth}, m.Cryptos)
	assert.False(t, m.UpdatedTS.Before(stamp))
}

func TestCache_NilFetchers(t *testing.T) {
	c := NewCache(Config{}, nil, nil, nil, nil)
	assert.NoError(t, c.RefreshResearch(context.Background()))
	assert.NoError(t, c.RefreshMarkets(context.Background()))
	assert.NotNil(t, c.Research(5))
}
