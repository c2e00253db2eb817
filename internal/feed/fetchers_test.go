package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingJSON = `{"data": {"children": [
  {"kind": "t3", "data": {"name": "t3_abc", "title": "Gold rips", "permalink": "/r/gold/comments/abc", "created_utc": 1700000000, "score": 42}},
  {"kind": "t3", "data": {"name": "t3_nsfw", "title": "hidden", "over_18": true, "score": 9000}},
  {"kind": "t3", "data": {"name": "t3_blank", "title": "   "}},
  {"kind": "t1", "data": {"name": "t1_comment", "title": "comment"}},
  {"kind": "t3", "data": {"id": "xyz", "title": "Oil", "url": "https://example.com/oil"}}
]}}`

func TestReddit_FetchResearch(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		assert.Equal(t, "test-agent/1", r.Header.Get("User-Agent"))
		if strings.Contains(r.URL.Path, "/r/broken/") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(listingJSON))
	}))
	defer srv.Close()

	rd := NewReddit(RedditConfig{
		BaseURL:    srv.URL,
		Subreddits: []string{"gold", "broken"},
		Mode:       "bogus",
		Limit:      3,
		UserAgent:  "test-agent/1",
	}, srv.Client(), nil)

	items, err := rd.FetchResearch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/gold/hot.json?limit=3", "/r/broken/hot.json?limit=3"}, paths)

	require.Len(t, items, 2)
	assert.Equal(t, "reddit:t3_abc", items[0].ID)
	assert.Equal(t, "https://www.reddit.com/r/gold/comments/abc", items[0].URL)
	assert.Equal(t, 42, *items[0].Score)
	assert.Equal(t, int64(1700000000), items[0].TS.Unix())
	assert.Equal(t, "gold", items[0].Subreddit)

	assert.Equal(t, "reddit:xyz", items[1].ID)
	assert.Equal(t, "https://example.com/oil", items[1].URL)
	assert.Nil(t, items[1].Score)
}

func TestReddit_AllFailIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rd := NewReddit(RedditConfig{BaseURL: srv.URL, Subreddits: []string{"a", "b"}}, srv.Client(), nil)
	_, err := rd.FetchResearch(context.Background())
	assert.Error(t, err)
}

func TestReddit_AllowNSFW(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingJSON))
	}))
	defer srv.Close()

	rd := NewReddit(RedditConfig{BaseURL: srv.URL, Subreddits: []string{"x"}, AllowNSFW: true}, srv.Client(), nil)
	items, err := rd.FetchResearch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestQuotes_FetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v7/finance/quote":
			assert.Equal(t, "GC=F,CL=F,ZZ=F", r.URL.Query().Get("symbols"))
			w.Write([]byte(`{"quoteResponse": {"result": [
				{"symbol": "GC=F", "regularMarketPrice": 2310.5, "regularMarketChangePercent": 0.4},
				{"symbol": "CL=F", "regularMarketPrice": 78.1},
				{"symbol": "ZZ=F", "regularMarketPrice": 1, "regularMarketChangePercent": -1}
			]}}`))
		case "/api/v3/coins/markets":
			assert.Equal(t, "4", r.URL.Query().Get("per_page"))
			assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
			w.Write([]byte(`[
				{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 64000,
				 "price_change_percentage_24h": 1.5, "price_change_percentage_7d_in_currency": -2.0,
				 "sparkline_in_7d": {"price": [1, 2, 3]}},
				{"id": "broke", "symbol": "brk", "name": "Broke"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	q := NewQuotes(QuotesConfig{
		YahooURL:           srv.URL,
		CoinGeckoURL:       srv.URL,
		CommoditySymbols:   []string{"GC=F", "CL=F", "ZZ=F"},
		CoinGeckoAPIKey:    "secret",
		CoinGeckoAPIHeader: "x-cg-demo-api-key",
	}, srv.Client())

	commodities, cryptos, err := q.FetchMarkets(context.Background())
	require.NoError(t, err)

	require.Len(t, commodities, 2)
	assert.Equal(t, "yahoo:GC=F", commodities[0].ID)
	assert.Equal(t, "Gold", commodities[0].Label)
	assert.Equal(t, "ZZ=F", commodities[1].Label)

	require.Len(t, cryptos, 1)
	assert.Equal(t, "cg:bitcoin", cryptos[0].ID)
	assert.Equal(t, "BTC", cryptos[0].Symbol)
	assert.Equal(t, -2.0, *cryptos[0].ChangePct7d)
	assert.Equal(t, []float64{1, 2, 3}, cryptos[0].Sparkline)
}

func TestQuotes_FailureFailsCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/coins/markets" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"quoteResponse": {"result": []}}`))
	}))
	defer srv.Close()

	q := NewQuotes(QuotesConfig{YahooURL: srv.URL, CoinGeckoURL: srv.URL, CommoditySymbols: []string{"GC=F"}}, srv.Client())
	_, _, err := q.FetchMarkets(context.Background())
	assert.Error(t, err)
}
