package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtrntr/agenthub/internal/models"
)

const (
	DefaultYahooURL     = "https://query1.finance.yahoo.com"
	DefaultCoinGeckoURL = "https://api.coingecko.com"
)

var commodityLabels = map[string]string{
	"GC=F": "Gold",
	"SI=F": "Silver",
	"CL=F": "WTI Crude",
	"BZ=F": "Brent Crude",
	"HG=F": "Copper",
	"NG=F": "Nat Gas",
}

// CommodityLabel returns a display name for a Yahoo futures symbol.
func CommodityLabel(symbol string) string {
	if l, ok := commodityLabels[symbol]; ok {
		return l
	}
	return symbol
}

// QuotesConfig holds the market feed settings.
type QuotesConfig struct {
	YahooURL           string
	CoinGeckoURL       string
	CommoditySymbols   []string
	CryptoLimit        int
	CoinGeckoAPIKey    string
	CoinGeckoAPIHeader string
	UserAgent          string
}

// Quotes fetches commodity futures from Yahoo and top cryptos from
// CoinGecko.
type Quotes struct {
	cfg        QuotesConfig
	httpClient *http.Client
}

// NewQuotes creates a market fetcher.
func NewQuotes(cfg QuotesConfig, httpClient *http.Client) *Quotes {
	if cfg.YahooURL == "" {
		cfg.YahooURL = DefaultYahooURL
	}
	if cfg.CoinGeckoURL == "" {
		cfg.CoinGeckoURL = DefaultCoinGeckoURL
	}
	if cfg.CryptoLimit <= 0 {
		cfg.CryptoLimit = max(len(cfg.CommoditySymbols), 4)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Quotes{cfg: cfg, httpClient: httpClient}
}

// FetchMarkets gets both boards concurrently. Any failure fails the call.
func (q *Quotes) FetchMarkets(ctx context.Context) ([]models.MarketItem, []models.MarketItem, error) {
	var commodities, cryptos []models.MarketItem
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		commodities, err = q.fetchCommodities(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		cryptos, err = q.fetchCryptos(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return commodities, cryptos, nil
}

func (q *Quotes) getJSON(ctx context.Context, u string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if q.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", q.cfg.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol        *string  `json:"symbol"`
			Price         *float64 `json:"regularMarketPrice"`
			ChangePercent *float64 `json:"regularMarketChangePercent"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (q *Quotes) fetchCommodities(ctx context.Context) ([]models.MarketItem, error) {
	if len(q.cfg.CommoditySymbols) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", strings.Join(q.cfg.CommoditySymbols, ","))
	u := strings.TrimRight(q.cfg.YahooURL, "/") + "/v7/finance/quote?" + params.Encode()

	var payload yahooQuoteResponse
	if err := q.getJSON(ctx, u, nil, &payload); err != nil {
		return nil, fmt.Errorf("yahoo quotes: %w", err)
	}

	var items []models.MarketItem
	for _, row := range payload.QuoteResponse.Result {
		if row.Symbol == nil || row.Price == nil || row.ChangePercent == nil {
			continue
		}
		items = append(items, models.MarketItem{
			ID:        "yahoo:" + *row.Symbol,
			Label:     CommodityLabel(*row.Symbol),
			Symbol:    *row.Symbol,
			Price:     *row.Price,
			ChangePct: *row.ChangePercent,
			Source:    "yahoo",
		})
	}
	return items, nil
}

type coinGeckoMarket struct {
	ID          string   `json:"id"`
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Price       *float64 `json:"current_price"`
	Change24h   *float64 `json:"price_change_percentage_24h"`
	Change7d    *float64 `json:"price_change_percentage_7d_in_currency"`
	Sparkline7d *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

func (q *Quotes) fetchCryptos(ctx context.Context) ([]models.MarketItem, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(q.cfg.CryptoLimit))
	params.Set("page", "1")
	params.Set("sparkline", "true")
	params.Set("price_change_percentage", "24h,7d")
	u := strings.TrimRight(q.cfg.CoinGeckoURL, "/") + "/api/v3/coins/markets?" + params.Encode()

	var headers map[string]string
	if q.cfg.CoinGeckoAPIKey != "" && q.cfg.CoinGeckoAPIHeader != "" {
		headers = map[string]string{q.cfg.CoinGeckoAPIHeader: q.cfg.CoinGeckoAPIKey}
	}

	var rows []coinGeckoMarket
	if err := q.getJSON(ctx, u, headers, &rows); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}

	var items []models.MarketItem
	for _, row := range rows {
		if row.Price == nil || row.Change24h == nil {
			continue
		}
		label := row.Name
		if label == "" {
			label = strings.ToUpper(row.Symbol)
		}
		it := models.MarketItem{
			ID:          "cg:" + row.ID,
			Label:       label,
			Symbol:      strings.ToUpper(row.Symbol),
			Price:       *row.Price,
			ChangePct:   *row.Change24h,
			ChangePct7d: row.Change7d,
			Source:      "coingecko",
		}
		if row.Sparkline7d != nil {
			it.Sparkline = row.Sparkline7d.Price
		}
		items = append(items, it)
	}
	return items, nil
}
