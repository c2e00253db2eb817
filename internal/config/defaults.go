package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHTTPAddr           = ":8000"
	DefaultAgentCount         = 33
	DefaultTick               = 3 * time.Second
	DefaultTradeChance        = 0.25
	DefaultMaxPosts           = 2000
	DefaultMaxTrades          = 2000
	DefaultStartPrice         = 100.0
	DefaultStartCash          = 100000.0
	DefaultHistoryCapacity    = 300
	DefaultHistoryRetain      = 200
	DefaultWSBroadcast        = 5 * time.Second
	DefaultHubURL             = "http://hub:8000"
	DefaultPostChance         = 1.0
	DefaultReplyChance        = 0.35
	DefaultJitter             = 600 * time.Millisecond
	DefaultModel              = "claude-3-5-sonnet-latest"
	DefaultMaxTokens          = 420
	DefaultResearchInterval   = 120 * time.Second
	DefaultResearchMaxItems   = 80
	DefaultSnapshotLimit      = 12
	DefaultUserAgent          = "daytrader-agents/0.1"
	DefaultRedditMode         = "hot"
	DefaultRedditLimit        = 6
	DefaultMarketsInterval    = 120 * time.Second
	DefaultCoinGeckoAPIHeader = "x-cg-demo-api-key"
	DefaultFetchTimeout       = 20 * time.Second
)

var (
	DefaultSubreddits = []string{
		"stocks", "investing", "wallstreetbets", "options", "futures",
		"commodities", "gold", "silverbugs", "oil", "energy", "news",
	}
	DefaultCommoditySymbols = []string{"GC=F", "SI=F", "CL=F", "HG=F"}
)

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{
		Mode:     ModeHub,
		HTTPAddr: DefaultHTTPAddr,
		LogLevel: "info",
		Sim: SimConfig{
			AgentCount:      DefaultAgentCount,
			PriceTick:       DefaultTick,
			TradeChance:     DefaultTradeChance,
			MaxPosts:        DefaultMaxPosts,
			MaxTrades:       DefaultMaxTrades,
			StartPrice:      DefaultStartPrice,
			StartCash:       DefaultStartCash,
			HistoryCapacity: DefaultHistoryCapacity,
			HistoryRetain:   DefaultHistoryRetain,
			WSBroadcast:     DefaultWSBroadcast,
		},
		Agent: AgentConfig{
			HubURL:      DefaultHubURL,
			Tick:        DefaultTick,
			PostChance:  DefaultPostChance,
			ReplyChance: DefaultReplyChance,
			Jitter:      DefaultJitter,
		},
		LLM: LLMConfig{
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Research: ResearchConfig{
			Enabled:       true,
			Interval:      DefaultResearchInterval,
			MaxItems:      DefaultResearchMaxItems,
			SnapshotLimit: DefaultSnapshotLimit,
			UserAgent:     DefaultUserAgent,
			RedditMode:    DefaultRedditMode,
			RedditLimit:   DefaultRedditLimit,
			Subreddits:    append([]string(nil), DefaultSubreddits...),
			Timeout:       DefaultFetchTimeout,
		},
		Markets: MarketsConfig{
			Enabled:            true,
			Interval:           DefaultMarketsInterval,
			CommoditySymbols:   append([]string(nil), DefaultCommoditySymbols...),
			CoinGeckoAPIHeader: DefaultCoinGeckoAPIHeader,
			Timeout:            DefaultFetchTimeout,
		},
	}
}
