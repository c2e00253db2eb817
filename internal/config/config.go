package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeHub   = "hub"
	ModeAgent = "agent"
)

// Config is the full process configuration. Durations are written as Go
// duration strings in YAML ("3s", "2m").
type Config struct {
	Mode     string         `yaml:"mode"`
	HTTPAddr string         `yaml:"http_addr"`
	LogLevel string         `yaml:"log_level"`
	Sim      SimConfig      `yaml:"sim"`
	Agent    AgentConfig    `yaml:"agent"`
	LLM      LLMConfig      `yaml:"llm"`
	Research ResearchConfig `yaml:"research"`
	Markets  MarketsConfig  `yaml:"markets"`
}

// SimConfig holds the hub's simulation settings.
type SimConfig struct {
	AgentCount      int           `yaml:"agent_count"`
	AgentList       []string      `yaml:"agent_list"`
	PriceTick       time.Duration `yaml:"price_tick"`
	TradeChance     float64       `yaml:"trade_chance"`
	MaxPosts        int           `yaml:"max_posts"`
	MaxTrades       int           `yaml:"max_trades"`
	StartPrice      float64       `yaml:"start_price"`
	StartCash       float64       `yaml:"start_cash"`
	HistoryCapacity int           `yaml:"history_capacity"`
	HistoryRetain   int           `yaml:"history_retain"`
	WSBroadcast     time.Duration `yaml:"ws_broadcast"`
}

// AgentConfig holds the scripted agent worker settings.
type AgentConfig struct {
	Name        string        `yaml:"name"`
	HubURL      string        `yaml:"hub_url"`
	Tick        time.Duration `yaml:"tick"`
	PostChance  float64       `yaml:"post_chance"`
	ReplyChance float64       `yaml:"reply_chance"`
	Jitter      time.Duration `yaml:"jitter"`
	// Persona overrides; empty fields keep the derived profile.
	Role      string `yaml:"role"`
	Focus     string `yaml:"focus"`
	Interests string `yaml:"interests"`
	Style     string `yaml:"style"`
}

// LLMConfig holds the note generator settings.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ResearchConfig holds the research feed settings.
type ResearchConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	MaxItems      int           `yaml:"max_items"`
	SnapshotLimit int           `yaml:"snapshot_limit"`
	AllowNSFW     bool          `yaml:"allow_nsfw"`
	UserAgent     string        `yaml:"user_agent"`
	RedditMode    string        `yaml:"reddit_mode"`
	RedditLimit   int           `yaml:"reddit_limit"`
	Subreddits    []string      `yaml:"subreddits"`
	Timeout       time.Duration `yaml:"timeout"`
}

// MarketsConfig holds the market feed settings.
type MarketsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Interval           time.Duration `yaml:"interval"`
	CommoditySymbols   []string      `yaml:"commodity_symbols"`
	CryptoLimit        int           `yaml:"crypto_limit"`
	CoinGeckoAPIKey    string        `yaml:"coingecko_api_key"`
	CoinGeckoAPIHeader string        `yaml:"coingecko_api_header"`
	Timeout            time.Duration `yaml:"timeout"`
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty, with ${VAR} expanded), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// UsingLLM reports whether notes come from the API.
func (c *Config) UsingLLM() bool {
	return c.LLM.APIKey != ""
}
