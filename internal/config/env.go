package config

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type lookupFunc func(key string) (string, bool)

type env struct {
	lookup lookupFunc
}

func (e env) str(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e env) setString(key string, dst *string) {
	if v, ok := e.str(key); ok {
		*dst = v
	}
}

func (e env) setInt(key string, dst *int) {
	if v, ok := e.str(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (e env) setFloat(key string, dst *float64) {
	if v, ok := e.str(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// setSeconds reads a float number of seconds.
func (e env) setSeconds(key string, dst *time.Duration) {
	v, ok := e.str(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	*dst = time.Duration(f * float64(time.Second))
}

func (e env) setBool(key string, dst *bool) {
	v, ok := e.str(key)
	if !ok {
		return
	}
	if b, ok := ParseBool(v); ok {
		*dst = b
	}
}

func (e env) setList(key string, dst *[]string) {
	v, ok := e.str(key)
	if !ok {
		return
	}
	*dst = SplitList(v)
}

// ParseBool accepts 1/true/yes/y/on and 0/false/no/n/off.
func ParseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// SplitList splits a comma separated list and drops empty entries.
func SplitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyEnv overrides fields from the environment. TICK_SECONDS sets both
// the price and agent ticks; the specific variables win over it.
func (c *Config) applyEnv(lookup lookupFunc) {
	e := env{lookup: lookup}

	e.setString("MODE", &c.Mode)
	e.setString("HTTP_ADDR", &c.HTTPAddr)
	e.setString("LOG_LEVEL", &c.LogLevel)

	e.setInt("AGENT_COUNT", &c.Sim.AgentCount)
	e.setList("AGENT_LIST", &c.Sim.AgentList)
	e.setSeconds("TICK_SECONDS", &c.Sim.PriceTick)
	e.setSeconds("TICK_SECONDS", &c.Agent.Tick)
	e.setSeconds("PRICE_TICK_SECONDS", &c.Sim.PriceTick)
	e.setFloat("TRADE_CHANCE", &c.Sim.TradeChance)
	e.setInt("MAX_POSTS", &c.Sim.MaxPosts)
	e.setInt("MAX_TRADES", &c.Sim.MaxTrades)
	e.setFloat("START_PRICE", &c.Sim.StartPrice)
	e.setFloat("START_CASH", &c.Sim.StartCash)
	e.setSeconds("WS_BROADCAST_SECONDS", &c.Sim.WSBroadcast)

	e.setString("AGENT_NAME", &c.Agent.Name)
	if c.Agent.Name == "" {
		e.setString("HOSTNAME", &c.Agent.Name)
	}
	e.setString("HUB_URL", &c.Agent.HubURL)
	e.setSeconds("AGENT_TICK_SECONDS", &c.Agent.Tick)
	e.setFloat("AGENT_POST_CHANCE", &c.Agent.PostChance)
	e.setFloat("REPLY_CHANCE", &c.Agent.ReplyChance)
	e.setSeconds("AGENT_JITTER_SECONDS", &c.Agent.Jitter)
	e.setString("AGENT_ROLE", &c.Agent.Role)
	e.setString("AGENT_FOCUS", &c.Agent.Focus)
	e.setString("AGENT_INTERESTS", &c.Agent.Interests)
	e.setString("AGENT_STYLE", &c.Agent.Style)

	e.setString("ANTHROPIC_API_KEY", &c.LLM.APIKey)
	e.setString("MODEL_NAME", &c.LLM.Model)

	e.setBool("RESEARCH_ENABLED", &c.Research.Enabled)
	e.setSeconds("RESEARCH_TICK_SECONDS", &c.Research.Interval)
	e.setInt("RESEARCH_MAX_ITEMS", &c.Research.MaxItems)
	e.setInt("RESEARCH_SNAPSHOT_LIMIT", &c.Research.SnapshotLimit)
	e.setBool("RESEARCH_ALLOW_NSFW", &c.Research.AllowNSFW)
	e.setString("RESEARCH_USER_AGENT", &c.Research.UserAgent)
	e.setString("REDDIT_MODE", &c.Research.RedditMode)
	e.setInt("REDDIT_LIMIT", &c.Research.RedditLimit)
	e.setList("REDDIT_SUBREDDITS", &c.Research.Subreddits)

	e.setBool("MARKET_FEED_ENABLED", &c.Markets.Enabled)
	e.setSeconds("MARKET_REFRESH_SECONDS", &c.Markets.Interval)
	e.setList("COMMODITY_SYMBOLS", &c.Markets.CommoditySymbols)
	e.setInt("CRYPTO_LIMIT", &c.Markets.CryptoLimit)
	e.setString("COINGECKO_API_KEY", &c.Markets.CoinGeckoAPIKey)
	e.setString("COINGECKO_API_HEADER", &c.Markets.CoinGeckoAPIHeader)
}
