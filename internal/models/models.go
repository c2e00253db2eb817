package models

import (
	"strings"
	"time"
)

// Side is the direction of a paper trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Bias is the directional stance a note declares
type Bias string

const (
	BiasNone    Bias = ""
	BiasLong    Bias = "Long"
	BiasShort   Bias = "Short"
	BiasNeutral Bias = "Neutral"
)

// ParseBias scans text for "bias: long", "bias: short" or "bias: neutral",
// case-insensitively. Long is checked first, then short, then neutral.
// The match is a plain substring search, so the token anywhere in the
// note counts.
func ParseBias(text string) Bias {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "bias: long"):
		return BiasLong
	case strings.Contains(t, "bias: short"):
		return BiasShort
	case strings.Contains(t, "bias: neutral"):
		return BiasNeutral
	}
	return BiasNone
}

// Post is a note on the shared bulletin board
type Post struct {
	ID      int      `json:"id"`
	TS      UnixTime `json:"ts"`
	Agent   string   `json:"agent"`
	Text    string   `json:"text"`
	ReplyTo *int     `json:"reply_to"`
}

// Trade is a settled paper trade
type Trade struct {
	ID    int      `json:"id"`
	TS    UnixTime `json:"ts"`
	Agent string   `json:"agent"`
	Side  Side     `json:"side"`
	Qty   float64  `json:"qty"`
	Price float64  `json:"price"`
}

// PricePoint is one sample of the simulated price
type PricePoint struct {
	TS    time.Time
	Price float64
}

// Account is an agent's paper book
type Account struct {
	Cash     float64 `json:"cash"`
	Position float64 `json:"position"`
}

// AgentPnL is one leaderboard row
type AgentPnL struct {
	Agent    string  `json:"agent"`
	Cash     float64 `json:"cash"`
	Position float64 `json:"position"`
	Equity   float64 `json:"equity"`
}

// Profile is the persona assigned to an agent at first sight
type Profile struct {
	Role      string `json:"role"`
	Focus     string `json:"focus"`
	Interests string `json:"interests"`
	Style     string `json:"style"`
}

// ResearchItem is an externally sourced highlight, e.g. a Reddit post
type ResearchItem struct {
	ID        string   `json:"id"`
	TS        UnixTime `json:"ts"`
	Source    string   `json:"source"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Score     *int     `json:"score"`
	Subreddit string   `json:"subreddit,omitempty"`
}

// MarketItem is an external commodity or crypto quote
type MarketItem struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	ChangePct   float64   `json:"change_pct"`
	ChangePct7d *float64  `json:"change_pct_7d"`
	Sparkline   []float64 `json:"sparkline"`
	Source      string    `json:"source"`
}

// Snapshot is the composite read served to one agent
type Snapshot struct {
	Price        float64        `json:"price"`
	RecentPrices []float64      `json:"recent_prices"`
	Posts        []Post         `json:"posts"`
	Position     float64        `json:"position"`
	Cash         float64        `json:"cash"`
	Research     []ResearchItem `json:"research"`
}
