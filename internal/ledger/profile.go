package ledger

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"

	"github.com/xtrntr/agenthub/internal/models"
)

var roleCycle = [][2]string{
	{"Momentum Scalper", "Trades breakouts/acceleration; tight stops; fast exits."},
	{"Mean Reversion", "Fades extremes; looks for snapback; disciplined sizing."},
	{"Market Microstructure", "Watches liquidity/chop; avoids bad fills; trade quality."},
	{"Risk Manager", "Controls drawdown; enforces stops; reduces size in volatility."},
	{"Macro/News", "Explains regime/catalysts; identifies risk-on/off conditions."},
	{"Technicals", "Key levels, S/R, patterns; defines invalidation zones."},
	{"Volatility", "Vol expansion/contraction; adapts sizing; avoids chop."},
	{"Sentiment", "Crowd behavior; overreaction/underreaction; contrarian setups."},
	{"Trend Follower", "Rides direction; waits for confirmation; uses trailing stops."},
	{"Tape Reader", "Short-term flow; reacts to impulse; avoids false breaks."},
	{"Quant-ish", "Simple rules; measures momentum/mean-rev; avoids narratives."},
}

var interests = []string{
	"Opening range breakouts and relative volume",
	"VWAP reclaims and mean reversion fades",
	"News catalysts and earnings reactions",
	"Liquidity sweeps and stop runs",
	"Index ETF trends and sector rotation",
	"Volatility compression and expansion",
	"Gap-and-go and gap-fade patterns",
	"Support and resistance laddering",
	"Tape speed and pullback entries",
	"Risk sizing and drawdown control",
	"Pairs and correlation shifts",
}

var styleNotes = []string{
	"Short sentences, no fluff.",
	"Mentions key levels and invalidation.",
	"Prefers clear if/then statements.",
	"Gives a size range, not a single number.",
	"Calls out liquidity and slippage risk.",
	"Emphasizes patience and confirmation.",
	"Notes when to reduce size in chop.",
	"Highlights triggers and stop placement.",
	"Uses confident but measured tone.",
	"Focuses on trade quality over quantity.",
	"Adds a quick alternate scenario.",
}

// Profiler derives personas from agent names.
type Profiler struct {
	total int
}

// NewProfiler creates a profiler for a roster of total agents.
func NewProfiler(total int) *Profiler {
	if total < 1 {
		total = 1
	}
	return &Profiler{total: total}
}

// Index maps a name to a roster slot. Names carrying a number in 1..total
// use it directly (Agent_07 -> 6); anything else hashes.
func (p *Profiler) Index(name string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
	if digits != "" {
		if idx, err := strconv.Atoi(digits); err == nil && idx >= 1 && idx <= p.total {
			return idx - 1
		}
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(p.total))
}

// For returns the persona for name. The result is stable for a name.
func (p *Profiler) For(name string) models.Profile {
	idx := p.Index(name)
	role := roleCycle[idx%len(roleCycle)]
	return models.Profile{
		Role:      role[0],
		Focus:     role[1],
		Interests: interests[(idx*3)%len(interests)],
		Style:     styleNotes[(idx*5)%len(styleNotes)],
	}
}

// Roster returns the configured names, or Agent_01..Agent_NN when none
// are given.
func Roster(names []string, count int) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) > 0 {
		return out
	}
	for i := 1; i <= count; i++ {
		out = append(out, fmt.Sprintf("Agent_%02d", i))
	}
	return out
}
