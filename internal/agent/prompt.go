package agent

import (
	"fmt"
	"strings"

	"github.com/xtrntr/agenthub/internal/models"
)

const (
	summaryLimit  = 8
	headlineLimit = 120
)

// Headline returns the note's headline, or its first non-blank line,
// cut to 120 characters.
func Headline(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "headline:") {
			line = strings.TrimSpace(line[len("headline:"):])
		}
		return truncate(line, headlineLimit)
	}
	return "No headline"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SummarizePosts lists the newest posts, oldest first, one headline each.
func SummarizePosts(posts []models.Post, limit int) string {
	if len(posts) == 0 {
		return "(none)"
	}
	if len(posts) > limit {
		posts = posts[len(posts)-limit:]
	}
	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, fmt.Sprintf("- [%d] %s: %s", p.ID, p.Agent, Headline(p.Text)))
	}
	return strings.Join(lines, "\n")
}

// SummarizeResearch lists the top research items.
func SummarizeResearch(items []models.ResearchItem, limit int) string {
	if len(items) == 0 {
		return "(no research highlights yet)"
	}
	if len(items) > limit {
		items = items[:limit]
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		score := "n/a"
		if it.Score != nil {
			score = fmt.Sprintf("%d", *it.Score)
		}
		sub := "reddit"
		if it.Subreddit != "" {
			sub = "r/" + it.Subreddit
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", sub, score, it.Title))
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt frames the persona and the house rules.
func SystemPrompt(agent string, p models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a day-trading desk agent in a PAPER-trading sandbox.\n", agent)
	fmt.Fprintf(&b, "ROLE: %s\n", p.Role)
	fmt.Fprintf(&b, "FOCUS: %s\n", p.Focus)
	fmt.Fprintf(&b, "INTERESTS: %s\n", p.Interests)
	fmt.Fprintf(&b, "STYLE: %s\n\n", p.Style)
	b.WriteString("Rules:\n" +
		"- Paper trading only. Do NOT give real-world advice to a person.\n" +
		"- Use the provided SIM data, recent posts, and research highlights only.\n" +
		"- Speak like a desk note: concise, specific, actionable.\n" +
		"- Always include risk controls: invalidation/stop idea + sizing.\n" +
		"- Do not claim you personally browsed the web; use the highlights only.\n" +
		"- Do NOT mention APIs, models, tokens, or that you are an AI.\n" +
		"Return output in the exact format below, with all fields present.")
	return b.String()
}

// UserPrompt describes the market, the book, the board and the reply
// target, followed by the required note format.
func UserPrompt(snap models.Snapshot, target *models.Post) string {
	prices := snap.RecentPrices
	if len(prices) == 0 {
		prices = []float64{snap.Price}
	}
	first, last := prices[0], prices[len(prices)-1]
	change := last - first
	pct := 0.0
	if first != 0 {
		pct = change / first * 100
	}
	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		lo = min(lo, p)
		hi = max(hi, p)
	}

	research := "(research not enabled)"
	if len(snap.Research) > 0 {
		research = SummarizeResearch(snap.Research, summaryLimit)
	}

	lines := []string{
		"SIM MARKET SNAPSHOT:",
		fmt.Sprintf("- Current price: %.2f", snap.Price),
		fmt.Sprintf("- Recent range (last ~%d pts): low %.2f / high %.2f", len(prices), lo, hi),
		fmt.Sprintf("- Recent change: %+.2f (%+.2f%%)", change, pct),
		"",
		"YOUR BOOK (paper):",
		fmt.Sprintf("- Position: %.2f shares", snap.Position),
		fmt.Sprintf("- Cash: %.2f", snap.Cash),
		"",
		"RECENT POSTS (newest last):",
		SummarizePosts(snap.Posts, summaryLimit),
		"",
		"RESEARCH HIGHLIGHTS (public chatter):",
		research,
		"",
	}
	if target != nil {
		lines = append(lines,
			"REPLY TARGET:",
			fmt.Sprintf("Post ID %d by %s:", target.ID, target.Agent),
			target.Text,
			"",
			"Respond directly to the reply target before adding your own view.",
		)
	} else {
		lines = append(lines, "No required reply target. Add a fresh insight for the group.")
	}
	lines = append(lines,
		"",
		"FORMAT (exact):",
		"Headline: <8-14 words, market-focused>",
		"Bias: Long | Short | Neutral",
		"Setup: <1-2 sentences describing what you see>",
		"Decision (paper): <Enter/Exit/Hold + side + rough size in shares>",
		"Risk: <stop/invalidation level idea + what would prove you wrong>",
		"Confidence: <0-100%>",
	)
	return strings.Join(lines, "\n")
}
