// Package notes produces the desk notes agents post. A Generator never
// fails: the Anthropic-backed generator falls back to a locally built note
// whenever the API call does not produce text.
package notes

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/shopspring/decimal"
	"github.com/xtrntr/agenthub/internal/models"
)

// Request is everything a generator may use to write one note.
type Request struct {
	Agent   string
	Profile models.Profile
	Price   float64
	System  string
	User    string
}

// Generator writes a note for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) string
	Name() string
}

// New picks the generator once: Anthropic when an API key is set, the
// deterministic fallback otherwise.
func New(cfg AnthropicConfig) Generator {
	if cfg.APIKey == "" {
		return Fallback{}
	}
	return NewAnthropic(cfg, nil, nil)
}

// Fallback builds a note from the request alone. The same request always
// yields the same note.
type Fallback struct{}

func (Fallback) Name() string { return "fallback" }

func (Fallback) Generate(_ context.Context, req Request) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%.4f|%s", req.Agent, req.Profile.Role, req.Price, req.User)
	seed := h.Sum64()

	biases := []models.Bias{models.BiasLong, models.BiasShort, models.BiasNeutral}
	bias := biases[seed%3]
	conf := 45 + int((seed>>8)%28)
	size := 1 + int((seed>>16)%8)

	decision := "Hold (paper): wait for confirmation"
	if bias != models.BiasNeutral {
		decision = fmt.Sprintf("Enter (paper): %s ~%d shares", bias, size)
	}
	stopMult := 1.005
	if bias == models.BiasLong {
		stopMult = 0.995
	}
	px := decimal.NewFromFloat(req.Price)
	stop := px.Mul(decimal.NewFromFloat(stopMult)).StringFixed(2)

	return fmt.Sprintf("Headline: %s watching %s for cleaner push\n"+
		"Bias: %s\n"+
		"Setup: %s while price drifts; waiting for confirmation.\n"+
		"Decision (paper): %s\n"+
		"Risk: Invalidate if price breaks %s; trim size if chop persists.\n"+
		"Confidence: %d%%",
		req.Profile.Role, px.StringFixed(2), bias, req.Profile.Interests, decision, stop, conf)
}
