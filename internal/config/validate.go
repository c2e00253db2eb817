package config

import (
	"errors"
	"fmt"
	"strings"
)

// normalize folds lenient inputs to their canonical form.
func (c *Config) normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode != ModeHub && c.Mode != ModeAgent {
		c.Mode = ModeHub
	}
	c.Research.RedditMode = strings.ToLower(strings.TrimSpace(c.Research.RedditMode))
	switch c.Research.RedditMode {
	case "hot", "new", "top":
	default:
		c.Research.RedditMode = DefaultRedditMode
	}
	if c.Markets.CryptoLimit <= 0 {
		c.Markets.CryptoLimit = max(len(c.Markets.CommoditySymbols), 4)
	}
	if c.Mode == ModeAgent && c.Agent.Name == "" {
		c.Agent.Name = "Agent_00"
	}
	c.Agent.HubURL = strings.TrimRight(c.Agent.HubURL, "/")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Sim.AgentCount < 0 {
		errs = append(errs, errors.New("sim.agent_count must not be negative"))
	}
	if c.Sim.PriceTick <= 0 {
		errs = append(errs, errors.New("sim.price_tick must be positive"))
	}
	if c.Sim.TradeChance < 0 || c.Sim.TradeChance > 1 {
		errs = append(errs, fmt.Errorf("sim.trade_chance must be in [0,1], got %v", c.Sim.TradeChance))
	}
	if c.Sim.MaxPosts <= 0 {
		errs = append(errs, errors.New("sim.max_posts must be positive"))
	}
	if c.Sim.MaxTrades <= 0 {
		errs = append(errs, errors.New("sim.max_trades must be positive"))
	}
	if c.Sim.StartPrice <= 0 {
		errs = append(errs, errors.New("sim.start_price must be positive"))
	}
	if c.Sim.StartCash < 0 {
		errs = append(errs, errors.New("sim.start_cash must not be negative"))
	}
	if c.Sim.WSBroadcast <= 0 {
		errs = append(errs, errors.New("sim.ws_broadcast must be positive"))
	}
	if c.Sim.HistoryRetain <= 0 || c.Sim.HistoryRetain > c.Sim.HistoryCapacity {
		errs = append(errs, errors.New("sim.history_retain must be in [1, history_capacity]"))
	}

	if c.Research.Enabled && c.Research.Interval <= 0 {
		errs = append(errs, errors.New("research.interval must be positive"))
	}
	if c.Markets.Enabled && c.Markets.Interval <= 0 {
		errs = append(errs, errors.New("markets.interval must be positive"))
	}

	if c.Mode == ModeAgent {
		if c.Agent.HubURL == "" {
			errs = append(errs, errors.New("agent.hub_url is required in agent mode"))
		}
		if c.Agent.Tick <= 0 {
			errs = append(errs, errors.New("agent.tick must be positive"))
		}
	}

	return errors.Join(errs...)
}
