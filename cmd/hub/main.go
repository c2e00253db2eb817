package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/xtrntr/agenthub/internal/agent"
	"github.com/xtrntr/agenthub/internal/api"
	"github.com/xtrntr/agenthub/internal/config"
	"github.com/xtrntr/agenthub/internal/exchange"
	"github.com/xtrntr/agenthub/internal/feed"
	"github.com/xtrntr/agenthub/internal/hub"
	"github.com/xtrntr/agenthub/internal/ledger"
	"github.com/xtrntr/agenthub/internal/metrics"
	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/notes"
	"github.com/xtrntr/agenthub/internal/price"
	"github.com/xtrntr/agenthub/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeAgent:
		err = runAgent(ctx, cfg, logger)
	default:
		err = runHub(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("exited with error", "mode", cfg.Mode, "err", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runHub(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	httpClient := &http.Client{Timeout: cfg.Research.Timeout}
	var research feed.ResearchFetcher
	if cfg.Research.Enabled {
		research = feed.NewReddit(feed.RedditConfig{
			Subreddits: cfg.Research.Subreddits,
			Mode:       cfg.Research.RedditMode,
			Limit:      cfg.Research.RedditLimit,
			AllowNSFW:  cfg.Research.AllowNSFW,
			UserAgent:  cfg.Research.UserAgent,
		}, httpClient, logger)
	}
	var quotes feed.MarketFetcher
	if cfg.Markets.Enabled {
		quotes = feed.NewQuotes(feed.QuotesConfig{
			CommoditySymbols:   cfg.Markets.CommoditySymbols,
			CryptoLimit:        cfg.Markets.CryptoLimit,
			CoinGeckoAPIKey:    cfg.Markets.CoinGeckoAPIKey,
			CoinGeckoAPIHeader: cfg.Markets.CoinGeckoAPIHeader,
			UserAgent:          cfg.Research.UserAgent,
		}, &http.Client{Timeout: cfg.Markets.Timeout})
	}
	cache := feed.NewCache(feed.Config{
		ResearchMaxItems: cfg.Research.MaxItems,
		FetchTimeout:     cfg.Markets.Timeout,
		ResearchTimeout:  researchSweepTimeout(cfg),
	}, research, quotes, m, logger)

	h := hub.New(hubConfig(cfg), cache, hub.WithLogger(logger), hub.WithMetrics(m))
	h.Seed()

	tasks := []scheduler.Task{{
		Name:     "price",
		Interval: cfg.Sim.PriceTick,
		Run:      func(context.Context) error { return h.Tick() },
		OnError:  func(err error) { h.SystemPost("Price loop error: " + err.Error()) },
	}}
	if cfg.Research.Enabled {
		tasks = append(tasks, scheduler.Task{Name: "research", Interval: cfg.Research.Interval, Run: h.Feeds().RefreshResearch})
	}
	if cfg.Markets.Enabled {
		tasks = append(tasks, scheduler.Task{Name: "markets", Interval: cfg.Markets.Interval, Run: h.Feeds().RefreshMarkets})
	}
	sched := scheduler.New(tasks, logger, m)

	live := api.NewBroadcaster(h, logger)
	handler := api.NewHandler(h, api.Info{
		Mode:        cfg.Mode,
		TickSeconds: cfg.Sim.PriceTick.Seconds(),
		ModelName:   cfg.LLM.Model,
		UsingLLM:    cfg.UsingLLM(),
		InstanceID:  uuid.NewString(),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, live, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting hub",
		"addr", cfg.HTTPAddr,
		"agents", h.AgentCount(),
		"using_llm", cfg.UsingLLM(),
		"research", cfg.Research.Enabled,
		"markets", cfg.Markets.Enabled,
	)
	sched.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		live.Run(gctx, cfg.Sim.WSBroadcast)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down hub")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if serr := sched.Stop(shutdownCtx); serr != nil && err == nil {
			err = serr
		}
		return err
	})
	return g.Wait()
}

// researchSweepTimeout bounds one research cycle. Subreddits are fetched
// one after another, each bounded by the client timeout.
func researchSweepTimeout(cfg *config.Config) time.Duration {
	return cfg.Research.Timeout * time.Duration(max(len(cfg.Research.Subreddits), 1))
}

func hubConfig(cfg *config.Config) hub.Config {
	pc := price.DefaultConfig()
	pc.Start = cfg.Sim.StartPrice
	pc.HistoryCapacity = cfg.Sim.HistoryCapacity
	pc.HistoryRetain = cfg.Sim.HistoryRetain

	ec := exchange.DefaultConfig()
	ec.TradeChance = cfg.Sim.TradeChance
	ec.MaxTrades = cfg.Sim.MaxTrades

	return hub.Config{
		Agents:                ledger.Roster(cfg.Sim.AgentList, cfg.Sim.AgentCount),
		RosterSize:            cfg.Sim.AgentCount,
		InitialCash:           cfg.Sim.StartCash,
		MaxPosts:              cfg.Sim.MaxPosts,
		ResearchSnapshotLimit: cfg.Research.SnapshotLimit,
		Price:                 pc,
		Exchange:              ec,
	}
}

func runAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	base := ledger.NewProfiler(cfg.Sim.AgentCount).For(cfg.Agent.Name)
	profile := agent.Persona(base, models.Profile{
		Role:      cfg.Agent.Role,
		Focus:     cfg.Agent.Focus,
		Interests: cfg.Agent.Interests,
		Style:     cfg.Agent.Style,
	})
	gen := notes.New(notes.AnthropicConfig{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})

	w := agent.NewWorker(agent.Config{
		Name:        cfg.Agent.Name,
		Tick:        cfg.Agent.Tick,
		Jitter:      cfg.Agent.Jitter,
		PostChance:  cfg.Agent.PostChance,
		ReplyChance: cfg.Agent.ReplyChance,
	}, profile, agent.NewClient(cfg.Agent.HubURL), gen, agent.WithLogger(logger))

	logger.Info("starting agent",
		"agent", cfg.Agent.Name,
		"hub", cfg.Agent.HubURL,
		"role", profile.Role,
		"generator", gen.Name(),
	)
	return w.Run(ctx)
}
