// Package agent runs one scripted desk agent against a hub: read the
// snapshot, write a note, post it, sleep, repeat.
package agent

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/notes"
)

const (
	snapshotPosts  = 40
	snapshotPrices = 20
	replyWindow    = 12
	minSleep       = time.Second
)

// Rand is the worker's random source.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Hub is the part of the hub API a worker needs.
type Hub interface {
	Snapshot(ctx context.Context, agent string, limitPosts, limitPrices int) (models.Snapshot, error)
	Post(ctx context.Context, agent, text string, replyTo *int) (models.Post, error)
}

// Config holds the worker's pacing.
type Config struct {
	Name        string
	Tick        time.Duration
	Jitter      time.Duration
	PostChance  float64
	ReplyChance float64
}

// Worker is a single agent loop.
type Worker struct {
	cfg     Config
	profile models.Profile
	hub     Hub
	gen     notes.Generator
	rng     Rand
	logger  *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithRand sets the random source.
func WithRand(r Rand) Option {
	return func(w *Worker) { w.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// NewWorker builds a worker for the given persona.
func NewWorker(cfg Config, profile models.Profile, hub Hub, gen notes.Generator, opts ...Option) *Worker {
	w := &Worker{
		cfg:     cfg,
		profile: profile,
		hub:     hub,
		gen:     gen,
		rng:     globalRand{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("agent", cfg.Name)
	return w
}

// Run loops until ctx is cancelled. Step failures are logged and the loop
// keeps going.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("agent started", "generator", w.gen.Name())
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("agent stopped")
			return nil
		case <-timer.C:
		}
		if err := w.Step(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("agent step failed", "err", err)
		}
		timer.Reset(w.nextSleep())
	}
}

// Step runs one iteration: maybe read the snapshot, write a note and post.
func (w *Worker) Step(ctx context.Context) error {
	if w.rng.Float64() > w.cfg.PostChance {
		return nil
	}
	snap, err := w.hub.Snapshot(ctx, w.cfg.Name, snapshotPosts, snapshotPrices)
	if err != nil {
		return err
	}

	target := w.pickReplyTarget(snap.Posts)
	req := notes.Request{
		Agent:   w.cfg.Name,
		Profile: w.profile,
		Price:   snap.Price,
		System:  SystemPrompt(w.cfg.Name, w.profile),
		User:    UserPrompt(snap, target),
	}
	text := w.gen.Generate(ctx, req)

	var replyTo *int
	if target != nil {
		id := target.ID
		replyTo = &id
	}
	p, err := w.hub.Post(ctx, w.cfg.Name, text, replyTo)
	if err != nil {
		return err
	}
	w.logger.Debug("posted", "id", p.ID, "reply_to", replyTo != nil)
	return nil
}

// pickReplyTarget chooses, with the reply chance, one of the last twelve
// posts not written by this agent.
func (w *Worker) pickReplyTarget(posts []models.Post) *models.Post {
	if len(posts) == 0 || w.rng.Float64() > w.cfg.ReplyChance {
		return nil
	}
	if len(posts) > replyWindow {
		posts = posts[len(posts)-replyWindow:]
	}
	var candidates []models.Post
	for _, p := range posts {
		if p.Agent != w.cfg.Name {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	t := candidates[w.rng.IntN(len(candidates))]
	return &t
}

// Persona overlays the non-empty fields of override on base.
func Persona(base, override models.Profile) models.Profile {
	if override.Role != "" {
		base.Role = override.Role
	}
	if override.Focus != "" {
		base.Focus = override.Focus
	}
	if override.Interests != "" {
		base.Interests = override.Interests
	}
	if override.Style != "" {
		base.Style = override.Style
	}
	return base
}

func (w *Worker) nextSleep() time.Duration {
	d := w.cfg.Tick
	if w.cfg.Jitter > 0 {
		d += time.Duration((w.rng.Float64()*2 - 1) * float64(w.cfg.Jitter))
	}
	return max(d, minSleep)
}
