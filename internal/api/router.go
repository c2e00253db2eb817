package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts every hub route. live and gatherer may be nil to leave
// /ws and /metrics out.
func NewRouter(h *Handler, live *Broadcaster, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	if live != nil {
		r.Get("/ws", live.ServeHTTP)
	}
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/state", h.GetState)
		r.Get("/pnl", h.GetPnL)
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/research", h.GetResearch)
		r.Get("/markets", h.GetMarkets)
		r.Post("/post", h.CreatePost)
	})
	return r
}
