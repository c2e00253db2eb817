package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/xtrntr/agenthub/internal/hub"
)

// Default query limits.
const (
	DefaultStatePosts     = 200
	DefaultStateTrades    = 200
	DefaultSnapshotPosts  = 40
	DefaultSnapshotPrices = 20
)

// Info is the static part of /api/config and /health.
type Info struct {
	Mode        string
	TickSeconds float64
	ModelName   string
	UsingLLM    bool
	InstanceID  string
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub  *hub.Hub
	Info Info
}

// NewHandler creates a new handler
func NewHandler(h *hub.Hub, info Info) *Handler {
	return &Handler{Hub: h, Info: info}
}

type configResponse struct {
	AgentCount      int     `json:"agent_count"`
	TickSeconds     float64 `json:"tick_seconds"`
	MaxPostsPerTick int     `json:"max_posts_per_tick"`
	ModelName       string  `json:"model_name"`
	UsingLLM        bool    `json:"using_llm"`
	Mode            string  `json:"mode"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"mode":     h.Info.Mode,
		"instance": h.Info.InstanceID,
	})
}

// GetConfig returns the hub parameters
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		AgentCount:      h.Hub.AgentCount(),
		TickSeconds:     h.Info.TickSeconds,
		MaxPostsPerTick: 1,
		ModelName:       h.Info.ModelName,
		UsingLLM:        h.Info.UsingLLM,
		Mode:            h.Info.Mode,
	})
}

// GetState returns the price with the newest posts and trades
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	limitPosts, ok := queryInt(w, r, "limit_posts", DefaultStatePosts)
	if !ok {
		return
	}
	limitTrades, ok := queryInt(w, r, "limit_trades", DefaultStateTrades)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Hub.State(limitPosts, limitTrades))
}

// GetPnL returns the equity leaderboard
func (h *Handler) GetPnL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Hub.PnL())
}

// GetSnapshot returns the composite view for one agent
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	limitPosts, ok := queryInt(w, r, "limit_posts", DefaultSnapshotPosts)
	if !ok {
		return
	}
	limitPrices, ok := queryInt(w, r, "limit_prices", DefaultSnapshotPrices)
	if !ok {
		return
	}

	snap, err := h.Hub.Snapshot(r.URL.Query().Get("agent"), limitPosts, limitPrices)
	if errors.Is(err, hub.ErrAgentRequired) {
		http.Error(w, `{"error": "agent is required"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error": "Failed to build snapshot"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetResearch returns the cached research highlights
func (h *Handler) GetResearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Hub.Research())
}

// GetMarkets returns the cached quote board
func (h *Handler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Hub.Markets())
}

// CreatePost appends a note to the bulletin
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Agent   string `json:"agent"`
		Text    string `json:"text"`
		ReplyTo *int   `json:"reply_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	post, _, err := h.Hub.Post(req.Agent, req.Text, req.ReplyTo)
	if errors.Is(err, hub.ErrPostRequired) {
		http.Error(w, `{"error": "agent and text are required"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error": "Failed to create post"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// queryInt parses an optional integer parameter. Negative values read as
// zero. It writes a 400 and returns false when the value is not a number.
func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, `{"error": "`+key+` must be an integer"}`, http.StatusBadRequest)
		return 0, false
	}
	return max(n, 0), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

