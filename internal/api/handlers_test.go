package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/agenthub/internal/exchange"
	"github.com/xtrntr/agenthub/internal/feed"
	"github.com/xtrntr/agenthub/internal/hub"
	"github.com/xtrntr/agenthub/internal/metrics"
	"github.com/xtrntr/agenthub/internal/models"
	"github.com/xtrntr/agenthub/internal/price"
)

type fixedDice float64

func (d fixedDice) Float64() float64 { return float64(d) }

type testEnv struct {
	hub    *hub.Hub
	live   *Broadcaster
	router http.Handler
}

func setupTest(t *testing.T, cash, dice float64) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	score := 10
	research := feed.ResearchFetcherFunc(func(ctx context.Context) ([]models.ResearchItem, error) {
		items := make([]models.ResearchItem, 20)
		for i := range items {
			items[i] = models.ResearchItem{ID: "reddit:" + string(rune('a'+i)), Title: "item", Score: &score}
		}
		return items, nil
	})
	cache := feed.NewCache(feed.DefaultConfig(), research, nil, m, nil)
	require.NoError(t, cache.RefreshResearch(context.Background()))

	cfg := hub.DefaultConfig()
	cfg.Agents = []string{"Agent_01", "Agent_02", "Agent_03"}
	cfg.InitialCash = cash
	h := hub.New(cfg, cache,
		hub.WithMetrics(m),
		hub.WithExchangeOptions(exchange.WithDice(fixedDice(dice))),
		hub.WithPriceOptions(price.WithShock(func() float64 { return 0 })),
	)
	h.Seed()

	live := NewBroadcaster(h, nil)
	handler := NewHandler(h, Info{
		Mode:        "hub",
		TickSeconds: 3,
		ModelName:   "claude-3-5-sonnet-latest",
		InstanceID:  "test-instance",
	})
	return &testEnv{hub: h, live: live, router: NewRouter(handler, live, reg)}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndConfig(t *testing.T) {
	env := setupTest(t, 100000, 1)

	rr := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"mode": "hub", "instance": "test-instance"}`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"agent_count": 3,
		"tick_seconds": 3,
		"max_posts_per_tick": 1,
		"model_name": "claude-3-5-sonnet-latest",
		"using_llm": false,
		"mode": "hub"
	}`, rr.Body.String())
}

func TestCreatePost(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPosts  int
	}{
		{"Valid post", `{"agent": "Agent_01", "text": "Headline: hi\nBias: Neutral"}`, http.StatusOK, 2},
		{"Empty agent", `{"agent": "", "text": "hello"}`, http.StatusBadRequest, 1},
		{"Whitespace text", `{"agent": "Agent_01", "text": "   "}`, http.StatusBadRequest, 1},
		{"Invalid body", `{"agent":`, http.StatusBadRequest, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTest(t, 100000, 1)
			rr := env.do(t, http.MethodPost, "/api/post", []byte(tt.body))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Len(t, env.hub.State(200, 0).Posts, tt.wantPosts)
		})
	}
}

func TestCreatePost_MissingFieldsMessage(t *testing.T) {
	env := setupTest(t, 100000, 1)
	rr := env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "", "text": "x"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error": "agent and text are required"}`, rr.Body.String())
}

func TestCreatePost_ReplyAndTrade(t *testing.T) {
	env := setupTest(t, 100000, 0)

	rr := env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "Agent_02", "text": "Bias: Long", "reply_to": 1}`))
	require.Equal(t, http.StatusOK, rr.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))
	assert.Equal(t, 2, post.ID)
	require.NotNil(t, post.ReplyTo)
	assert.Equal(t, 1, *post.ReplyTo)

	rr = env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "Agent_02", "text": "Bias: Long", "reply_to": 999}`))
	require.Equal(t, http.StatusOK, rr.Code)
	post = models.Post{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))
	assert.Nil(t, post.ReplyTo)

	var state hub.State
	rr = env.do(t, http.MethodGet, "/api/state", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	require.Len(t, state.Trades, 2)
	assert.Equal(t, models.SideBuy, state.Trades[0].Side)
	assert.Equal(t, 100.0, state.Trades[0].Price)
}

func TestGetState_Limits(t *testing.T) {
	env := setupTest(t, 100000, 1)
	for i := 0; i < 5; i++ {
		env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "Agent_01", "text": "note"}`))
	}

	var state hub.State
	rr := env.do(t, http.MethodGet, "/api/state?limit_posts=3&limit_trades=0", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	require.Len(t, state.Posts, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{state.Posts[0].ID, state.Posts[1].ID, state.Posts[2].ID})
	assert.Empty(t, state.Trades)
	assert.Equal(t, 100.0, state.Price)

	rr = env.do(t, http.MethodGet, "/api/state?limit_posts=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSnapshot(t *testing.T) {
	env := setupTest(t, 100000, 1)

	rr := env.do(t, http.MethodGet, "/api/snapshot", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/snapshot?agent=Newcomer&limit_posts=5&limit_prices=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 100.0, snap.Price)
	assert.Equal(t, 100000.0, snap.Cash)
	assert.Equal(t, 0.0, snap.Position)
	assert.NotEmpty(t, snap.RecentPrices)
	assert.Len(t, snap.Research, 12)
	assert.Equal(t, 4, env.hub.AgentCount())

	env.do(t, http.MethodGet, "/api/snapshot?agent=Newcomer", nil)
	assert.Equal(t, 4, env.hub.AgentCount())
}

func TestGetPnL(t *testing.T) {
	env := setupTest(t, 100000, 1)
	rr := env.do(t, http.MethodGet, "/api/pnl", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []models.AgentPnL
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Agent_01", rows[0].Agent)
	assert.Equal(t, 100000.0, rows[0].Equity)
}

func TestResearchAndMarkets(t *testing.T) {
	env := setupTest(t, 100000, 1)

	rr := env.do(t, http.MethodGet, "/api/research", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var items []models.ResearchItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	assert.Len(t, items, 12)

	rr = env.do(t, http.MethodGet, "/api/markets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"commodities": [], "cryptos": [], "updated_ts": 0}`, rr.Body.String())
}

func TestState_TimestampsAreEpochSeconds(t *testing.T) {
	env := setupTest(t, 100000, 0)
	before := float64(time.Now().Unix())
	env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "Agent_01", "text": "Bias: Long"}`))

	rr := env.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var raw struct {
		Posts  []map[string]any `json:"posts"`
		Trades []map[string]any `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.Len(t, raw.Posts, 2)
	require.Len(t, raw.Trades, 1)

	for _, row := range append(raw.Posts, raw.Trades...) {
		ts, ok := row["ts"].(float64)
		require.True(t, ok, "ts should be a JSON number, got %T", row["ts"])
		assert.GreaterOrEqual(t, ts, before-1)
		assert.Less(t, ts, before+60)
	}

	rr = env.do(t, http.MethodGet, "/api/research", nil)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.NotEmpty(t, items)
	assert.Equal(t, 0.0, items[0]["ts"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTest(t, 100000, 1)
	env.do(t, http.MethodPost, "/api/post", []byte(`{"agent": "Agent_01", "text": "note"}`))

	rr := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "hub_posts_total 2")
	assert.Contains(t, rr.Body.String(), "hub_agents 3")
}

func TestWebSocketBroadcast(t *testing.T) {
	env := setupTest(t, 100000, 1)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial hub.State
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, 100.0, initial.Price)
	require.Len(t, initial.Posts, 1)
	assert.Equal(t, hub.SystemAgent, initial.Posts[0].Agent)

	require.Eventually(t, func() bool { return env.live.Clients() == 1 }, time.Second, 10*time.Millisecond)

	env.hub.Post("Agent_01", "fresh note", nil)
	env.live.Broadcast()

	var next hub.State
	require.NoError(t, conn.ReadJSON(&next))
	require.Len(t, next.Posts, 2)
	assert.Equal(t, "fresh note", next.Posts[1].Text)

	conn.Close()
	require.Eventually(t, func() bool { return env.live.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
