package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xtrntr/agenthub/internal/models"
)

// Client talks to a hub's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a hub client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot fetches the composite view for agent.
func (c *Client) Snapshot(ctx context.Context, agent string, limitPosts, limitPrices int) (models.Snapshot, error) {
	q := url.Values{}
	q.Set("agent", agent)
	q.Set("limit_posts", strconv.Itoa(limitPosts))
	q.Set("limit_prices", strconv.Itoa(limitPrices))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/snapshot?"+q.Encode(), nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("create snapshot request: %w", err)
	}
	var snap models.Snapshot
	if err := c.do(req, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	return snap, nil
}

type postRequest struct {
	Agent   string `json:"agent"`
	Text    string `json:"text"`
	ReplyTo *int   `json:"reply_to"`
}

// Post publishes a note, optionally as a reply.
func (c *Client) Post(ctx context.Context, agent, text string, replyTo *int) (models.Post, error) {
	body, err := json.Marshal(postRequest{Agent: agent, Text: text, ReplyTo: replyTo})
	if err != nil {
		return models.Post{}, fmt.Errorf("marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/post", bytes.NewReader(body))
	if err != nil {
		return models.Post{}, fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var p models.Post
	if err := c.do(req, &p); err != nil {
		return models.Post{}, fmt.Errorf("submit post: %w", err)
	}
	return p, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
