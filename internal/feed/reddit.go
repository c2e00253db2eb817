package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xtrntr/agenthub/internal/models"
)

const DefaultRedditURL = "https://www.reddit.com"

// RedditConfig holds the research feed settings.
type RedditConfig struct {
	BaseURL    string
	Subreddits []string
	Mode       string // hot | new | top
	Limit      int    // Posts per subreddit
	AllowNSFW  bool
	UserAgent  string
}

// Reddit fetches listing pages from a set of subreddits.
type Reddit struct {
	cfg        RedditConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewReddit creates a research fetcher.
func NewReddit(cfg RedditConfig, httpClient *http.Client, logger *slog.Logger) *Reddit {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRedditURL
	}
	switch cfg.Mode {
	case "hot", "new", "top":
	default:
		cfg.Mode = "hot"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 6
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reddit{cfg: cfg, httpClient: httpClient, logger: logger}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string         `json:"kind"`
			Data redditPostData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPostData struct {
	Name        string  `json:"name"`
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	URLOverride string  `json:"url_overridden_by_dest"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       *int    `json:"score"`
	Over18      bool    `json:"over_18"`
}

// FetchResearch walks every subreddit. A subreddit that fails is logged
// and skipped; the call errors only when every subreddit failed.
func (r *Reddit) FetchResearch(ctx context.Context) ([]models.ResearchItem, error) {
	var items []models.ResearchItem
	var failed int
	var lastErr error
	for _, sub := range r.cfg.Subreddits {
		got, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			r.logger.Warn("reddit fetch failed", "subreddit", sub, "err", err)
			failed++
			lastErr = err
			continue
		}
		items = append(items, got...)
	}
	if failed > 0 && failed == len(r.cfg.Subreddits) {
		return nil, fmt.Errorf("all %d subreddits failed: %w", failed, lastErr)
	}
	return items, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, sub string) ([]models.ResearchItem, error) {
	u := fmt.Sprintf("%s/r/%s/%s.json?limit=%d",
		strings.TrimRight(r.cfg.BaseURL, "/"), url.PathEscape(sub), r.cfg.Mode, r.cfg.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var items []models.ResearchItem
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		if it, ok := r.buildItem(sub, child.Data); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (r *Reddit) buildItem(sub string, d redditPostData) (models.ResearchItem, bool) {
	if d.Over18 && !r.cfg.AllowNSFW {
		return models.ResearchItem{}, false
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return models.ResearchItem{}, false
	}

	link := strings.TrimSpace(d.URLOverride)
	if link == "" {
		link = strings.TrimSpace(d.URL)
	}
	if link == "" {
		if p := strings.TrimSpace(d.Permalink); p != "" {
			link = DefaultRedditURL + p
		} else {
			link = DefaultRedditURL
		}
	}

	id := d.Name
	if id == "" {
		id = d.ID
	}
	if id == "" {
		h := fnv.New32a()
		h.Write([]byte(title))
		id = fmt.Sprintf("%s:%d", sub, h.Sum32())
	}

	ts := time.Now()
	if d.CreatedUTC > 0 {
		sec := int64(d.CreatedUTC)
		ts = time.Unix(sec, int64((d.CreatedUTC-float64(sec))*1e9))
	}

	return models.ResearchItem{
		ID:        "reddit:" + id,
		TS:        models.Stamp(ts),
		Source:    "reddit",
		Title:     title,
		URL:       link,
		Score:     d.Score,
		Subreddit: sub,
	}, true
}
