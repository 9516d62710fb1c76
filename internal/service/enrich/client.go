// Package enrich backfills descriptive text for people and events from the
// Wikipedia REST summary API. Fetches run behind a circuit breaker and a
// rate limiter; successful summaries are cached in memory and persisted back
// onto the entity record so each entity is enriched at most once.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"worldgraph-backend/pkg/errors"
	"worldgraph-backend/pkg/observability"
)

// DefaultBaseURL is the production summary endpoint prefix.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary"

// Summary is the subset of the Wikipedia summary payload the engine uses.
type Summary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Description string `json:"description"`
	Thumbnail   *struct {
		Source string `json:"source"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnail,omitempty"`
	ContentURLs *struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls,omitempty"`
}

// PageURL returns the canonical desktop page URL, if present.
func (s *Summary) PageURL() string {
	if s.ContentURLs == nil {
		return ""
	}
	return s.ContentURLs.Desktop.Page
}

// ThumbnailURL returns the thumbnail source, if present.
func (s *Summary) ThumbnailURL() string {
	if s.Thumbnail == nil {
		return ""
	}
	return s.Thumbnail.Source
}

// ClientConfig tunes the summary client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
	// RatePerSecond throttles outbound fetches; bursts of one keep the
	// client polite toward the public API.
	RatePerSecond float64
}

// DefaultClientConfig returns production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:       DefaultBaseURL,
		UserAgent:     "WorldGraph/1.0 (dev@worldgraph.app)",
		Timeout:       10 * time.Second,
		CacheTTL:      24 * time.Hour,
		RatePerSecond: 2,
	}
}

// Client fetches summaries with caching, throttling and a circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	cache      *gocache.Cache
	baseURL    string
	userAgent  string
	logger     *zap.Logger
	metrics    *observability.Collector
}

// NewClient creates a summary client.
func NewClient(cfg ClientConfig, logger *zap.Logger, metrics *observability.Collector) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wikipedia-summary",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("enrichment circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cache:      gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// HTTPClient exposes the underlying client for transport stubbing in tests.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// FetchSummary looks up the summary for a page title. A missing page
// returns (nil, nil): absence of enrichment is not an error. Transport and
// upstream failures surface as EXTERNAL errors.
func (c *Client) FetchSummary(ctx context.Context, title string) (*Summary, error) {
	if cached, ok := c.cache.Get(title); ok {
		return cached.(*Summary), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewExternalError("wikipedia", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, title)
	})
	if err != nil {
		c.observe("error")
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errors.NewUnavailableError("wikipedia").WithCause(err)
		}
		return nil, err
	}
	summary, _ := result.(*Summary)
	if summary == nil {
		c.observe("miss")
		return nil, nil
	}
	c.observe("hit")
	c.cache.SetDefault(title, summary)
	return summary, nil
}

func (c *Client) fetch(ctx context.Context, title string) (*Summary, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewExternalError("wikipedia", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("wikipedia", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("no summary page", zap.String("title", title))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternalError("wikipedia",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, errors.NewExternalError("wikipedia", err)
	}
	return &summary, nil
}

func (c *Client) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.EnrichmentFetches.WithLabelValues(outcome).Inc()
	}
}
