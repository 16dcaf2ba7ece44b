// Package search queries the Tavily web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/medassist/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 5

	searchPath     = "/search"
	maxErrorBody   = 512
	defaultTimeout = 30 * time.Second
)

// ErrNoAPIKey is returned when the search credential is missing.
var ErrNoAPIKey = errors.New("tavily api key not configured")

type Config struct {
	APIKey        string
	BaseURL       string
	RatePerSecond float64
	HTTPClient    *http.Client
}

// Client is a Tavily search client. It never retries; failures are returned
// as adapter errors so callers can continue without web context.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	Topic       string `json:"topic"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []resultRecord `json:"results"`
}

type resultRecord struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// Search returns at most maxResults results for query. mode selects the
// news-biased profile used by the digest or the general profile used when
// answering questions.
func (c *Client) Search(ctx context.Context, query string, maxResults int, mode domain.SearchMode) ([]domain.WebResult, error) {
	if c.apiKey == "" {
		return nil, domain.NewAdapterError(domain.KindUnavailable, "search", ErrNoAPIKey)
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if !domain.IsValidSearchMode(mode) {
		return nil, domain.ErrInvalidSearchMode
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.ClassifyError("search", fmt.Errorf("rate limiter: %w", err))
	}

	body, err := json.Marshal(buildRequest(query, maxResults, mode))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.ClassifyError("search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, domain.NewAdapterError(kindForStatus(resp.StatusCode), "search",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewAdapterError(domain.KindTimeout, "search", err)
		}
		return nil, domain.NewAdapterError(domain.KindInvalidResponse, "search", fmt.Errorf("failed to decode response: %w", err))
	}

	return toWebResults(decoded.Results, maxResults), nil
}

func buildRequest(query string, maxResults int, mode domain.SearchMode) searchRequest {
	req := searchRequest{
		Query:       query,
		Topic:       string(domain.SearchModeGeneral),
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}
	if mode == domain.SearchModeNews {
		req.Topic = string(domain.SearchModeNews)
		req.SearchDepth = "advanced"
	}
	return req
}

func toWebResults(records []resultRecord, maxResults int) []domain.WebResult {
	results := make([]domain.WebResult, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		results = append(results, domain.WebResult{
			URL:           strings.TrimSpace(r.URL),
			Title:         strings.TrimSpace(r.Title),
			PublishedDate: strings.TrimSpace(r.PublishedDate),
			Content:       strings.TrimSpace(r.Content),
		})
		if len(results) == maxResults {
			break
		}
	}
	return results
}

func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.KindTimeout
	case status == http.StatusTooManyRequests, status >= 500,
		status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.KindUnavailable
	default:
		return domain.KindInvalidResponse
	}
}
