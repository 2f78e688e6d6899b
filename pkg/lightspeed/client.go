// Package lightspeed provides a read client for the Lightspeed eCom
// REST API and a category exporter built on it.
package lightspeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for shop API requests.
var (
	lightspeedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightspeed_requests_total",
		Help: "Total shop API requests by resource path and status code",
	}, []string{"path", "status"})

	lightspeedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lightspeed_request_duration_seconds",
		Help:    "Shop API request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"path"})

	lightspeedErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightspeed_errors_total",
		Help: "Total shop API errors by class",
	}, []string{"class"})
)

// Error classification constants.
const (
	// ErrorClassClient represents 4xx client errors
	ErrorClassClient = "client"
	// ErrorClassServer represents 5xx server errors
	ErrorClassServer = "server"
	// ErrorClassRateLimit represents 429 rate limit rejections
	ErrorClassRateLimit = "rate_limit"
	// ErrorClassNetwork represents connection/transport errors
	ErrorClassNetwork = "network"
)

// DefaultLanguage selects the shop storefront language segment of the
// API host.
const DefaultLanguage = "nl"

// maxErrorBody bounds how much of an error response body is kept for
// the diagnostic line.
const maxErrorBody = 2048

// Client is a read-only Lightspeed eCom API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Key is the API key (REQUIRED)
	Key string

	// Secret is the API secret (REQUIRED)
	Secret string

	// Language segment of the API host (default "nl")
	Language string

	// BaseURL overrides the API host (for testing).
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// New creates a new Lightspeed client.
func New(cfg Config) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("api secret is required")
	}

	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://api.webshopapp.com/%s", language)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		key:        cfg.Key,
		secret:     cfg.Secret,
		logger:     log.With().Str("component", "lightspeed").Logger(),
	}, nil
}

// Get issues one GET against a resource path and decodes the response
// envelope into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", path, err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	lightspeedRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())

	if err != nil {
		lightspeedErrorsTotal.WithLabelValues(ErrorClassNetwork).Inc()
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	lightspeedRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		lightspeedErrorsTotal.WithLabelValues(classifyStatus(resp.StatusCode)).Inc()

		c.logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("path", path).
			Msg("Shop API HTTP error")

		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// EachPage walks a paged collection resource. fetch runs one page
// request and reports how many items that page yielded; a short page
// means the collection is exhausted.
func (c *Client) EachPage(ctx context.Context, limit int, fetch func(page, limit int) (int, error)) error {
	for page := 1; ; page++ {
		count, err := fetch(page, limit)
		if err != nil {
			return err
		}
		if count < limit {
			return nil
		}
	}
}

// categoriesPage fetches one page of categories.
func (c *Client) categoriesPage(ctx context.Context, page, limit int) ([]Category, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var envelope struct {
		Categories []Category `json:"categories"`
	}
	if err := c.Get(ctx, "categories.json", query, &envelope); err != nil {
		return nil, err
	}

	return envelope.Categories, nil
}

// CategoryProducts fetches every product link of one category, page
// by page.
func (c *Client) CategoryProducts(ctx context.Context, categoryID int64, limit int) ([]CategoryProduct, error) {
	links := make([]CategoryProduct, 0)

	err := c.EachPage(ctx, limit, func(page, limit int) (int, error) {
		query := url.Values{}
		query.Set("category", strconv.FormatInt(categoryID, 10))
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(limit))

		var envelope struct {
			CategoriesProducts []categoryProductNode `json:"categoriesProducts"`
		}
		if err := c.Get(ctx, "categories/products.json", query, &envelope); err != nil {
			return 0, err
		}

		for _, node := range envelope.CategoriesProducts {
			links = append(links, node.flatten())
		}
		return len(envelope.CategoriesProducts), nil
	})
	if err != nil {
		return nil, err
	}

	return links, nil
}

// classifyStatus maps an HTTP status code to an error class label.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}
