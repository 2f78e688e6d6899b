// Package sanity provides a read client for the Sanity Content Lake
// HTTP query API: GROQ in, raw JSON documents out.
package sanity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for query API requests.
var (
	sanityRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sanity_requests_total",
		Help: "Total Sanity query API requests by status code",
	}, []string{"status"})

	sanityRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sanity_request_duration_seconds",
		Help:    "Sanity query API request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	sanityErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sanity_errors_total",
		Help: "Total Sanity query API errors by class",
	}, []string{"class"})
)

// Error classification constants.
const (
	// ErrorClassClient represents 4xx client errors
	ErrorClassClient = "client"
	// ErrorClassServer represents 5xx server errors
	ErrorClassServer = "server"
	// ErrorClassNetwork represents connection/transport errors
	ErrorClassNetwork = "network"
	// ErrorClassQuery represents GROQ errors reported by the API
	ErrorClassQuery = "query"
)

// maxErrorBody bounds how much of an error response body is kept for
// the diagnostic line.
const maxErrorBody = 2048

// Client is a read-only Sanity query API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	dataset    string
	version    string
	token      string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// ProjectID of the Sanity project (REQUIRED unless BaseURL is set)
	ProjectID string

	// Dataset to query, e.g. "production" (REQUIRED)
	Dataset string

	// Version is the API version date, e.g. "2024-01-01" (REQUIRED)
	Version string

	// Token for bearer authentication (REQUIRED)
	Token string

	// BaseURL overrides the project host (for testing).
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// New creates a new Sanity client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("project id is required")
	}

	if cfg.Dataset == "" {
		return nil, fmt.Errorf("dataset is required")
	}

	if cfg.Version == "" {
		return nil, fmt.Errorf("api version is required")
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		dataset:    cfg.Dataset,
		version:    cfg.Version,
		token:      cfg.Token,
		logger:     log.With().Str("component", "sanity").Logger(),
	}, nil
}

// queryResponse is the query API envelope.
type queryResponse struct {
	Result json.RawMessage `json:"result"`
	MS     float64         `json:"ms"`
}

// errorResponse is the envelope the API uses for reported failures.
type errorResponse struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

// Query runs one GROQ query against the dataset and returns the raw
// result. Params are JSON-encoded and passed as $-prefixed query
// parameters, so values are never spliced into the GROQ text.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("query", groq)

	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode query param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.version, c.dataset, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	sanityRequestDuration.Observe(duration.Seconds())

	if err != nil {
		sanityErrorsTotal.WithLabelValues(ErrorClassNetwork).Inc()
		return nil, fmt.Errorf("query dataset %s: %w", c.dataset, err)
	}
	defer resp.Body.Close()

	sanityRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		// The API reports GROQ problems as a structured error body.
		var parsed errorResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Description != "" {
			sanityErrorsTotal.WithLabelValues(ErrorClassQuery).Inc()
			return nil, &QueryError{
				Description: parsed.Error.Description,
				Type:        parsed.Error.Type,
			}
		}

		sanityErrorsTotal.WithLabelValues(classifyStatus(resp.StatusCode)).Inc()

		c.logger.Warn().
			Int("status_code", resp.StatusCode).
			Msg("Query API HTTP error")

		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var envelope queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	c.logger.Debug().
		Dur("duration", duration).
		Float64("server_ms", envelope.MS).
		Msg("Query completed")

	return envelope.Result, nil
}

// classifyStatus maps an HTTP status code to an error class label.
func classifyStatus(statusCode int) string {
	if statusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}
