// Package shopify provides the Admin GraphQL API client used by the
// product export pipeline: query execution, cost-based throttling, and
// cursor pagination over connection fields.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Admin API operations.
var (
	shopifyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_requests_total",
		Help: "Total Admin API requests by operation and status",
	}, []string{"operation", "status"})

	shopifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopify_request_duration_seconds",
		Help:    "Admin API request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	shopifyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_errors_total",
		Help: "Total Admin API errors by class",
	}, []string{"class"})

	shopifyQueryCost = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_query_cost",
		Help:    "Actual query cost reported per request",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
	})
)

// ErrorClass represents a classification of Admin API errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses. The cost throttle
	// keeps these rare; one still aborts the run.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassGraphQL represents HTTP 200 responses carrying a
	// non-empty errors array.
	ErrorClassGraphQL ErrorClass = "graphql"
)

// maxErrorBody bounds how much of an error response body is kept for
// the diagnostic line.
const maxErrorBody = 2048

// Client is the Admin GraphQL API client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	throttle   *Throttle
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Store domain, e.g. "demo-shop.myshopify.com" (REQUIRED)
	StoreDomain string

	// Admin API access token (REQUIRED)
	AccessToken string

	// Admin API version, e.g. "2024-07" (REQUIRED)
	APIVersion string

	// ThrottleFloor is the available-capacity level below which the
	// client pauses before its next request (default 100).
	ThrottleFloor float64

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client

	// BaseURL overrides the store endpoint (for testing).
	BaseURL string
}

// DefaultConfig returns a default client configuration.
func DefaultConfig(storeDomain, accessToken, apiVersion string) Config {
	return Config{
		StoreDomain:   storeDomain,
		AccessToken:   accessToken,
		APIVersion:    apiVersion,
		ThrottleFloor: DefaultThrottleFloor,
	}
}

// New creates a new Admin API client.
func New(cfg Config) (*Client, error) {
	if cfg.StoreDomain == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("store domain is required")
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	if cfg.APIVersion == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("api version is required")
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.StoreDomain, cfg.APIVersion)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := log.With().Str("component", "shopify").Logger()

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      cfg.AccessToken,
		throttle:   NewThrottle(cfg.ThrottleFloor, logger),
		logger:     logger,
	}, nil
}

// Request is one GraphQL operation. Operation names the query for logs
// and metrics; Variables may be nil.
type Request struct {
	Operation string
	Query     string
	Variables map[string]any
}

type graphQLBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data       json.RawMessage `json:"data"`
	Errors     []ResponseError `json:"errors"`
	Extensions *struct {
		Cost *Cost `json:"cost"`
	} `json:"extensions"`
}

// Execute posts one GraphQL request and returns the raw data payload
// plus the cost envelope the API reported. It honors any pause the
// throttle recorded from the previous response before sending.
func (c *Client) Execute(ctx context.Context, req Request) (json.RawMessage, *Cost, error) {
	if err := c.throttle.Pause(ctx); err != nil {
		return nil, nil, err
	}

	startTime := time.Now()
	defer func() {
		shopifyRequestDuration.WithLabelValues(req.Operation).Observe(time.Since(startTime).Seconds())
	}()

	body, err := json.Marshal(graphQLBody{Query: req.Query, Variables: req.Variables})
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s request: %w", req.Operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create %s request: %w", req.Operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", c.token)

	c.logger.Debug().
		Str("operation", req.Operation).
		Msg("Executing Admin API request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		shopifyErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		shopifyRequestsTotal.WithLabelValues(req.Operation, "network_error").Inc()
		return nil, nil, fmt.Errorf("execute %s: %w", req.Operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errClass := classifyStatus(resp.StatusCode)
		shopifyErrorsTotal.WithLabelValues(string(errClass)).Inc()
		shopifyRequestsTotal.WithLabelValues(req.Operation, strconv.Itoa(resp.StatusCode)).Inc()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn().
			Str("operation", req.Operation).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Admin API request error")

		return nil, nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("decode %s response: %w", req.Operation, err)
	}

	shopifyRequestsTotal.WithLabelValues(req.Operation, strconv.Itoa(resp.StatusCode)).Inc()

	if len(envelope.Errors) > 0 {
		shopifyErrorsTotal.WithLabelValues(string(ErrorClassGraphQL)).Inc()
		return nil, nil, &GraphQLError{Operation: req.Operation, Errors: envelope.Errors}
	}

	var cost *Cost
	if envelope.Extensions != nil {
		cost = envelope.Extensions.Cost
	}
	if cost != nil {
		shopifyQueryCost.Observe(cost.ActualQueryCost)
		c.throttle.Observe(cost)
	}

	return envelope.Data, cost, nil
}

// classifyStatus categorizes an HTTP status for observability.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
