// Package agent provides the client for the structured text-generation
// service: one prompt in, one schema-constrained JSON result out.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for generation calls.
var (
	agentCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_calls_total",
		Help: "Total generation calls by outcome",
	}, []string{"outcome"})

	agentCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_call_duration_seconds",
		Help:    "Generation call duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})

	agentCostUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_cost_usd_total",
		Help: "Accumulated generation cost in US dollars",
	})

	agentTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_tokens_total",
		Help: "Token usage by direction",
	}, []string{"direction"})
)

// SubtypeSuccess marks a completed generation. Every other subtype is
// a failure.
const SubtypeSuccess = "success"

// DefaultMaxTurns bounds the service's internal reasoning turns per
// call.
const DefaultMaxTurns = 8

// maxErrorBody bounds how much of an error response body is kept for
// the diagnostic line.
const maxErrorBody = 2048

// Client calls the generation service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	maxTurns   int
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the generation service (REQUIRED)
	BaseURL string

	// APIKey for bearer authentication (REQUIRED)
	APIKey string

	// MaxTurns per call (default 8)
	MaxTurns int

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
}

// New creates a new generation client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// A batch routinely takes minutes; no client-side deadline.
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/v1/query",
		apiKey:     cfg.APIKey,
		maxTurns:   maxTurns,
		logger:     log.With().Str("component", "agent").Logger(),
	}, nil
}

// Request is one generation call. Tools is always sent, empty: the
// service must not reach for any tool while writing copy.
type Request struct {
	Prompt       string   `json:"prompt"`
	System       string   `json:"system,omitempty"`
	OutputSchema *Schema  `json:"output_schema,omitempty"`
	MaxTurns     int      `json:"max_turns"`
	Tools        []string `json:"tools"`
}

// Usage counts the tokens one call consumed.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Result is the service's response envelope. Result holds the
// schema-constrained payload and is only meaningful on success.
type Result struct {
	Subtype      string          `json:"subtype"`
	Message      string          `json:"message,omitempty"`
	Result       json.RawMessage `json:"result"`
	TotalCostUSD float64         `json:"total_cost_usd"`
	Usage        Usage           `json:"usage"`
}

// Generate posts one generation request and returns the completed
// result. A reachable service reporting a non-success subtype is a
// *ResultError; transport problems surface as *HTTPError or a wrapped
// network error.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.MaxTurns <= 0 {
		req.MaxTurns = c.maxTurns
	}
	if req.Tools == nil {
		req.Tools = []string{}
	}

	startTime := time.Now()
	defer func() {
		agentCallDuration.Observe(time.Since(startTime).Seconds())
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		agentCallsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		agentCallsTotal.WithLabelValues("http_error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn().
			Int("status_code", resp.StatusCode).
			Msg("Generation service HTTP error")

		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	if result.Subtype != SubtypeSuccess {
		agentCallsTotal.WithLabelValues(result.Subtype).Inc()
		return nil, &ResultError{Subtype: result.Subtype, Message: result.Message}
	}

	agentCallsTotal.WithLabelValues(SubtypeSuccess).Inc()
	agentCostUSD.Add(result.TotalCostUSD)
	agentTokensTotal.WithLabelValues("input").Add(float64(result.Usage.InputTokens))
	agentTokensTotal.WithLabelValues("output").Add(float64(result.Usage.OutputTokens))

	c.logger.Debug().
		Dur("duration", time.Since(startTime)).
		Float64("cost_usd", result.TotalCostUSD).
		Int64("input_tokens", result.Usage.InputTokens).
		Int64("output_tokens", result.Usage.OutputTokens).
		Msg("Generation call completed")

	return &result, nil
}
