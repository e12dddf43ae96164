package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Client issues authenticated GitHub API requests with retry, rate gating,
// and quota accounting. Safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
	gate       *rateGate
	quota      *quotaLedger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for retry and quota events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client from the given configuration.
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
		gate:       &rateGate{},
		quota:      &quotaLedger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "github")
	return c, nil
}

// Quota returns the accumulated API cost and the last reported remaining
// budget (-1 before the first response).
func (c *Client) Quota() (cost, remaining int) {
	return c.quota.usage()
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// runQuery executes one GraphQL query and decodes its data into out. The
// minimum gap to the previous request is enforced first; transient failures
// retry with exponential backoff. The response's rateLimit envelope, when
// present, is booked into the quota ledger.
func (c *Client) runQuery(ctx context.Context, gap time.Duration, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	data, err := retry.DoWithData(
		func() (json.RawMessage, error) {
			if err := c.gate.wait(ctx, gap); err != nil {
				return nil, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.GraphQLURL, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.config.Token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: c.config.GraphQLURL}
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}

			var envelope graphQLResponse
			if err := json.Unmarshal(body, &envelope); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			if len(envelope.Errors) > 0 {
				return nil, classifyGraphQLError(envelope.Errors[0])
			}
			return envelope.Data, nil
		},
		c.retryOptions(ctx, "graphql query")...,
	)
	if err != nil {
		return err
	}

	if err := c.bookQuota(data); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// get executes one REST GET and returns the response body. A non-200 status
// surfaces as *HTTPError after retries are exhausted.
func (c *Client) get(ctx context.Context, gap time.Duration, url, accept string) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			if err := c.gate.wait(ctx, gap); err != nil {
				return nil, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.config.Token)
			if accept != "" {
				req.Header.Set("Accept", accept)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
			}
			return io.ReadAll(resp.Body)
		},
		c.retryOptions(ctx, "rest request")...,
	)
}

func (c *Client) retryOptions(ctx context.Context, kind string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(c.config.MaxRetries)), //nolint:gosec // validated positive
		retry.Delay(c.config.RetryDelay),          // doubles per attempt: 1s, 2s, 4s
		retry.MaxJitter(c.config.RetryDelay / 4),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying "+kind, "attempt", n+1, "error", err)
		}),
	}
}

// bookQuota extracts the rateLimit envelope, if any, and records it.
func (c *Client) bookQuota(data json.RawMessage) error {
	var probe struct {
		RateLimit *rateLimitInfo `json:"rateLimit"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.RateLimit == nil {
		return nil //nolint:nilerr // responses without an envelope book nothing
	}
	return c.quota.record(*probe.RateLimit, c.logger)
}

// classifyGraphQLError maps a GraphQL error to a sentinel. Resource-limit
// rejections are permanent; everything else is assumed transient.
func classifyGraphQLError(gqlErr graphQLError) error {
	if isComplexityMessage(gqlErr.Message) {
		return fmt.Errorf("%w: %s", ErrQueryComplexity, gqlErr.Message)
	}
	return fmt.Errorf("%w: %s", ErrGraphQL, gqlErr.Message)
}

func isComplexityMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "resource limits") || strings.Contains(lower, "complexity")
}

// isRetryableError returns true for transient errors worth another attempt.
func isRetryableError(err error) bool {
	if errors.Is(err, ErrQueryComplexity) || errors.Is(err, ErrQuotaExhausted) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // other 4xx are permanent
		}
	}
	// Network errors and transient GraphQL errors.
	return true
}
