package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config pointed at a test server, with delays short
// enough to keep the suite fast.
func testConfig(serverURL string) *Config {
	cfg := DefaultConfig()
	cfg.Token = "test-token"
	cfg.GraphQLURL = serverURL
	cfg.RESTBaseURL = serverURL
	cfg.RetryDelay = time.Millisecond
	cfg.PageDelay = time.Millisecond
	cfg.BatchDelay = time.Millisecond
	cfg.ReadmeDelay = time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresToken(t *testing.T) {
	cfg := DefaultConfig()
	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestRunQueryRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"ok":true}}`)) //nolint:errcheck // test handler
	})

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.runQuery(context.Background(), 0, "{ ok }", nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunQueryRetriesTransientGraphQLErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"errors":[{"message":"Something went wrong while executing your query."}]}`)) //nolint:errcheck // test handler
			return
		}
		w.Write([]byte(`{"data":{"ok":true}}`)) //nolint:errcheck // test handler
	})

	err := client.runQuery(context.Background(), 0, "{ ok }", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunQueryComplexityErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"errors":[{"message":"Resource limits exceeded: query is too expensive"}]}`)) //nolint:errcheck // test handler
	})

	err := client.runQuery(context.Background(), 0, "{ big }", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryComplexity)
	assert.Equal(t, int32(1), calls.Load(), "complexity errors must not be retried")
}

func TestRunQueryClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.runQuery(context.Background(), 0, "{ ok }", nil, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunQuerySendsAuthHeader(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{}}`)) //nolint:errcheck // test handler
	})

	require.NoError(t, client.runQuery(context.Background(), 0, "{ ok }", nil, nil))
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestRunQueryBooksQuota(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"rateLimit":{"cost":7,"remaining":4993,"resetAt":"2026-01-01T00:00:00Z"}}}`)) //nolint:errcheck // test handler
	})

	require.NoError(t, client.runQuery(context.Background(), 0, "{ ok }", nil, nil))
	require.NoError(t, client.runQuery(context.Background(), 0, "{ ok }", nil, nil))

	cost, remaining := client.Quota()
	assert.Equal(t, 14, cost)
	assert.Equal(t, 4993, remaining)
}

func TestRunQueryQuotaExhaustionIsFatal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"rateLimit":{"cost":1,"remaining":0,"resetAt":"2026-01-01T00:00:00Z"}}}`)) //nolint:errcheck // test handler
	})

	err := client.runQuery(context.Background(), 0, "{ ok }", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad gateway", &HTTPError{StatusCode: 502}, true},
		{"gateway timeout", &HTTPError{StatusCode: 504}, true},
		{"too many requests", &HTTPError{StatusCode: 429}, true},
		{"internal error", &HTTPError{StatusCode: 500}, true},
		{"unauthorized", &HTTPError{StatusCode: 401}, false},
		{"not found", &HTTPError{StatusCode: 404}, false},
		{"complexity", ErrQueryComplexity, false},
		{"quota exhausted", ErrQuotaExhausted, false},
		{"cancelled", context.Canceled, false},
		{"graphql transient", ErrGraphQL, true},
		{"network", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestRateGateEnforcesGap(t *testing.T) {
	gate := &rateGate{}
	ctx := context.Background()

	require.NoError(t, gate.wait(ctx, 50*time.Millisecond))

	start := time.Now()
	require.NoError(t, gate.wait(ctx, 50*time.Millisecond))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "second request must respect the gap")
}

func TestRateGateFirstRequestPassesImmediately(t *testing.T) {
	gate := &rateGate{}

	start := time.Now()
	require.NoError(t, gate.wait(context.Background(), time.Second))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateGateHonorsCancellation(t *testing.T) {
	gate := &rateGate{}
	require.NoError(t, gate.wait(context.Background(), time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gate.wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
