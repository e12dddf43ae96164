package github

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReadme(t *testing.T) {
	var gotPath, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("# hello\n\nA project readme.")) //nolint:errcheck // test handler
	})

	readme, err := client.FetchReadme(context.Background(), "alice", "proj")
	require.NoError(t, err)

	assert.Equal(t, "# hello\n\nA project readme.", readme)
	assert.Equal(t, "/repos/alice/proj/readme", gotPath)
	assert.Equal(t, "application/vnd.github.v3.raw", gotAccept)
}

func TestFetchReadmeMissing(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchReadme(context.Background(), "alice", "proj")
	assert.ErrorIs(t, err, ErrNoReadme)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestFetchReadmeEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n")) //nolint:errcheck // test handler
	})

	_, err := client.FetchReadme(context.Background(), "alice", "proj")
	assert.ErrorIs(t, err, ErrNoReadme)
}

func TestFetchReadmeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered")) //nolint:errcheck // test handler
	})

	readme, err := client.FetchReadme(context.Background(), "alice", "proj")
	require.NoError(t, err)
	assert.Equal(t, "recovered", readme)
	assert.Equal(t, int32(2), calls.Load())
}
