package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/github"
	"github.com/poiesic/devscout/rank"
	"github.com/poiesic/devscout/storage"
	"github.com/poiesic/devscout/storage/badger"
)

// testSource is a scripted ProfileSource. Unset fields fall back to
// reasonable defaults so tests only spell out what they exercise.
type testSource struct {
	mu          sync.Mutex
	logins      []core.Identifier
	stats       *github.SearchStats
	searchErr   error
	profiles    []*core.Profile
	failed      []github.FailedBatch
	fetchErr    error
	readmes     map[string]string
	fetchedWith []core.Identifier
	readmeCalls int
}

// SearchLogins scripts both clean walks and aborted ones: with searchErr
// set and logins present it reports a partial walk, the way the real
// searcher does when quota dies mid-pagination.
func (s *testSource) SearchLogins(ctx context.Context, query string) ([]core.Identifier, *github.SearchStats, error) {
	if s.searchErr != nil && len(s.logins) == 0 {
		return nil, nil, s.searchErr
	}
	stats := s.stats
	if stats == nil {
		stats = &github.SearchStats{
			TotalMatching: len(s.logins),
			Pages:         1,
			Collected:     len(s.logins),
		}
	}
	return s.logins, stats, s.searchErr
}

func (s *testSource) FetchProfiles(ctx context.Context, logins []core.Identifier) ([]*core.Profile, []github.FailedBatch, error) {
	s.mu.Lock()
	s.fetchedWith = append([]core.Identifier(nil), logins...)
	s.mu.Unlock()
	return s.profiles, s.failed, s.fetchErr
}

func (s *testSource) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	s.mu.Lock()
	s.readmeCalls++
	s.mu.Unlock()
	body, ok := s.readmes[owner+"/"+repo]
	if !ok {
		return "", github.ErrNoReadme
	}
	return body, nil
}

func (s *testSource) readmeCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readmeCalls
}

func setupTestStore(t *testing.T) (storage.RunStore, func()) {
	t.Helper()
	runs, cache, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	cleanup := func() {
		cache.Close()
		runs.Close()
		backend.Close()
	}
	return runs, cleanup
}

func newTestRanker(t *testing.T) *rank.Ranker {
	t.Helper()
	ranker, err := rank.NewRanker(rank.DefaultConfig())
	require.NoError(t, err)
	return ranker
}

// activeProfile builds a profile that clears the activity gate: steady
// daily contributions over the trailing 60 days and a freshly pushed
// repository.
func activeProfile(login string, total, stars, followers int) *core.Profile {
	daily := make([]int, core.ContributionDays)
	perDay := total / 60
	if perDay < 1 {
		perDay = 1
	}
	for i := 0; i < 60; i++ {
		daily[core.ContributionDays-1-i] = perDay
	}
	return &core.Profile{
		Login:     core.Identifier(login),
		Followers: followers,
		RepoCount: 8,
		Repositories: []core.Repository{{
			Name:            login + "-main",
			Description:     "primary project",
			Stars:           stars,
			PrimaryLanguage: "Go",
			PushedAt:        time.Now().UTC().AddDate(0, 0, -2),
		}},
		Contributions: core.ContributionHistory{Total: total, Daily: daily},
		FetchedAt:     time.Now().UTC(),
	}
}

// inactiveProfile builds a profile with no contributions and a stale
// repository; the ranking gate drops it.
func inactiveProfile(login string) *core.Profile {
	return &core.Profile{
		Login:     core.Identifier(login),
		RepoCount: 1,
		Repositories: []core.Repository{{
			Name:     "dormant",
			PushedAt: time.Now().UTC().AddDate(-2, 0, 0),
		}},
		Contributions: core.ContributionHistory{Daily: make([]int, core.ContributionDays)},
		FetchedAt:     time.Now().UTC(),
	}
}

func TestNewPipeline(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()
	ranker := newTestRanker(t)

	t.Run("creates pipeline with valid dependencies", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs)
		require.NoError(t, err)
		require.NotNil(t, p)
		defer p.Release()

		assert.Equal(t, defaultPoolSize, p.poolSize)
		assert.True(t, p.enrichEnabled)
		assert.NotNil(t, p.enricher)
	})

	t.Run("requires profile source", func(t *testing.T) {
		p, err := NewPipeline(nil, ranker, runs)
		assert.Nil(t, p)
		assert.Equal(t, ErrSourceRequired, err)
	})

	t.Run("requires ranker", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, nil, runs)
		assert.Nil(t, p)
		assert.Equal(t, ErrRankerRequired, err)
	})

	t.Run("requires run store", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, nil)
		assert.Nil(t, p)
		assert.Equal(t, ErrRunStoreRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()
	ranker := newTestRanker(t)

	t.Run("with pool size", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithPoolSize(8))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 8, p.poolSize)
		assert.Equal(t, 8, p.pool.Cap())
	})

	t.Run("pool size below one becomes one", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithPoolSize(0))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 1, p.poolSize)
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		p, err := NewPipeline(&testSource{}, ranker, runs, WithLogger(logger))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, logger, p.logger)
	})

	t.Run("with nil logger uses default", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithLogger(nil))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, slog.Default(), p.logger)
	})

	t.Run("with nil progress discards", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithProgress(nil))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, io.Discard, p.progress)
	})

	t.Run("with enrichment disabled", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithEnrichment(false))
		require.NoError(t, err)
		defer p.Release()

		assert.False(t, p.enrichEnabled)
	})

	t.Run("negative enrich limit becomes zero", func(t *testing.T) {
		p, err := NewPipeline(&testSource{}, ranker, runs, WithEnrichLimit(-5))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 0, p.enrichLimit)
	})

	t.Run("with multiple options", func(t *testing.T) {
		var out bytes.Buffer
		p, err := NewPipeline(&testSource{}, ranker, runs,
			WithPoolSize(2),
			WithProgress(&out),
			WithOutputDir("artifacts"),
			WithEnrichLimit(5),
		)
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 2, p.poolSize)
		assert.Equal(t, &out, p.progress)
		assert.Equal(t, "artifacts", p.outputDir)
		assert.Equal(t, 5, p.enrichLimit)
	})
}

func TestPipeline_Run(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	alice := activeProfile("alice", 4000, 1500, 400)
	bob := activeProfile("bob", 600, 40, 30)
	carol := inactiveProfile("carol")
	src := &testSource{
		logins:   []core.Identifier{"alice", "bob", "alice", "carol"},
		profiles: []*core.Profile{alice, bob, carol},
		readmes: map[string]string{
			"alice/alice-main": "# alice-main\n\nA compiler playground.",
			"bob/bob-main":     "# bob-main\n\nBackend odds and ends.",
		},
	}

	var out bytes.Buffer
	p, err := NewPipeline(src, newTestRanker(t), runs, WithProgress(&out))
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	require.NoError(t, err)
	require.NotNil(t, record)

	// Discovery dedupes before anything is fetched.
	assert.Equal(t, []core.Identifier{"alice", "bob", "carol"}, src.fetchedWith)
	assert.Equal(t, 3, record.Discovery.Succeeded)
	assert.Equal(t, 1, record.Discovery.Dropped)

	assert.Equal(t, 3, record.Fetch.Succeeded)
	assert.Equal(t, 0, record.Fetch.Dropped)

	// carol has no activity at all and is gated out.
	assert.Equal(t, 2, record.Ranking.Succeeded)
	assert.Equal(t, 1, record.Ranking.Dropped)

	assert.Equal(t, 2, record.Enrichment.Succeeded)
	assert.Equal(t, 0, record.Enrichment.Dropped)
	assert.False(t, record.FinishedAt.Before(record.StartedAt))

	// The summary is persisted and retrievable.
	stored, err := runs.GetRun(context.Background(), record.Id)
	require.NoError(t, err)
	assert.Equal(t, record.Query, stored.Query)
	assert.Equal(t, record.Fetch.Succeeded, stored.Fetch.Succeeded)

	discovered, err := runs.GetProfiles(context.Background(), record.Id, storage.StageDiscovered)
	require.NoError(t, err)
	assert.Len(t, discovered, 3)

	ranked, err := runs.GetProfiles(context.Background(), record.Id, storage.StageRanked)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, core.Identifier("alice"), ranked[0].Login)
	require.NotNil(t, ranked[0].Breakdown)
	require.NotNil(t, ranked[1].Breakdown)
	assert.Greater(t, ranked[0].Breakdown.Composite, ranked[1].Breakdown.Composite)

	enriched, err := runs.GetEnriched(context.Background(), record.Id)
	require.NoError(t, err)
	require.Len(t, enriched, 2)
	assert.Equal(t, 1, enriched[0].ReadmeCount())
	assert.Contains(t, enriched[0].Readmes, "alice-main")

	assert.Contains(t, out.String(), "Starting run")
	assert.Contains(t, out.String(), "Discovered 3 unique users")
	assert.Contains(t, out.String(), "Fetched 3/3 profiles")
	assert.Contains(t, out.String(), "keeping top 2")
	assert.Contains(t, out.String(), "finished in")
}

func TestPipeline_Run_NoUsers(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	p, err := NewPipeline(&testSource{}, newTestRanker(t), runs)
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:atlantis")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrNoUsers)

	// Nothing was persisted.
	_, err = runs.LatestRun(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_Run_NoProfiles(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	src := &testSource{
		logins: []core.Identifier{"alice", "bob"},
		failed: []github.FailedBatch{{
			Batch:  1,
			Logins: []core.Identifier{"alice", "bob"},
			Err:    "resource limits exceeded",
		}},
	}
	p, err := NewPipeline(src, newTestRanker(t), runs)
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrNoProfiles)
}

func TestPipeline_Run_SearchFailure(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	src := &testSource{searchErr: github.ErrEmptyQuery}
	p, err := NewPipeline(src, newTestRanker(t), runs)
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, github.ErrEmptyQuery)
}

func TestPipeline_Run_DiscoveryAborted(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	// The search quota died mid-walk, after one duplicate login landed.
	src := &testSource{
		logins:    []core.Identifier{"alice", "bob", "alice"},
		searchErr: fmt.Errorf("page 4: %w", github.ErrQuotaExhausted),
	}

	var out bytes.Buffer
	p, err := NewPipeline(src, newTestRanker(t), runs, WithProgress(&out))
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	assert.ErrorIs(t, err, github.ErrQuotaExhausted)
	require.NotNil(t, record)
	assert.Equal(t, 2, record.Discovery.Succeeded)
	assert.Equal(t, 1, record.Discovery.Dropped)
	assert.Zero(t, record.Fetch)
	assert.False(t, record.FinishedAt.IsZero())

	// The summary is persisted even though nothing was fetched.
	stored, err := runs.GetRun(context.Background(), record.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Discovery.Succeeded)

	_, err = runs.GetProfiles(context.Background(), record.Id, storage.StageDiscovered)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Contains(t, out.String(), "aborted")
}

func TestPipeline_Run_QuotaExhausted(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	// The first batch landed before the quota ran dry.
	alice := activeProfile("alice", 4000, 1500, 400)
	src := &testSource{
		logins:   []core.Identifier{"alice", "bob"},
		profiles: []*core.Profile{alice},
		fetchErr: fmt.Errorf("batch 2: %w", github.ErrQuotaExhausted),
	}

	var out bytes.Buffer
	p, err := NewPipeline(src, newTestRanker(t), runs, WithProgress(&out))
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	require.Error(t, err)
	assert.ErrorIs(t, err, github.ErrQuotaExhausted)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.Fetch.Succeeded)
	assert.Equal(t, 1, record.Fetch.Dropped)
	assert.False(t, record.FinishedAt.IsZero())

	// The partial run is still inspectable from the store.
	stored, err := runs.GetRun(context.Background(), record.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Fetch.Succeeded)

	discovered, err := runs.GetProfiles(context.Background(), record.Id, storage.StageDiscovered)
	require.NoError(t, err)
	assert.Len(t, discovered, 1)

	_, err = runs.GetProfiles(context.Background(), record.Id, storage.StageRanked)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Contains(t, out.String(), "aborted")
}

func TestPipeline_Run_EnrichmentDisabled(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	alice := activeProfile("alice", 4000, 1500, 400)
	src := &testSource{
		logins:   []core.Identifier{"alice"},
		profiles: []*core.Profile{alice},
		readmes:  map[string]string{"alice/alice-main": "# readme"},
	}
	p, err := NewPipeline(src, newTestRanker(t), runs, WithEnrichment(false))
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	require.NoError(t, err)

	assert.Zero(t, record.Enrichment)
	assert.Equal(t, 0, src.readmeCallCount())

	_, err = runs.GetEnriched(context.Background(), record.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_Run_EnrichLimit(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	alice := activeProfile("alice", 4000, 1500, 400)
	bob := activeProfile("bob", 600, 40, 30)
	src := &testSource{
		logins:   []core.Identifier{"alice", "bob"},
		profiles: []*core.Profile{alice, bob},
		readmes: map[string]string{
			"alice/alice-main": "# alice",
			"bob/bob-main":     "# bob",
		},
	}
	p, err := NewPipeline(src, newTestRanker(t), runs, WithEnrichLimit(1))
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	require.NoError(t, err)

	// Only the ranking leader gets READMEs.
	enriched, err := runs.GetEnriched(context.Background(), record.Id)
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, core.Identifier("alice"), enriched[0].Login)
	assert.Equal(t, 1, record.Enrichment.Succeeded)
}

func TestPipeline_Run_TopNCut(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	config := rank.DefaultConfig()
	config.TopN = 1
	ranker, err := rank.NewRanker(config)
	require.NoError(t, err)

	alice := activeProfile("alice", 4000, 1500, 400)
	bob := activeProfile("bob", 600, 40, 30)
	src := &testSource{
		logins:   []core.Identifier{"alice", "bob"},
		profiles: []*core.Profile{alice, bob},
		readmes:  map[string]string{"alice/alice-main": "# alice"},
	}
	p, err := NewPipeline(src, ranker, runs)
	require.NoError(t, err)
	defer p.Release()

	record, err := p.Run(context.Background(), "location:prague")
	require.NoError(t, err)

	// Both profiles rank; only the top one advances.
	assert.Equal(t, 2, record.Ranking.Succeeded)

	ranked, err := runs.GetProfiles(context.Background(), record.Id, storage.StageRanked)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, core.Identifier("alice"), ranked[0].Login)

	enriched, err := runs.GetEnriched(context.Background(), record.Id)
	require.NoError(t, err)
	assert.Len(t, enriched, 1)
}

func TestPipeline_Release(t *testing.T) {
	runs, cleanup := setupTestStore(t)
	defer cleanup()

	p, err := NewPipeline(&testSource{}, newTestRanker(t), runs)
	require.NoError(t, err)

	p.Release()
	p.Release() // safe to call twice
}
