package devscout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/devscout/ai/mock"
	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Token = "test-token"
	cfg.Storage.InMemory = true
	return cfg
}

func TestNewScout(t *testing.T) {
	t.Run("create with in-memory store", func(t *testing.T) {
		scout, err := NewScout(testConfig(t))
		require.NoError(t, err)
		require.NotNil(t, scout)
		defer scout.Close()

		// Verify components are initialized
		assert.NotNil(t, scout.RunStore())
		assert.NotNil(t, scout.EmbeddingCache())
		assert.NotNil(t, scout.backend)
		assert.NotNil(t, scout.provider)
	})

	t.Run("create on disk", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.InMemory = false
		cfg.Storage.Path = filepath.Join(t.TempDir(), "scout_db")

		scout, err := NewScout(cfg)
		require.NoError(t, err)
		require.NotNil(t, scout)
		require.NoError(t, scout.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A regular file where the database directory should be
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		cfg := testConfig(t)
		cfg.Storage.InMemory = false
		cfg.Storage.Path = tmpFile

		scout, err := NewScout(cfg)
		assert.Error(t, err)
		assert.Nil(t, scout)
	})

	t.Run("error with invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Rank.Weights.Stars = 50 // weights no longer sum to 100

		scout, err := NewScout(cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, scout)
	})
}

func TestScout_Close(t *testing.T) {
	scout, err := NewScout(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, scout)

	err = scout.Close()
	assert.NoError(t, err)
}

func TestScout_FactoryMethods(t *testing.T) {
	scout, err := NewScout(testConfig(t), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, scout)
	defer scout.Close()

	t.Run("can create pipeline", func(t *testing.T) {
		p, err := scout.NewPipeline()
		require.NoError(t, err)
		require.NotNil(t, p)
		p.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := scout.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create ranker", func(t *testing.T) {
		ranker, err := scout.NewRanker()
		require.NoError(t, err)
		require.NotNil(t, ranker)
	})

	t.Run("can create exporter", func(t *testing.T) {
		exporter, err := scout.NewExporter()
		require.NoError(t, err)
		require.NotNil(t, exporter)
	})

	t.Run("pipeline requires a token", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Token = ""
		tokenless, err := NewScout(cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer tokenless.Close()

		p, err := tokenless.NewPipeline()
		assert.ErrorIs(t, err, github.ErrMissingToken)
		assert.Nil(t, p)
	})
}
