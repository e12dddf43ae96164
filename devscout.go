// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package devscout

import (
	"log/slog"

	"github.com/poiesic/devscout/ai"
	"github.com/poiesic/devscout/ai/openai"
	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/github"
	"github.com/poiesic/devscout/pipeline"
	"github.com/poiesic/devscout/rank"
	"github.com/poiesic/devscout/search"
	"github.com/poiesic/devscout/storage"
	"github.com/poiesic/devscout/storage/badger"
)

// Scout bundles the run store, embedding cache, and AI provider behind one
// handle and builds pipelines and searchers wired from the configuration.
type Scout struct {
	cfg      *config.Config
	backend  *badger.Backend
	runs     storage.RunStore
	cache    storage.EmbeddingCache
	provider ai.AIProvider
	logger   *slog.Logger
}

// ScoutOption configures a Scout.
type ScoutOption func(*scoutOptions)

type scoutOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig overrides the AI settings derived from the configuration.
func WithAIConfig(aiConfig *ai.Config) ScoutOption {
	return func(o *scoutOptions) {
		o.aiConfig = aiConfig
	}
}

// WithProvider injects an AI provider in place of the OpenAI-compatible
// one. The Scout takes ownership and closes it.
func WithProvider(provider ai.AIProvider) ScoutOption {
	return func(o *scoutOptions) {
		o.provider = provider
	}
}

func NewScout(cfg *config.Config, opts ...ScoutOption) (*Scout, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	options := &scoutOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	// Create run store
	runs, err := badger.NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create embedding cache
	cache, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		runs.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		aiCfg := options.aiConfig
		if aiCfg == nil {
			aiCfg = aiConfig(cfg)
		}
		provider, err = openai.NewProvider(aiCfg)
		if err != nil {
			cache.Close()
			runs.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Scout{
		cfg:      cfg,
		backend:  backend,
		runs:     runs,
		cache:    cache,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (s *Scout) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close stores
	if err := s.cache.Close(); err != nil {
		s.logger.Error("error closing embedding cache", "err", err)
		return err
	}
	if err := s.runs.Close(); err != nil {
		s.logger.Error("error closing run store", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Scout) RunStore() storage.RunStore {
	return s.runs
}

// NewPipeline builds a run pipeline backed by the GitHub API client and the
// scoring model from the configuration.
func (s *Scout) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	client, err := github.NewClient(githubConfig(s.cfg))
	if err != nil {
		return nil, err
	}
	ranker, err := rank.NewRanker(rankConfig(s.cfg))
	if err != nil {
		return nil, err
	}
	opts = append([]pipeline.Option{pipeline.WithOutputDir(s.cfg.Output.Dir)}, opts...)
	return pipeline.NewPipeline(client, ranker, s.runs, opts...)
}

// NewRanker builds a standalone ranker from the configured scoring model,
// for re-scoring stored snapshots outside a pipeline run.
func (s *Scout) NewRanker(opts ...rank.Option) (*rank.Ranker, error) {
	return rank.NewRanker(rankConfig(s.cfg), opts...)
}

// NewExporter builds an artifact exporter over the run store, rooted at
// the configured output directory.
func (s *Scout) NewExporter() (*pipeline.Exporter, error) {
	return pipeline.NewExporter(s.runs, s.cfg.Output.Dir)
}

func (s *Scout) EmbeddingCache() storage.EmbeddingCache {
	return s.cache
}

// NewSearcher builds a searcher over the embedding cache. Reasoning is
// disabled when no reasoning model is configured.
func (s *Scout) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{
		search.WithEmbeddingCache(s.cache, s.cfg.AI.EmbeddingModel),
		search.WithReasoning(s.cfg.AI.ReasoningModel != ""),
	}, opts...)
	return search.NewSearcher(s.provider, opts...)
}

// aiConfig derives provider settings from the configuration. An empty
// reasoning model keeps the provider default; the searcher then falls back
// to keyword reasons and never calls it.
func aiConfig(cfg *config.Config) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithHost(cfg.AI.Host),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
	}
	if cfg.AI.ReasoningModel != "" {
		opts = append(opts, ai.WithReasoningModel(cfg.AI.ReasoningModel))
	}
	return ai.NewConfig(opts...)
}

// githubConfig maps search and fetch settings onto the API client configuration.
func githubConfig(cfg *config.Config) *github.Config {
	gc := github.DefaultConfig()
	gc.Token = cfg.Token
	gc.PerPage = cfg.Search.PerPage
	gc.MaxPages = cfg.Search.MaxPages
	gc.MaxUsers = cfg.Search.MaxUsers
	gc.ReposPerUser = cfg.Search.ReposPerUser
	gc.BatchSize = cfg.Fetch.BatchSize
	gc.RetryBatchSize = cfg.Fetch.RetryBatchSize
	gc.MaxRetries = cfg.Fetch.MaxRetries
	gc.RetryDelay = cfg.Fetch.RetryDelay
	gc.PageDelay = cfg.Fetch.PageDelay
	gc.BatchDelay = cfg.Fetch.BatchDelay
	gc.ReadmeDelay = cfg.Fetch.ReadmeDelay
	gc.Timeout = cfg.Fetch.Timeout
	return gc
}

// rankConfig maps the ranking settings onto the scoring model.
func rankConfig(cfg *config.Config) *rank.Config {
	r := cfg.Rank
	return &rank.Config{
		TopN: r.TopN,
		Weights: rank.Weights{
			Contributions: r.Weights.Contributions,
			Stars:         r.Weights.Stars,
			Followers:     r.Weights.Followers,
			Activity:      r.Weights.Activity,
			Trend:         r.Weights.Trend,
			Repos:         r.Weights.Repos,
		},
		Thresholds: rank.Thresholds{
			Contributions:               r.Thresholds.Contributions,
			Stars:                       r.Thresholds.Stars,
			Followers:                   r.Thresholds.Followers,
			Repos:                       r.Thresholds.Repos,
			Activity30Days:              r.Thresholds.Activity30Days,
			TrendRecentContributions:    r.Thresholds.TrendRecentContributions,
			TrendQuarterlyContributions: r.Thresholds.TrendQuarterlyContributions,
			TrendActiveProjects:         r.Thresholds.TrendActiveProjects,
			TrendRecentProjects:         r.Thresholds.TrendRecentProjects,
		},
		MinContributions: r.MinContributions,
		MinTrendScore:    r.MinTrendScore,
	}
}
