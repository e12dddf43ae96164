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


// Package config loads devscout configuration from an optional YAML file
// plus DEVSCOUT_* environment overrides. The resulting Config is treated as
// immutable once handed to the pipeline; CLI flags apply their overrides
// before that handoff.
package config

import (
	"fmt"
	"time"
)

// Config is the full devscout configuration tree.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Token authenticates GitHub API calls. Falls back to the GITHUB_TOKEN
	// environment variable when empty.
	Token string `koanf:"token"`

	Search  SearchConfig  `koanf:"search"`
	Fetch   FetchConfig   `koanf:"fetch"`
	Rank    RankConfig    `koanf:"rank"`
	AI      AIConfig      `koanf:"ai"`
	Storage StorageConfig `koanf:"storage"`
	Output  OutputConfig  `koanf:"output"`
}

// SearchConfig bounds the discovery phase.
type SearchConfig struct {
	// Query is the user search expression, e.g. `location:prague followers:>10`.
	Query string `koanf:"query"`

	// PerPage is the page size for search requests (max 100).
	PerPage int `koanf:"per_page"`

	// MaxPages caps how many pages are walked before stopping.
	MaxPages int `koanf:"max_pages"`

	// MaxUsers caps the total logins collected across pages.
	MaxUsers int `koanf:"max_users"`

	// ReposPerUser is how many top repositories (by stars) to request per user.
	ReposPerUser int `koanf:"repos_per_user"`
}

// FetchConfig tunes the batch profile fetch.
type FetchConfig struct {
	// BatchSize is the number of users aliased into one profile query.
	// Sizes above ~15 start tripping GitHub resource limits once the
	// contribution calendar is included.
	BatchSize int `koanf:"batch_size"`

	// RetryBatchSize is the reduced size used for the second-chance pass
	// over failed batches.
	RetryBatchSize int `koanf:"retry_batch_size"`

	// MaxRetries is the attempt ceiling per request.
	MaxRetries int `koanf:"max_retries"`

	// RetryDelay is the backoff before the first retry; doubles per attempt.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// PageDelay is the pause between search pages.
	PageDelay time.Duration `koanf:"page_delay"`

	// BatchDelay is the pause between profile batches.
	BatchDelay time.Duration `koanf:"batch_delay"`

	// ReadmeDelay is the pause between README requests.
	ReadmeDelay time.Duration `koanf:"readme_delay"`

	// Timeout applies to each individual HTTP request.
	Timeout time.Duration `koanf:"timeout"`
}

// RankConfig holds the scoring weights, normalization thresholds, and
// activity gates. Weights must sum to 100.
type RankConfig struct {
	// TopN is how many ranked profiles advance to enrichment.
	TopN int `koanf:"top_n"`

	Weights    WeightConfig    `koanf:"weights"`
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// MinContributions gates out profiles below this yearly total unless
	// their trend score clears MinTrendScore.
	MinContributions int     `koanf:"min_contributions"`
	MinTrendScore    float64 `koanf:"min_trend_score"`
}

// WeightConfig assigns each metric's share of the composite score, in points
// out of 100.
type WeightConfig struct {
	Contributions float64 `koanf:"contributions"`
	Stars         float64 `koanf:"stars"`
	Followers     float64 `koanf:"followers"`
	Activity      float64 `koanf:"activity"`
	Trend         float64 `koanf:"trend"`
	Repos         float64 `koanf:"repos"`
}

// Sum returns the total of all weights.
func (w WeightConfig) Sum() float64 {
	return w.Contributions + w.Stars + w.Followers + w.Activity + w.Trend + w.Repos
}

// ThresholdConfig holds the normalization ceilings: a raw value at or above
// its threshold scores the full 100 points for that metric.
type ThresholdConfig struct {
	Contributions int `koanf:"contributions"`
	Stars         int `koanf:"stars"`
	Followers     int `koanf:"followers"`
	Repos         int `koanf:"repos"`

	// Activity30Days is the 30-day contribution count worth full activity marks.
	Activity30Days int `koanf:"activity_30_days"`

	// Trend sub-score ceilings.
	TrendRecentContributions    int `koanf:"trend_recent_contributions"`
	TrendQuarterlyContributions int `koanf:"trend_quarterly_contributions"`
	TrendActiveProjects         int `koanf:"trend_active_projects"`
	TrendRecentProjects         int `koanf:"trend_recent_projects"`
}

// AIConfig points at the embedding and reasoning services.
type AIConfig struct {
	// Host is the base URL of an OpenAI-compatible API.
	Host string `koanf:"host"`

	// EmbeddingModel generates profile and query vectors.
	EmbeddingModel string `koanf:"embedding_model"`

	// ReasoningModel writes match justifications. Leave empty to fall back
	// to keyword-derived reasons.
	ReasoningModel string `koanf:"reasoning_model"`
}

// StorageConfig locates the run store.
type StorageConfig struct {
	// Path is the badger database directory.
	Path string `koanf:"path"`

	// InMemory switches to a non-persistent store, mainly for tests.
	InMemory bool `koanf:"in_memory"`
}

// OutputConfig controls run artifact export.
type OutputConfig struct {
	// Dir is the root directory for exported JSON artifacts; each run writes
	// under a timestamped subdirectory.
	Dir string `koanf:"dir"`
}

// Default returns the canonical configuration. Weights and thresholds carry
// the tuned production values; every loader layers on top of this.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Search: SearchConfig{
			Query:        "location:prague",
			PerPage:      15,
			MaxPages:     10,
			MaxUsers:     1000,
			ReposPerUser: 5,
		},
		Fetch: FetchConfig{
			BatchSize:      15,
			RetryBatchSize: 10,
			MaxRetries:     3,
			RetryDelay:     1 * time.Second,
			PageDelay:      1 * time.Second,
			BatchDelay:     500 * time.Millisecond,
			ReadmeDelay:    1 * time.Second,
			Timeout:        10 * time.Second,
		},
		Rank: RankConfig{
			TopN: 20,
			Weights: WeightConfig{
				Contributions: 25,
				Stars:         20,
				Followers:     15,
				Activity:      15,
				Trend:         15,
				Repos:         10,
			},
			Thresholds: ThresholdConfig{
				Contributions:               3000,
				Stars:                       1000,
				Followers:                   500,
				Repos:                       50,
				Activity30Days:              15,
				TrendRecentContributions:    50,
				TrendQuarterlyContributions: 150,
				TrendActiveProjects:         3,
				TrendRecentProjects:         3,
			},
			MinContributions: 1,
			MinTrendScore:    0.1,
		},
		AI: AIConfig{
			Host:           "http://localhost:11434/v1",
			EmbeddingModel: "all-mpnet-base-v2",
			ReasoningModel: "qwen2.5:3b",
		},
		Storage: StorageConfig{
			Path: "devscout.db",
		},
		Output: OutputConfig{
			Dir: "data/raw",
		},
	}
}

// Validate checks internal consistency. Called by Load after all layers are
// applied, and again by consumers that assemble a Config by hand.
func (c *Config) Validate() error {
	if sum := c.Rank.Weights.Sum(); sum < 99.99 || sum > 100.01 {
		return fmt.Errorf("%w: weights must sum to 100, got %g", ErrInvalidConfig, sum)
	}
	if c.Search.PerPage < 1 || c.Search.PerPage > 100 {
		return fmt.Errorf("%w: search.per_page must be between 1 and 100, got %d", ErrInvalidConfig, c.Search.PerPage)
	}
	if c.Search.ReposPerUser < 1 || c.Search.ReposPerUser > 20 {
		return fmt.Errorf("%w: search.repos_per_user must be between 1 and 20, got %d", ErrInvalidConfig, c.Search.ReposPerUser)
	}
	if c.Fetch.BatchSize < 1 || c.Fetch.BatchSize > 50 {
		return fmt.Errorf("%w: fetch.batch_size must be between 1 and 50, got %d", ErrInvalidConfig, c.Fetch.BatchSize)
	}
	if c.Fetch.RetryBatchSize < 1 || c.Fetch.RetryBatchSize > c.Fetch.BatchSize {
		return fmt.Errorf("%w: fetch.retry_batch_size must be between 1 and fetch.batch_size, got %d", ErrInvalidConfig, c.Fetch.RetryBatchSize)
	}
	if c.Fetch.MaxRetries < 1 || c.Fetch.MaxRetries > 10 {
		return fmt.Errorf("%w: fetch.max_retries must be between 1 and 10, got %d", ErrInvalidConfig, c.Fetch.MaxRetries)
	}
	if c.Rank.TopN < 1 {
		return fmt.Errorf("%w: rank.top_n must be positive, got %d", ErrInvalidConfig, c.Rank.TopN)
	}
	for name, threshold := range map[string]int{
		"contributions":                 c.Rank.Thresholds.Contributions,
		"stars":                         c.Rank.Thresholds.Stars,
		"followers":                     c.Rank.Thresholds.Followers,
		"repos":                         c.Rank.Thresholds.Repos,
		"activity_30_days":              c.Rank.Thresholds.Activity30Days,
		"trend_recent_contributions":    c.Rank.Thresholds.TrendRecentContributions,
		"trend_quarterly_contributions": c.Rank.Thresholds.TrendQuarterlyContributions,
		"trend_active_projects":         c.Rank.Thresholds.TrendActiveProjects,
		"trend_recent_projects":         c.Rank.Thresholds.TrendRecentProjects,
	} {
		if threshold < 1 {
			return fmt.Errorf("%w: thresholds.%s must be positive, got %d", ErrInvalidConfig, name, threshold)
		}
	}
	return nil
}
