package rank

import (
	"errors"
	"fmt"
)

// Weights assigns each metric its share of the composite score, in points
// out of 100.
type Weights struct {
	Contributions float64
	Stars         float64
	Followers     float64
	Activity      float64
	Trend         float64
	Repos         float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Contributions + w.Stars + w.Followers + w.Activity + w.Trend + w.Repos
}

// Thresholds holds the normalization ceilings. A raw value at or above its
// threshold scores the full 100 points for that metric. The ceilings are
// fixed rather than derived from the dataset, so scores stay comparable
// across runs.
type Thresholds struct {
	Contributions  int
	Stars          int
	Followers      int
	Repos          int
	Activity30Days int

	// Trend sub-score ceilings.
	TrendRecentContributions    int
	TrendQuarterlyContributions int
	TrendActiveProjects         int
	TrendRecentProjects         int
}

// Config holds the scoring model. Treated as immutable once a Ranker is
// constructed from it.
type Config struct {
	// TopN is how many ranked profiles the pipeline carries forward.
	TopN int

	Weights    Weights
	Thresholds Thresholds

	// MinContributions and MinTrendScore are the activity gate floors.
	// Eligibility requires clearing both.
	MinContributions int
	MinTrendScore    float64
}

// DefaultConfig returns the tuned production scoring model.
func DefaultConfig() *Config {
	return &Config{
		TopN: 20,
		Weights: Weights{
			Contributions: 25,
			Stars:         20,
			Followers:     15,
			Activity:      15,
			Trend:         15,
			Repos:         10,
		},
		Thresholds: Thresholds{
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
	}
}

// ErrInvalidWeights indicates weights that do not sum to 100.
var ErrInvalidWeights = errors.New("rank: weights must sum to 100")

// Validate checks that the scoring model is usable.
func (c *Config) Validate() error {
	if sum := c.Weights.Sum(); sum < 99.99 || sum > 100.01 {
		return fmt.Errorf("%w: got %g", ErrInvalidWeights, sum)
	}
	if c.TopN < 1 {
		return fmt.Errorf("rank config: TopN must be positive, got %d", c.TopN)
	}
	for name, threshold := range map[string]int{
		"Contributions":               c.Thresholds.Contributions,
		"Stars":                       c.Thresholds.Stars,
		"Followers":                   c.Thresholds.Followers,
		"Repos":                       c.Thresholds.Repos,
		"Activity30Days":              c.Thresholds.Activity30Days,
		"TrendRecentContributions":    c.Thresholds.TrendRecentContributions,
		"TrendQuarterlyContributions": c.Thresholds.TrendQuarterlyContributions,
		"TrendActiveProjects":         c.Thresholds.TrendActiveProjects,
		"TrendRecentProjects":         c.Thresholds.TrendRecentProjects,
	} {
		if threshold < 1 {
			return fmt.Errorf("rank config: threshold %s must be positive, got %d", name, threshold)
		}
	}
	return nil
}
