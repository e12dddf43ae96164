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


// Package rank scores developer profiles on a fixed six-metric model and
// orders them deterministically.
//
// Scoring is a pure function of the profile and a reference time; no I/O
// happens here. Each metric normalizes by threshold-capped linear scaling,
// so a value at or above its threshold earns the full 100 points and scores
// stay comparable across runs.
package rank

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/poiesic/devscout/core"
)

// Contribution windows, in days of calendar history.
const (
	activityWindowDays = 30
	quarterWindowDays  = 90
)

// Project momentum windows and the star bar for a "high-value" repository.
const (
	activeProjectWindow = 180 * 24 * time.Hour
	recentProjectWindow = 90 * 24 * time.Hour
	highValueStars      = 10
)

// Trend sub-score point allocation. Contribution momentum carries 60 points,
// project momentum the remaining 40.
const (
	recentMomentumPoints    = 25
	quarterlyMomentumPoints = 20
	consistencyPoints       = 15
	activeProjectPoints     = 25
	recentProjectPoints     = 15
)

// Ranker scores and orders profiles. Safe for concurrent use; the config is
// never mutated after construction.
type Ranker struct {
	config *Config
	logger *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a Ranker from the given scoring model.
func NewRanker(config *Config, opts ...Option) (*Ranker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Ranker{
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "rank")
	return r, nil
}

// TopN returns how many ranked profiles the model carries forward.
func (r *Ranker) TopN() int {
	return r.config.TopN
}

// Score computes the full breakdown for one profile as of the given time.
// All sub-scores and the composite are rounded to two decimals.
func (r *Ranker) Score(profile *core.Profile, asOf time.Time) core.ScoreBreakdown {
	t := r.config.Thresholds
	w := r.config.Weights

	contributions := normalize(float64(profile.Contributions.Total), float64(t.Contributions))
	stars := normalize(float64(profile.TotalStars()), float64(t.Stars))
	followers := normalize(float64(profile.Followers), float64(t.Followers))
	activity := normalize(float64(profile.Contributions.LastDays(activityWindowDays)), float64(t.Activity30Days))
	trend := r.TrendScore(profile, asOf)
	repos := normalize(float64(profile.RepoCount), float64(t.Repos))

	composite := (contributions*w.Contributions +
		stars*w.Stars +
		followers*w.Followers +
		activity*w.Activity +
		trend*w.Trend +
		repos*w.Repos) / 100

	return core.ScoreBreakdown{
		Contributions: round2(contributions),
		Stars:         round2(stars),
		Followers:     round2(followers),
		Activity:      round2(activity),
		Trend:         round2(trend),
		Repositories:  round2(repos),
		Composite:     round2(composite),
	}
}

// TrendScore computes the 0-100 trend sub-score: how much of the profile's
// activity is recent and sustained rather than historical.
func (r *Ranker) TrendScore(profile *core.Profile, asOf time.Time) float64 {
	t := r.config.Thresholds

	recent := float64(profile.Contributions.LastDays(activityWindowDays))
	quarterly := float64(profile.Contributions.LastDays(quarterWindowDays))
	activeDays := float64(profile.Contributions.ActiveDays(quarterWindowDays))

	score := math.Min(recent, float64(t.TrendRecentContributions)) / float64(t.TrendRecentContributions) * recentMomentumPoints
	score += math.Min(quarterly, float64(t.TrendQuarterlyContributions)) / float64(t.TrendQuarterlyContributions) * quarterlyMomentumPoints
	score += activeDays / quarterWindowDays * consistencyPoints

	var activeProjects, recentProjects float64
	for _, repo := range profile.Repositories {
		if repo.PushedAt.IsZero() {
			continue
		}
		age := asOf.Sub(repo.PushedAt)
		if age < 0 {
			age = 0
		}
		if repo.Stars >= highValueStars && age <= activeProjectWindow {
			activeProjects++
		}
		if age <= recentProjectWindow {
			recentProjects++
		}
	}
	score += math.Min(activeProjects, float64(t.TrendActiveProjects)) / float64(t.TrendActiveProjects) * activeProjectPoints
	score += math.Min(recentProjects, float64(t.TrendRecentProjects)) / float64(t.TrendRecentProjects) * recentProjectPoints

	return round2(score)
}

// Eligible reports whether the profile clears the activity gate: at least
// MinContributions in the trailing year and a trend sub-score of at least
// MinTrendScore. Failing either check excludes the profile from ranked
// output; it stays in the fetched set.
func (r *Ranker) Eligible(profile *core.Profile, asOf time.Time) bool {
	if profile.Contributions.Total < r.config.MinContributions {
		return false
	}
	return r.TrendScore(profile, asOf) >= r.config.MinTrendScore
}

// Rank scores every eligible profile, attaches its breakdown, and returns
// the eligible set in ranking order. Ineligible profiles are left unscored
// and unreturned; excluded reports how many there were. The order is fully
// deterministic: composite descending, then total stars, then followers,
// then login.
func (r *Ranker) Rank(profiles []*core.Profile, asOf time.Time) (ranked []*core.Profile, excluded int) {
	ranked = make([]*core.Profile, 0, len(profiles))
	for _, profile := range profiles {
		if !r.Eligible(profile, asOf) {
			excluded++
			r.logger.Debug("profile gated out",
				"login", profile.Login,
				"contributions", profile.Contributions.Total)
			continue
		}
		breakdown := r.Score(profile, asOf)
		profile.Breakdown = &breakdown
		ranked = append(ranked, profile)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Breakdown.Composite != b.Breakdown.Composite {
			return a.Breakdown.Composite > b.Breakdown.Composite
		}
		if as, bs := a.TotalStars(), b.TotalStars(); as != bs {
			return as > bs
		}
		if a.Followers != b.Followers {
			return a.Followers > b.Followers
		}
		return a.Login < b.Login
	})

	r.logger.Info("ranking finished",
		"ranked", len(ranked),
		"excluded", excluded)
	return ranked, excluded
}

// Top returns the first TopN entries of an already-ranked list.
func (r *Ranker) Top(ranked []*core.Profile) []*core.Profile {
	if len(ranked) <= r.config.TopN {
		return ranked
	}
	return ranked[:r.config.TopN]
}

// normalize maps raw onto the 0-100 scale, capping at the threshold.
func normalize(raw, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Min(100, raw/threshold*100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
