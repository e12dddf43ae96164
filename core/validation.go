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


package core

import (
	"fmt"
	"time"
)

// ValidateProfile validates a Profile according to domain rules.
//
// Validation rules:
//   - Login must not be empty
//   - Follower, following, and repository counts must be non-negative
//   - Contribution history must hold exactly ContributionDays non-negative
//     daily counts
//   - FetchedAt must not be in the future
//
// NOT validated (populated later):
//   - Breakdown (nil until the ranking engine runs)
//   - Name, Bio, Company, Location and the other descriptive fields, which
//     the platform legitimately leaves empty
func ValidateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	if profile.Login == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyLogin)
	}

	if profile.Followers < 0 || profile.Following < 0 || profile.RepoCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrNegativeCount)
	}

	for _, repo := range profile.Repositories {
		if repo.Stars < 0 || repo.Forks < 0 {
			return fmt.Errorf("%w: repository %q: %w", ErrInvalidProfile, repo.Name, ErrNegativeCount)
		}
	}

	if err := ValidateContributionHistory(profile.Contributions); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	if !profile.FetchedAt.IsZero() && !IsValidTimestamp(profile.FetchedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateContributionHistory checks the fixed-window invariant: exactly
// ContributionDays daily entries, every count non-negative.
func ValidateContributionHistory(history ContributionHistory) error {
	if len(history.Daily) != ContributionDays {
		return fmt.Errorf("%w: got %d entries", ErrContributionWindow, len(history.Daily))
	}
	if history.Total < 0 {
		return ErrNegativeCount
	}
	for _, count := range history.Daily {
		if count < 0 {
			return ErrNegativeCount
		}
	}
	return nil
}

// ValidateBreakdown validates that every sub-score and the composite fall
// within the 0-100 scale.
func ValidateBreakdown(breakdown *ScoreBreakdown) error {
	if breakdown == nil {
		return fmt.Errorf("%w: breakdown is nil", ErrInvalidBreakdown)
	}

	scores := []float64{
		breakdown.Contributions,
		breakdown.Stars,
		breakdown.Followers,
		breakdown.Activity,
		breakdown.Trend,
		breakdown.Repositories,
		breakdown.Composite,
	}
	for _, score := range scores {
		if score < 0 || score > 100 {
			return fmt.Errorf("%w: %w: %f", ErrInvalidBreakdown, ErrScoreOutOfRange, score)
		}
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
