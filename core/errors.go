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

import "errors"

// Domain validation errors
var (
	// ErrInvalidProfile indicates a Profile failed validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrInvalidBreakdown indicates a ScoreBreakdown failed validation.
	ErrInvalidBreakdown = errors.New("invalid score breakdown")

	// ErrEmptyLogin indicates the Login field is empty.
	ErrEmptyLogin = errors.New("login cannot be empty")

	// ErrNegativeCount indicates a count field holds a negative value.
	ErrNegativeCount = errors.New("count cannot be negative")

	// ErrContributionWindow indicates a contribution history that does not
	// cover exactly ContributionDays daily entries.
	ErrContributionWindow = errors.New("contribution history must cover exactly 365 days")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrScoreOutOfRange indicates a score outside the 0-100 scale.
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
)
