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


package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/devscout/core"
)

// FailedBatch records one batch that did not survive its attempt budget.
type FailedBatch struct {
	Batch  int
	Logins []core.Identifier
	Err    string
}

// FetchProfiles assembles full profiles for the given logins in aliased
// batches. After the main pass, logins from failed batches get one more
// chance at the reduced batch size; whatever still fails is returned in the
// FailedBatch list and dropped from the result.
//
// A batch-level failure never aborts the fetch. Only quota exhaustion and
// context cancellation do, and then everything fetched so far is returned
// alongside the error.
func (c *Client) FetchProfiles(ctx context.Context, logins []core.Identifier) ([]*core.Profile, []FailedBatch, error) {
	if len(logins) == 0 {
		return nil, nil, nil
	}

	c.logger.Info("profile fetch started",
		"users", len(logins),
		"batch_size", c.config.BatchSize)

	profiles, failed, err := c.fetchBatches(ctx, logins, c.config.BatchSize)
	if err != nil {
		return profiles, failed, err
	}

	if len(failed) > 0 {
		retryLogins := collectLogins(failed)
		c.logger.Info("retrying failed batches at reduced size",
			"batches", len(failed),
			"users", len(retryLogins),
			"batch_size", c.config.RetryBatchSize)

		recovered, stillFailed, err := c.fetchBatches(ctx, retryLogins, c.config.RetryBatchSize)
		profiles = append(profiles, recovered...)
		failed = stillFailed
		if err != nil {
			return profiles, failed, err
		}
	}

	for _, fb := range failed {
		c.logger.Warn("dropping users from failed batch",
			"batch", fb.Batch,
			"users", len(fb.Logins),
			"error", fb.Err)
	}

	cost, remaining := c.quota.usage()
	c.logger.Info("profile fetch finished",
		"fetched", len(profiles),
		"requested", len(logins),
		"cost", cost,
		"remaining", remaining)
	return profiles, failed, nil
}

// fetchBatches runs one pass over logins at the given batch size.
func (c *Client) fetchBatches(ctx context.Context, logins []core.Identifier, batchSize int) ([]*core.Profile, []FailedBatch, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -core.ContributionDays)
	to := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)

	var (
		profiles []*core.Profile
		failed   []FailedBatch
	)

	totalBatches := (len(logins) + batchSize - 1) / batchSize
	for batch := 0; batch < totalBatches; batch++ {
		start := batch * batchSize
		end := min(start+batchSize, len(logins))
		batchLogins := logins[start:end]

		batchProfiles, err := c.fetchBatch(ctx, batchLogins, from, to)
		if err != nil {
			// Fatal conditions stop the pass; anything else fails this
			// batch only.
			if errors.Is(err, ErrQuotaExhausted) || ctx.Err() != nil {
				return profiles, failed, err
			}
			failed = append(failed, FailedBatch{
				Batch:  batch + 1,
				Logins: batchLogins,
				Err:    err.Error(),
			})
			c.logger.Warn("batch failed",
				"batch", batch+1,
				"total", totalBatches,
				"error", err)
			continue
		}

		profiles = append(profiles, batchProfiles...)
		c.logger.Debug("batch fetched",
			"batch", batch+1,
			"total", totalBatches,
			"got", len(batchProfiles),
			"want", len(batchLogins))
	}

	return profiles, failed, nil
}

// fetchBatch issues one aliased query and decodes every user alias. A null
// alias means the account is gone or suspended; that login is dropped with
// a log line rather than failing the batch.
func (c *Client) fetchBatch(ctx context.Context, logins []core.Identifier, from, to time.Time) ([]*core.Profile, error) {
	query := buildBatchQuery(logins, c.config.ReposPerUser, from, to)

	var data map[string]json.RawMessage
	if err := c.runQuery(ctx, c.config.BatchDelay, query, nil, &data); err != nil {
		return nil, err
	}

	fetchedAt := time.Now().UTC()
	profiles := make([]*core.Profile, 0, len(logins))
	for i, login := range logins {
		raw, ok := data[fmt.Sprintf("user%d", i)]
		if !ok || string(raw) == "null" {
			c.logger.Warn("user not found, dropping", "login", login)
			continue
		}
		var node userNode
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", login, err)
		}
		profile := profileFromNode(&node, fetchedAt)
		if err := core.ValidateProfile(profile); err != nil {
			c.logger.Warn("dropping malformed profile", "login", login, "error", err)
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func collectLogins(failed []FailedBatch) []core.Identifier {
	var logins []core.Identifier
	for _, fb := range failed {
		logins = append(logins, fb.Logins...)
	}
	return logins
}
