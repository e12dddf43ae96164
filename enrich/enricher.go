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

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/github"
)

// ReadmeFetcher fetches one repository README. *github.Client satisfies it.
type ReadmeFetcher interface {
	FetchReadme(ctx context.Context, owner, repo string) (string, error)
}

// Config holds configuration for the enrichment operation.
type Config struct {
	// PoolSize is the number of profiles enriched concurrently. The
	// client's rate gate spaces the underlying requests regardless.
	PoolSize int

	// ReportInterval is how often to report progress (number of profiles)
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:       3,
		ReportInterval: 5,
	}
}

// Enricher fetches README text for every repository of the profiles it
// is given.
type Enricher struct {
	fetcher  ReadmeFetcher
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewEnricher creates a new enricher.
// progress: where to write progress output (typically os.Stderr)
func NewEnricher(fetcher ReadmeFetcher, config *Config, progress io.Writer) *Enricher {
	if config == nil {
		config = DefaultConfig()
	}

	return &Enricher{
		fetcher:  fetcher,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "enricher"),
	}
}

// Enrich fetches READMEs for every repository of every profile and
// returns the enriched set in input order. Missing or failed READMEs
// leave the repository without text; only pool setup failure or
// cancellation is an error, and on cancellation the profiles enriched
// so far are still returned.
func (e *Enricher) Enrich(ctx context.Context, profiles []*core.Profile) ([]*core.EnrichedProfile, error) {
	enriched := make([]*core.EnrichedProfile, len(profiles))
	for i, profile := range profiles {
		enriched[i] = &core.EnrichedProfile{Profile: *profile}
	}

	if len(profiles) == 0 {
		return enriched, nil
	}

	fmt.Fprintf(e.progress, "Fetching READMEs for %d profiles (%d workers)\n",
		len(profiles), e.config.PoolSize)

	pool, err := ants.NewPool(e.config.PoolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	tracker := NewProgressTracker(e.progress, len(profiles), e.config.ReportInterval)
	tracker.Start()

	var wg sync.WaitGroup
	for i := range profiles {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		target := enriched[i]
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			e.enrichOne(ctx, target)
			tracker.Done(target.ReadmeCount())
		}); submitErr != nil {
			// Pool rejected the task; run it inline rather than lose it
			e.enrichOne(ctx, target)
			tracker.Done(target.ReadmeCount())
			wg.Done()
		}
	}
	wg.Wait()
	tracker.Finish()

	if ctx.Err() != nil {
		return enriched, ctx.Err()
	}

	fmt.Fprintf(e.progress, "Collected %d READMEs across %d profiles\n", tracker.Readmes(), len(profiles))

	return enriched, nil
}

// enrichOne walks one profile's repositories. Absent READMEs are
// expected; anything else is logged and skipped.
func (e *Enricher) enrichOne(ctx context.Context, profile *core.EnrichedProfile) {
	for _, repo := range profile.Repositories {
		if ctx.Err() != nil {
			return
		}

		body, err := e.fetcher.FetchReadme(ctx, string(profile.Login), repo.Name)
		if err != nil {
			if errors.Is(err, github.ErrNoReadme) {
				e.logger.Debug("no readme", "login", profile.Login, "repo", repo.Name)
			} else {
				e.logger.Warn("readme fetch failed", "login", profile.Login, "repo", repo.Name, "err", err)
			}
			continue
		}

		if profile.Readmes == nil {
			profile.Readmes = make(map[string]string)
		}
		profile.Readmes[repo.Name] = body
	}
}
