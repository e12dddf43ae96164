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


package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/enrich"
	"github.com/poiesic/devscout/github"
	"github.com/poiesic/devscout/rank"
	"github.com/poiesic/devscout/storage"
)

// defaultPoolSize bounds the enrichment and artifact export workers. The
// work is I/O bound and sits behind the client's rate gate, so a small
// pool is plenty.
const defaultPoolSize = 3

// ProfileSource is the upstream a run collects from: user search, batched
// profile hydration, and per-repository README retrieval. *github.Client
// is the production implementation.
type ProfileSource interface {
	SearchLogins(ctx context.Context, query string) ([]core.Identifier, *github.SearchStats, error)
	FetchProfiles(ctx context.Context, logins []core.Identifier) ([]*core.Profile, []github.FailedBatch, error)
	FetchReadme(ctx context.Context, owner, repo string) (string, error)
}

var _ ProfileSource = (*github.Client)(nil)

// Pipeline runs the collection workflow end to end: discovery, fetch,
// ranking, and enrichment, persisting each phase's snapshot as it lands.
type Pipeline struct {
	source        ProfileSource
	ranker        *rank.Ranker
	runs          storage.RunStore
	enricher      *enrich.Enricher
	pool          *ants.Pool
	poolSize      int
	enrichEnabled bool
	enrichLimit   int
	outputDir     string
	progress      io.Writer
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for enrichment and artifact
// export. Default is 3, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release the old pool before replacing it
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		p.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress directs human-readable phase progress to w, typically
// os.Stdout. Default discards it.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.progress = w
		return nil
	}
}

// WithOutputDir sets the root directory for JSON artifact export. Each
// run writes its files under a subdirectory named by run ID. Empty
// disables export.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) error {
		p.outputDir = dir
		return nil
	}
}

// WithEnrichment toggles the README enrichment phase. When disabled no
// READMEs are fetched and no enriched snapshot is stored.
func WithEnrichment(enabled bool) Option {
	return func(p *Pipeline) error {
		p.enrichEnabled = enabled
		return nil
	}
}

// WithEnrichLimit caps how many of the ranked profiles get READMEs.
// Zero (the default) enriches the whole top slice.
func WithEnrichLimit(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			n = 0
		}
		p.enrichLimit = n
		return nil
	}
}

// NewPipeline creates a collection pipeline over the given source,
// ranker, and run store.
func NewPipeline(source ProfileSource, ranker *rank.Ranker, runs storage.RunStore, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if runs == nil {
		return nil, ErrRunStoreRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		source:        source,
		ranker:        ranker,
		runs:          runs,
		pool:          pool,
		poolSize:      defaultPoolSize,
		enrichEnabled: true,
		progress:      io.Discard,
		logger:        slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Build the enricher after options are applied so it sees the final
	// pool size and progress writer.
	enrichConfig := enrich.DefaultConfig()
	enrichConfig.PoolSize = p.poolSize
	p.enricher = enrich.NewEnricher(source, enrichConfig, p.progress)

	return p, nil
}

// Run executes a full collection run for the given search query and
// returns the persisted run summary.
//
// Phase-local failures (bad pages, failed batches, missing READMEs) are
// contained and surface as dropped counts. Quota exhaustion and context
// cancellation abort the run but persist everything collected up to that
// point, so the returned record and the store still describe the partial
// run.
func (p *Pipeline) Run(ctx context.Context, query string) (*core.RunRecord, error) {
	started := time.Now().UTC()
	record := &core.RunRecord{
		Id:        core.NewRunID(started),
		Query:     query,
		StartedAt: started,
	}

	logger := p.logger.With("run", record.Id)
	fmt.Fprintf(p.progress, "Starting run %s for query %q\n", record.Id, query)

	// Discovery: paginated search plus dedup. Dropped counts duplicates.
	phaseStart := time.Now()
	logins, stats, err := p.source.SearchLogins(ctx, query)
	if err != nil && len(logins) == 0 {
		return nil, err
	}
	unique := github.Dedupe(logins)
	record.Discovery = core.PhaseStats{
		Succeeded: len(unique),
		Dropped:   len(logins) - len(unique),
		Duration:  time.Since(phaseStart),
	}
	if err != nil {
		// Quota or cancellation mid-walk. Nothing fetched yet, but the
		// record keeps what discovery managed.
		logger.Error("discovery aborted", "collected", len(unique), "err", err)
		return p.abort(record, err, nil)
	}
	if len(unique) == 0 {
		return nil, ErrNoUsers
	}
	logger.Info("discovery finished",
		"unique", len(unique),
		"duplicates", len(logins)-len(unique),
		"pages", stats.Pages,
		"matching", stats.TotalMatching)
	fmt.Fprintf(p.progress, "Discovered %d unique users (%d collected over %d pages)\n",
		len(unique), stats.Collected, stats.Pages)

	// Fetch: batched hydration. Dropped counts logins lost to failed
	// batches and vanished accounts.
	phaseStart = time.Now()
	profiles, failed, fetchErr := p.source.FetchProfiles(ctx, unique)
	record.Fetch = core.PhaseStats{
		Succeeded: len(profiles),
		Dropped:   len(unique) - len(profiles),
		Duration:  time.Since(phaseStart),
	}
	if fetchErr != nil {
		// Quota exhaustion or cancellation. Keep whatever was hydrated.
		logger.Error("profile fetch aborted", "fetched", len(profiles), "err", fetchErr)
		return p.abort(record, fetchErr, func(ctx context.Context) error {
			if len(profiles) == 0 {
				return nil
			}
			return p.runs.SaveProfiles(ctx, record.Id, storage.StageDiscovered, profiles)
		})
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %d batches failed", ErrNoProfiles, len(failed))
	}
	if err := p.runs.SaveProfiles(ctx, record.Id, storage.StageDiscovered, profiles); err != nil {
		return nil, fmt.Errorf("save discovered snapshot: %w", err)
	}
	fmt.Fprintf(p.progress, "Fetched %d/%d profiles\n", len(profiles), len(unique))

	// Ranking: pure scoring and the top-N cut. Dropped counts profiles
	// gated out as inactive.
	phaseStart = time.Now()
	ranked, excluded := p.ranker.Rank(profiles, time.Now().UTC())
	top := p.ranker.Top(ranked)
	record.Ranking = core.PhaseStats{
		Succeeded: len(ranked),
		Dropped:   excluded,
		Duration:  time.Since(phaseStart),
	}
	if err := p.runs.SaveProfiles(ctx, record.Id, storage.StageRanked, top); err != nil {
		return nil, fmt.Errorf("save ranked snapshot: %w", err)
	}
	logger.Info("ranking finished", "ranked", len(ranked), "gated_out", excluded, "top", len(top))
	fmt.Fprintf(p.progress, "Ranked %d profiles (%d gated out), keeping top %d\n",
		len(ranked), excluded, len(top))

	// Enrichment: best-effort README collection. Dropped counts profiles
	// that ended up with no README at all.
	if p.enrichEnabled {
		candidates := top
		if p.enrichLimit > 0 && p.enrichLimit < len(candidates) {
			candidates = candidates[:p.enrichLimit]
		}
		phaseStart = time.Now()
		enriched, enrichErr := p.enricher.Enrich(ctx, candidates)
		withReadmes := 0
		for _, profile := range enriched {
			if profile.ReadmeCount() > 0 {
				withReadmes++
			}
		}
		record.Enrichment = core.PhaseStats{
			Succeeded: withReadmes,
			Dropped:   len(enriched) - withReadmes,
			Duration:  time.Since(phaseStart),
		}
		if enrichErr != nil {
			logger.Error("enrichment aborted", "enriched", len(enriched), "err", enrichErr)
			return p.abort(record, enrichErr, func(ctx context.Context) error {
				return p.runs.SaveEnriched(ctx, record.Id, enriched)
			})
		}
		if err := p.runs.SaveEnriched(ctx, record.Id, enriched); err != nil {
			return nil, fmt.Errorf("save enriched snapshot: %w", err)
		}
	} else {
		fmt.Fprintf(p.progress, "Skipping readme enrichment\n")
	}

	record.FinishedAt = time.Now().UTC()
	if err := p.runs.SaveRun(ctx, record); err != nil {
		return nil, fmt.Errorf("save run record: %w", err)
	}
	logger.Info("run finished", "duration", record.FinishedAt.Sub(record.StartedAt))

	if p.outputDir != "" {
		if paths, err := p.Export(ctx, record.Id); err != nil {
			logger.Warn("artifact export failed", "err", err)
		} else {
			for _, path := range paths {
				fmt.Fprintf(p.progress, "Wrote %s\n", path)
			}
		}
	}

	WriteReport(p.progress, record)
	return record, nil
}

// abort persists what a dying run collected so the partial results stay
// inspectable, then returns the record alongside the original error. The
// saves run on a fresh context because the run's own context may already
// be cancelled.
func (p *Pipeline) abort(record *core.RunRecord, cause error, save func(ctx context.Context) error) (*core.RunRecord, error) {
	record.FinishedAt = time.Now().UTC()
	ctx := context.Background()
	if save != nil {
		if err := save(ctx); err != nil {
			p.logger.Error("saving partial snapshot failed", "run", record.Id, "err", err)
		}
	}
	if err := p.runs.SaveRun(ctx, record); err != nil {
		p.logger.Error("saving run record failed", "run", record.Id, "err", err)
	}
	fmt.Fprintf(p.progress, "Run %s aborted: %v\n", record.Id, cause)
	return record, cause
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
