package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// Exporter writes stored run snapshots as JSON artifacts. It needs only
// the run store, so aborted or historical runs can be re-exported without
// an API client.
type Exporter struct {
	runs   storage.RunStore
	dir    string
	pool   *ants.Pool // optional; nil writes inline
	logger *slog.Logger
}

// NewExporter creates an Exporter rooted at the given output directory.
func NewExporter(runs storage.RunStore, dir string) (*Exporter, error) {
	if runs == nil {
		return nil, ErrRunStoreRequired
	}
	if dir == "" {
		return nil, ErrOutputDirRequired
	}
	return &Exporter{
		runs:   runs,
		dir:    dir,
		logger: slog.Default(),
	}, nil
}

// Export writes a stored run's stage snapshots as JSON files under
// <dir>/<runID>/: every fetched profile, the ranked top slice, and the
// enriched profiles with README text. Stages with no rows produce no
// file, so a run that skipped enrichment gets no phase3 artifact. Returns
// the paths written.
func (e *Exporter) Export(ctx context.Context, id core.RunID) ([]string, error) {
	if _, err := e.runs.GetRun(ctx, id); err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	// Aborted runs may be missing later stages; export what exists.
	discovered, err := e.runs.GetProfiles(ctx, id, storage.StageDiscovered)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load discovered snapshot: %w", err)
	}
	ranked, err := e.runs.GetProfiles(ctx, id, storage.StageRanked)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load ranked snapshot: %w", err)
	}
	enriched, err := e.runs.GetEnriched(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load enriched snapshot: %w", err)
	}

	type artifact struct {
		name    string
		payload any
	}
	var artifacts []artifact
	if len(discovered) > 0 {
		artifacts = append(artifacts, artifact{"phase1_all_users.json", discovered})
	}
	if len(ranked) > 0 {
		artifacts = append(artifacts, artifact{fmt.Sprintf("phase2_ranked_top_%d.json", len(ranked)), ranked})
	}
	if len(enriched) > 0 {
		artifacts = append(artifacts, artifact{fmt.Sprintf("phase3_top_%d_with_readmes.json", len(enriched)), enriched})
	}
	if len(artifacts) == 0 {
		return nil, nil
	}

	dir := filepath.Join(e.dir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	paths := make([]string, len(artifacts))
	errs := make([]error, len(artifacts))
	var wg sync.WaitGroup
	for i, a := range artifacts {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			path := filepath.Join(dir, a.name)
			if err := writeJSON(path, a.payload); err != nil {
				errs[i] = fmt.Errorf("write %s: %w", a.name, err)
				return
			}
			paths[i] = path
		}
		if e.pool == nil || e.pool.Submit(task) != nil {
			// No pool, or the pool rejected the task; write inline
			task()
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	e.logger.Info("artifacts exported", "run", id, "dir", dir, "files", len(paths))
	return paths, nil
}

// Export writes the run's snapshots under the pipeline's output directory,
// sharing the pipeline's worker pool.
func (p *Pipeline) Export(ctx context.Context, id core.RunID) ([]string, error) {
	if p.outputDir == "" {
		return nil, ErrOutputDirRequired
	}
	e := &Exporter{runs: p.runs, dir: p.outputDir, pool: p.pool, logger: p.logger}
	return e.Export(ctx, id)
}

// writeJSON writes v as indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
