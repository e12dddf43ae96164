package storage

import (
	"context"

	"github.com/poiesic/devscout/core"
)

// Stage identifies which snapshot of a run's pipeline a profile set
// belongs to.
type Stage string

const (
	// StageDiscovered holds every deduplicated profile the fetch phase
	// hydrated, before ranking.
	StageDiscovered Stage = "discovered"

	// StageRanked holds the scored top slice in rank order, with score
	// breakdowns attached.
	StageRanked Stage = "ranked"
)

// Store provides common storage operations shared across all stores.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// WithTransaction executes the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the store. The underlying
	// backend is shared and closed separately.
	Close() error
}

// RunStore persists pipeline runs: the run summary plus the profile
// snapshots each phase produced.
type RunStore interface {
	Store

	// SaveRun persists a run summary, overwriting any previous version.
	SaveRun(ctx context.Context, record *core.RunRecord) error

	// GetRun retrieves a run summary by ID.
	// Returns ErrNotFound if no such run exists.
	GetRun(ctx context.Context, id core.RunID) (*core.RunRecord, error)

	// LatestRun returns the most recently started run summary.
	// Returns ErrNotFound when no runs have been stored.
	LatestRun(ctx context.Context) (*core.RunRecord, error)

	// ListRuns returns all run summaries, most recent first.
	ListRuns(ctx context.Context) ([]*core.RunRecord, error)

	// SaveProfiles stores a run's profile snapshot for a stage,
	// replacing any previous snapshot for that run and stage.
	SaveProfiles(ctx context.Context, id core.RunID, stage Stage, profiles []*core.Profile) error

	// GetProfiles retrieves a run's profile snapshot for a stage, in
	// stored order. Returns ErrNotFound if the run has no snapshot for
	// the stage.
	GetProfiles(ctx context.Context, id core.RunID, stage Stage) ([]*core.Profile, error)

	// SaveEnriched stores a run's enriched profile snapshot, replacing
	// any previous one.
	SaveEnriched(ctx context.Context, id core.RunID, profiles []*core.EnrichedProfile) error

	// GetEnriched retrieves a run's enriched profile snapshot in stored
	// order. Returns ErrNotFound if the run has no enriched snapshot.
	GetEnriched(ctx context.Context, id core.RunID) ([]*core.EnrichedProfile, error)

	// DeleteRun removes a run summary and all of its snapshots.
	// Returns ErrNotFound if no such run exists.
	DeleteRun(ctx context.Context, id core.RunID) error
}

// EmbeddingCache persists embedding vectors keyed by content hash so
// unchanged profile text is never embedded twice.
type EmbeddingCache interface {
	Store

	// PutEmbeddings stores one or more embeddings under their content
	// IDs, overwriting existing entries.
	PutEmbeddings(ctx context.Context, embeddings ...*core.Embedding) error

	// GetEmbedding retrieves an embedding by content ID.
	// Returns ErrNotFound on a cache miss.
	GetEmbedding(ctx context.Context, id core.ID) (*core.Embedding, error)

	// CountEmbeddings reports how many embeddings the cache holds.
	CountEmbeddings(ctx context.Context) (int, error)
}
