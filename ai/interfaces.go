package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Explainer writes short justifications for why a candidate matches a query.
// Implementations must be thread-safe for concurrent use.
type Explainer interface {
	// Explain returns up to MaxReasons one-sentence justifications tying the
	// candidate's profile to the query. Each reason should name a specific
	// repository or technology from the profile.
	// Returns an empty slice if no substantive reasons could be produced.
	// Returns an error if the reasoning service fails; callers are expected
	// to treat that as advisory and degrade rather than abort.
	Explain(ctx context.Context, query string, candidate Candidate) ([]string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Explainer instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Explainer returns the justification service.
	// The returned Explainer is safe for concurrent use.
	Explainer() Explainer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
