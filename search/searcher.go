package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/devscout/ai"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// Searcher ranks enriched profiles against free-text queries by cosine
// similarity over embeddings, attaching short justifications to results.
type Searcher struct {
	embedder  ai.Embedder
	explainer ai.Explainer
	cache     storage.EmbeddingCache
	model     string
	reasoning bool
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbeddingCache reuses cached vectors across index builds. model
// names the embedding model the cached entries belong to; entries from
// a different model are never reused.
func WithEmbeddingCache(cache storage.EmbeddingCache, model string) Option {
	return func(s *Searcher) error {
		s.cache = cache
		s.model = model
		return nil
	}
}

// WithReasoning toggles per-result justifications from the reasoning
// service. When disabled, results carry keyword-derived reasons only.
// Default is enabled.
func WithReasoning(enabled bool) Option {
	return func(s *Searcher) error {
		s.reasoning = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		embedder:  provider.Embedder(),
		explainer: provider.Explainer(),
		reasoning: true,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search ranks the index against the query.
// Returns up to topK results, best match first.
func (s *Searcher) Search(ctx context.Context, index *Index, query string, topK int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, index, query, topK, nil)
}

// SearchWithMonitor ranks the index against the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to topK results, best match first.
func (s *Searcher) SearchWithMonitor(ctx context.Context, index *Index, query string, topK int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	if index == nil || index.Len() == 0 {
		s.logger.Warn("search index is empty")
		return []*core.SearchResult{}, nil
	}

	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	monitor.AfterQueryEmbedding(queryVector)

	results := make([]*core.SearchResult, 0, index.Len())
	for i, profile := range index.profiles {
		results = append(results, &core.SearchResult{
			Profile: profile,
			Score:   cosineSimilarity(queryVector, index.vectors[i]),
		})
	}

	// Stable so equal scores keep the corpus (rank) order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK < 0 {
		topK = 0
	}
	if len(results) > topK {
		results = results[:topK]
	}
	monitor.AfterScoring(results)

	for _, result := range results {
		result.Reasons = s.justify(ctx, query, result)
		monitor.AfterJustification(result)
	}

	monitor.Finish(results)

	return results, nil
}

// justify produces the reasons for one result: the reasoning service
// first when enabled, then keyword matching, then nothing at all.
func (s *Searcher) justify(ctx context.Context, query string, result *core.SearchResult) []string {
	if s.reasoning && s.explainer != nil {
		reasons, err := s.explainer.Explain(ctx, query, candidateFromProfile(result.Profile))
		if err != nil {
			s.logger.Warn("reasoning service failed, falling back to keyword match",
				"login", result.Profile.Login, "err", err)
		} else if len(reasons) > 0 {
			return reasons
		}
	}
	return keywordReasons(result.Profile, query)
}

// candidateFromProfile flattens an enriched profile into the summary the
// reasoning prompt consumes.
func candidateFromProfile(profile *core.EnrichedProfile) ai.Candidate {
	candidate := ai.Candidate{
		Login:    string(profile.Login),
		Bio:      profile.Bio,
		Location: profile.Location,
		Company:  profile.Company,
	}
	for _, repo := range profile.Repositories {
		candidate.Repositories = append(candidate.Repositories, ai.CandidateRepo{
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.PrimaryLanguage,
			Stars:       repo.Stars,
			Readme:      profile.Readmes[repo.Name],
		})
	}
	return candidate
}
