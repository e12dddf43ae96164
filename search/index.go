package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// Index is an in-memory search corpus: one run's enriched profiles next
// to their embedding vectors, row-aligned.
type Index struct {
	profiles []*core.EnrichedProfile
	vectors  [][]float32
}

// Len returns the number of indexed profiles.
func (idx *Index) Len() int {
	return len(idx.profiles)
}

// Index embeds every profile's text representation and returns the
// resulting corpus. Vectors cached under the same model and unchanged
// text are reused; only the misses hit the embedding service. Cache
// faults are absorbed with a warning, while an embedding service
// failure fails the whole build.
func (s *Searcher) Index(ctx context.Context, profiles []*core.EnrichedProfile) (*Index, error) {
	index := &Index{
		profiles: profiles,
		vectors:  make([][]float32, len(profiles)),
	}

	missTexts := make([]string, 0, len(profiles))
	missRows := make([]int, 0, len(profiles))
	missIds := make([]core.ID, 0, len(profiles))

	for i, profile := range profiles {
		text := ProfileText(profile)
		contentID := embeddingContentID(s.model, text)

		if s.cache != nil {
			cached, err := s.cache.GetEmbedding(ctx, contentID)
			if err == nil && cached != nil && len(cached.Vector) > 0 {
				index.vectors[i] = cached.Vector
				continue
			}
			// A miss is the normal cold path; anything else is worth a warning.
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("embedding cache read failed", "login", profile.Login, "err", err)
			}
		}

		missTexts = append(missTexts, text)
		missRows = append(missRows, i)
		missIds = append(missIds, contentID)
	}

	if len(missTexts) == 0 {
		s.logger.Debug("search index served from cache", "profiles", len(profiles))
		return index, nil
	}

	s.logger.Info("embedding profiles",
		"total", len(profiles),
		"cached", len(profiles)-len(missTexts),
		"toEmbed", len(missTexts))

	vectors, err := s.embedder.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(missTexts), len(vectors))
	}

	for j, vector := range vectors {
		index.vectors[missRows[j]] = vector
	}

	if s.cache != nil {
		embeddings := make([]*core.Embedding, 0, len(vectors))
		for j, vector := range vectors {
			embeddings = append(embeddings, &core.Embedding{
				ContentID: missIds[j],
				Model:     s.model,
				Vector:    vector,
			})
		}
		if err := s.cache.PutEmbeddings(ctx, embeddings...); err != nil {
			s.logger.Warn("embedding cache write failed", "count", len(embeddings), "err", err)
		}
	}

	return index, nil
}

// embeddingContentID keys a cached vector by model and source text, so a
// change to either yields a fresh cache entry.
func embeddingContentID(model, text string) core.ID {
	return core.IDFromContent(model + "\x00" + text)
}
