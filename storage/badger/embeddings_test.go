package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

func TestEmbeddingCacheBasics(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()

	embedding := &core.Embedding{
		ContentID: core.IDFromContent("all-mpnet-base-v2\x00GitHub username: alice"),
		Model:     "all-mpnet-base-v2",
		Vector:    []float32{0.1, 0.2, 0.3, 0.4},
	}

	if err := cache.PutEmbeddings(ctx, embedding); err != nil {
		t.Fatalf("Failed to put embedding: %v", err)
	}

	if embedding.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be stamped on put")
	}

	retrieved, err := cache.GetEmbedding(ctx, embedding.ContentID)
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}

	if retrieved.Model != "all-mpnet-base-v2" {
		t.Fatalf("Expected model to round-trip, got '%s'", retrieved.Model)
	}
	if len(retrieved.Vector) != 4 || retrieved.Vector[2] != 0.3 {
		t.Fatalf("Expected vector to round-trip, got %v", retrieved.Vector)
	}
}

func TestGetEmbedding_Miss(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = cache.GetEmbedding(ctx, core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on cache miss, got %v", err)
	}
}

func TestPutEmbeddings_Overwrite(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	id := core.ID(99)

	first := &core.Embedding{ContentID: id, Model: "m", Vector: []float32{1, 1}}
	if err := cache.PutEmbeddings(ctx, first); err != nil {
		t.Fatalf("Failed to put first embedding: %v", err)
	}

	second := &core.Embedding{ContentID: id, Model: "m", Vector: []float32{2, 2}}
	if err := cache.PutEmbeddings(ctx, second); err != nil {
		t.Fatalf("Failed to put second embedding: %v", err)
	}

	retrieved, err := cache.GetEmbedding(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}
	if retrieved.Vector[0] != 2 {
		t.Fatalf("Expected overwritten vector, got %v", retrieved.Vector)
	}

	count, err := cache.CountEmbeddings(ctx)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 embedding after overwrite, got %d", count)
	}
}

func TestCountEmbeddings(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()

	count, err := cache.CountEmbeddings(ctx)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected empty cache, got %d", count)
	}

	batch := []*core.Embedding{
		{ContentID: core.ID(1), Model: "m", Vector: []float32{0.1}},
		{ContentID: core.ID(2), Model: "m", Vector: []float32{0.2}},
		{ContentID: core.ID(3), Model: "m", Vector: []float32{0.3}},
	}
	if err := cache.PutEmbeddings(ctx, batch...); err != nil {
		t.Fatalf("Failed to put batch: %v", err)
	}

	count, err = cache.CountEmbeddings(ctx)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 embeddings, got %d", count)
	}
}
