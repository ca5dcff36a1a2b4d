package vectorindex

import (
	"context"
	"testing"
	"time"

	"answerdesk/chat-api/internal/domain/knowledge"
)

func chunk(id, source, content string, embedding []float32) knowledge.EmbeddingChunk {
	return knowledge.EmbeddingChunk{
		PublicID:       id,
		SourcePublicID: source,
		Content:        content,
		Embedding:      embedding,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestSearchScopedToTenant(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	if err := store.Upsert(ctx, "tn_a", []knowledge.EmbeddingChunk{
		chunk("chk_a1", "src_a", "tenant a refund policy", vec),
	}); err != nil {
		t.Fatalf("Upsert tenant a: %v", err)
	}
	if err := store.Upsert(ctx, "tn_b", []knowledge.EmbeddingChunk{
		chunk("chk_b1", "src_b", "tenant b shipping rates", vec),
	}); err != nil {
		t.Fatalf("Upsert tenant b: %v", err)
	}

	// Identical query vector: each tenant must only ever see its own chunk.
	hits, err := store.Search(ctx, "tn_a", vec, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("tenant a hits = %d, want 1", len(hits))
	}
	if hits[0].Chunk.PublicID != "chk_a1" {
		t.Errorf("tenant a saw chunk %s", hits[0].Chunk.PublicID)
	}

	hits, err = store.Search(ctx, "tn_b", vec, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.PublicID != "chk_b1" {
		t.Errorf("tenant b hits = %+v", hits)
	}
}

func TestSearchUnknownTenantIsEmpty(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := store.Search(context.Background(), "tn_nobody", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d, want 0", len(hits))
	}
}

func TestSearchClampsTopK(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Upsert(ctx, "tn_a", []knowledge.EmbeddingChunk{
		chunk("chk_1", "src_a", "only document", []float32{0, 1, 0}),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := store.Search(ctx, "tn_a", []float32{0, 1, 0}, 50)
	if err != nil {
		t.Fatalf("Search with oversized topK: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d, want 1", len(hits))
	}
}

func TestDeleteSourceRemovesChunks(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Upsert(ctx, "tn_a", []knowledge.EmbeddingChunk{
		chunk("chk_1", "src_gone", "stale content", []float32{1, 0, 0}),
		chunk("chk_2", "src_kept", "current content", []float32{0, 1, 0}),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := store.DeleteSource(ctx, "tn_a", "src_gone"); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}

	hits, err := store.Search(ctx, "tn_a", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, h := range hits {
		if h.Chunk.SourcePublicID == "src_gone" {
			t.Errorf("deleted source still searchable: %+v", h.Chunk)
		}
	}
}
