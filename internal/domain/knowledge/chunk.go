package knowledge

import (
	"context"
	"time"
)

// EmbeddingChunk is a fixed-size fragment of a Source with its vector
// representation. Chunks are immutable; re-ingesting a source supersedes its
// previous chunks rather than mutating them.
type EmbeddingChunk struct {
	ID             uint      `json:"-"`
	PublicID       string    `json:"id"`
	TenantID       uint      `json:"-"`
	TenantPublicID string    `json:"-"`
	SourceID       uint      `json:"-"`
	SourcePublicID string    `json:"source_id"`
	Seq            int       `json:"seq"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"-"`
	Dimension      int       `json:"dimension"`
	Superseded     bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScoredChunk is one retrieval hit: a chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk      EmbeddingChunk
	Similarity float64
}

type ChunkRepository interface {
	BulkCreate(ctx context.Context, chunks []*EmbeddingChunk) error
	SupersedeBySource(ctx context.Context, sourceID uint) error
	CountActiveByTenant(ctx context.Context, tenantID uint) (int64, error)
}

// Embedder turns text into a fixed-dimension vector. Query-time and
// ingest-time embeddings must come from the same model and dimension; a
// mismatch is a configuration error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the tenant-scoped similarity search surface. Tenant scoping
// is part of every call signature so isolation is enforced at the query, not
// by post-filtering result sets.
type VectorIndex interface {
	Upsert(ctx context.Context, tenantID string, chunks []EmbeddingChunk) error
	Search(ctx context.Context, tenantID string, queryVector []float32, topK int) ([]ScoredChunk, error)
	DeleteSource(ctx context.Context, tenantID, sourcePublicID string) error
}
