package vectorindex

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"answerdesk/chat-api/internal/domain/knowledge"
)

// Store wraps chromem-go with one collection per tenant and disk persistence.
// Tenant scoping happens at the collection boundary: a query can only ever
// touch the collection named by the caller's tenant ID.
type Store struct {
	mu sync.RWMutex
	db *chromem.DB
}

var _ knowledge.VectorIndex = (*Store)(nil)

// New creates (or opens) the persistent vector store at dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("create vectorstore dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dataDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vectorstore: %w", err)
	}
	return &Store{db: db}, nil
}

func collectionName(tenantID string) string {
	return "tenant_" + tenantID
}

// noEmbed is passed where chromem requires an embedding func. All vectors
// arrive pre-computed; reaching this function means a caller forgot one.
func noEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("vectorindex: embedding must be computed before indexing")
}

func (s *Store) getOrCreateCollection(tenantID string) (*chromem.Collection, error) {
	name := collectionName(tenantID)
	col := s.db.GetCollection(name, noEmbed)
	if col == nil {
		var err error
		col, err = s.db.CreateCollection(name, nil, noEmbed)
		if err != nil {
			return nil, fmt.Errorf("create collection for tenant %s: %w", tenantID, err)
		}
	}
	return col, nil
}

// Upsert implements knowledge.VectorIndex.
func (s *Store) Upsert(ctx context.Context, tenantID string, chunks []knowledge.EmbeddingChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.getOrCreateCollection(tenantID)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		doc := chromem.Document{
			ID:        chunk.PublicID,
			Content:   chunk.Content,
			Embedding: chunk.Embedding,
			Metadata: map[string]string{
				"source_id":  chunk.SourcePublicID,
				"seq":        strconv.Itoa(chunk.Seq),
				"created_at": chunk.CreatedAt.UTC().Format(time.RFC3339),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.PublicID, err)
		}
	}
	return nil
}

// Search implements knowledge.VectorIndex. A tenant with no collection yet
// has no content: empty result, not an error.
func (s *Store) Search(ctx context.Context, tenantID string, queryVector []float32, topK int) ([]knowledge.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.db.GetCollection(collectionName(tenantID), noEmbed)
	if col == nil {
		return nil, nil
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := col.QueryEmbedding(ctx, queryVector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query tenant %s: %w", tenantID, err)
	}

	hits := make([]knowledge.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk := knowledge.EmbeddingChunk{
			PublicID:       r.ID,
			TenantPublicID: tenantID,
			SourcePublicID: r.Metadata["source_id"],
			Content:        r.Content,
		}
		if seq, err := strconv.Atoi(r.Metadata["seq"]); err == nil {
			chunk.Seq = seq
		}
		if createdAt, err := time.Parse(time.RFC3339, r.Metadata["created_at"]); err == nil {
			chunk.CreatedAt = createdAt
		}
		hits = append(hits, knowledge.ScoredChunk{
			Chunk:      chunk,
			Similarity: float64(r.Similarity),
		})
	}
	return hits, nil
}

// DeleteSource implements knowledge.VectorIndex, dropping every chunk of one
// source from the tenant's collection.
func (s *Store) DeleteSource(ctx context.Context, tenantID, sourcePublicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.db.GetCollection(collectionName(tenantID), noEmbed)
	if col == nil {
		return nil
	}
	return col.Delete(ctx, map[string]string{"source_id": sourcePublicID}, nil)
}
