package knowledge

import (
	"context"
	"strings"
	"time"

	"answerdesk/chat-api/internal/utils/idgen"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// chunkSize is the target fragment size in characters. Fragments are cut at
// word boundaries near this size so no embedding input is pathologically long.
const chunkSize = 1200

// Indexer realizes the ingestion output contract: given already-extracted
// text for a source, it chunks, embeds, and indexes the content, moving the
// source through pending → indexed | failed. Re-indexing supersedes the
// source's previous chunks; it never edits them.
type Indexer struct {
	sources  SourceRepository
	chunks   ChunkRepository
	embedder Embedder
	index    VectorIndex
}

func NewIndexer(sources SourceRepository, chunks ChunkRepository, embedder Embedder, index VectorIndex) *Indexer {
	return &Indexer{sources: sources, chunks: chunks, embedder: embedder, index: index}
}

// IngestText registers a source for the tenant and indexes its text content.
// On embedding or index failure the source is marked failed with a reason and
// the error is returned; previously indexed chunks of a re-ingested source
// stay superseded either way.
func (ix *Indexer) IngestText(ctx context.Context, tenantID uint, tenantPublicID string, kind SourceKind, title, uri, text string) (*Source, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"empty_source", "source text is empty", nil)
	}
	if !kind.Valid() {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid_source_kind", "unknown source kind", nil)
	}

	src := &Source{
		PublicID:       idgen.MustGenerateSecureID("src", 16),
		TenantID:       tenantID,
		TenantPublicID: tenantPublicID,
		Kind:           kind,
		Title:          title,
		URI:            uri,
		Status:         SourceStatusPending,
	}
	if err := ix.sources.Create(ctx, src); err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "create source")
	}

	if err := ix.indexSource(ctx, src, text); err != nil {
		reason := err.Error()
		src.Status = SourceStatusFailed
		src.FailureReason = &reason
		_ = ix.sources.Update(ctx, src)
		return src, err
	}
	return src, nil
}

// Reindex supersedes the chunks of an existing source and indexes text anew.
func (ix *Indexer) Reindex(ctx context.Context, src *Source, text string) error {
	if err := ix.chunks.SupersedeBySource(ctx, src.ID); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "supersede chunks")
	}
	if err := ix.index.DeleteSource(ctx, src.TenantPublicID, src.PublicID); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "drop indexed chunks")
	}

	if err := ix.indexSource(ctx, src, text); err != nil {
		reason := err.Error()
		src.Status = SourceStatusFailed
		src.FailureReason = &reason
		_ = ix.sources.Update(ctx, src)
		return err
	}
	return nil
}

func (ix *Indexer) indexSource(ctx context.Context, src *Source, text string) error {
	fragments := SplitText(text, chunkSize)

	chunks := make([]EmbeddingChunk, 0, len(fragments))
	for i, fragment := range fragments {
		vector, err := ix.embedder.Embed(ctx, fragment)
		if err != nil {
			return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
				"embedding_failed", "embed source fragment", err)
		}
		chunks = append(chunks, EmbeddingChunk{
			PublicID:       idgen.MustGenerateSecureID("chk", 16),
			TenantID:       src.TenantID,
			TenantPublicID: src.TenantPublicID,
			SourceID:       src.ID,
			SourcePublicID: src.PublicID,
			Seq:            i,
			Content:        fragment,
			Embedding:      vector,
			Dimension:      len(vector),
			CreatedAt:      time.Now(),
		})
	}

	rows := make([]*EmbeddingChunk, len(chunks))
	for i := range chunks {
		rows[i] = &chunks[i]
	}
	if err := ix.chunks.BulkCreate(ctx, rows); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "persist chunks")
	}

	if err := ix.index.Upsert(ctx, src.TenantPublicID, chunks); err != nil {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			"index_failed", "upsert vector index", err)
	}

	now := time.Now()
	src.Status = SourceStatusIndexed
	src.FailureReason = nil
	src.ChunkCount = len(chunks)
	src.IndexedAt = &now
	if err := ix.sources.Update(ctx, src); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "mark source indexed")
	}
	return nil
}

// SplitText cuts text into fragments of at most size characters, preferring
// paragraph then word boundaries. Deterministic for a given input.
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = chunkSize
	}
	paragraphs := strings.Split(text, "\n\n")

	var fragments []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			fragments = append(fragments, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > size {
			flush()
		}
		if len(para) <= size {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(para)
			continue
		}
		// Paragraph longer than one fragment: cut at word boundaries.
		flush()
		words := strings.Fields(para)
		for _, word := range words {
			if current.Len() > 0 && current.Len()+len(word)+1 > size {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(word)
		}
		flush()
	}
	flush()
	return fragments
}
