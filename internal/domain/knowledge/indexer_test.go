package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

type fakeSourceRepo struct {
	sources map[string]*Source
	nextID  uint
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{sources: make(map[string]*Source), nextID: 1}
}

func (f *fakeSourceRepo) Create(_ context.Context, s *Source) error {
	s.ID = f.nextID
	f.nextID++
	f.sources[s.PublicID] = s
	return nil
}

func (f *fakeSourceRepo) FindByPublicID(_ context.Context, tenantID uint, publicID string) (*Source, error) {
	s, ok := f.sources[publicID]
	if !ok || s.TenantID != tenantID {
		return nil, platformerrors.NewError(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"source_not_found", "source not found", nil)
	}
	return s, nil
}

func (f *fakeSourceRepo) ListByTenant(_ context.Context, tenantID uint) ([]*Source, error) {
	var out []*Source
	for _, s := range f.sources {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSourceRepo) Update(_ context.Context, s *Source) error {
	f.sources[s.PublicID] = s
	return nil
}

type fakeChunkRepo struct {
	chunks     []*EmbeddingChunk
	superseded map[uint]bool
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{superseded: make(map[uint]bool)}
}

func (f *fakeChunkRepo) BulkCreate(_ context.Context, chunks []*EmbeddingChunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeChunkRepo) SupersedeBySource(_ context.Context, sourceID uint) error {
	f.superseded[sourceID] = true
	for _, c := range f.chunks {
		if c.SourceID == sourceID {
			c.Superseded = true
		}
	}
	return nil
}

func (f *fakeChunkRepo) CountActiveByTenant(_ context.Context, tenantID uint) (int64, error) {
	var n int64
	for _, c := range f.chunks {
		if c.TenantID == tenantID && !c.Superseded {
			n++
		}
	}
	return n, nil
}

type fakeIndex struct {
	byTenant map[string][]EmbeddingChunk
	failWith error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{byTenant: make(map[string][]EmbeddingChunk)}
}

func (f *fakeIndex) Upsert(_ context.Context, tenantID string, chunks []EmbeddingChunk) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.byTenant[tenantID] = append(f.byTenant[tenantID], chunks...)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, tenantID string, _ []float32, topK int) ([]ScoredChunk, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	chunks := f.byTenant[tenantID]
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	out := make([]ScoredChunk, len(chunks))
	for i, c := range chunks {
		out[i] = ScoredChunk{Chunk: c, Similarity: 0.9}
	}
	return out, nil
}

func (f *fakeIndex) DeleteSource(_ context.Context, tenantID, sourcePublicID string) error {
	kept := f.byTenant[tenantID][:0]
	for _, c := range f.byTenant[tenantID] {
		if c.SourcePublicID != sourcePublicID {
			kept = append(kept, c)
		}
	}
	f.byTenant[tenantID] = kept
	return nil
}

type fixedEmbedder struct {
	dim  int
	fail error
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail != nil {
		return nil, e.fail
	}
	v := make([]float32, e.dim)
	for i := range v {
		v[i] = float32(len(text)%7) + float32(i)
	}
	return v, nil
}

func TestIndexerIngestText(t *testing.T) {
	sources := newFakeSourceRepo()
	chunks := newFakeChunkRepo()
	index := newFakeIndex()
	ix := NewIndexer(sources, chunks, &fixedEmbedder{dim: 4}, index)

	text := strings.Repeat("Our return policy allows refunds within 30 days. ", 60)
	src, err := ix.IngestText(context.Background(), 1, "tnt_a", SourceKindFAQ, "Returns", "", text)
	if err != nil {
		t.Fatalf("IngestText() error = %v", err)
	}

	if src.Status != SourceStatusIndexed {
		t.Errorf("status = %s, want indexed", src.Status)
	}
	if src.ChunkCount < 2 {
		t.Errorf("chunk count = %d, want multiple fragments for long text", src.ChunkCount)
	}
	if src.IndexedAt == nil {
		t.Error("IndexedAt not set")
	}
	if len(index.byTenant["tnt_a"]) != src.ChunkCount {
		t.Errorf("index holds %d chunks, want %d", len(index.byTenant["tnt_a"]), src.ChunkCount)
	}
	for _, c := range chunks.chunks {
		if c.TenantID != 1 || c.TenantPublicID != "tnt_a" {
			t.Errorf("chunk missing tenant scoping: %+v", c)
		}
		if c.Dimension != 4 {
			t.Errorf("chunk dimension = %d, want 4", c.Dimension)
		}
	}
}

func TestIndexerEmptyText(t *testing.T) {
	ix := NewIndexer(newFakeSourceRepo(), newFakeChunkRepo(), &fixedEmbedder{dim: 4}, newFakeIndex())
	_, err := ix.IngestText(context.Background(), 1, "tnt_a", SourceKindText, "t", "", "   ")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIndexerEmbedFailureMarksSourceFailed(t *testing.T) {
	sources := newFakeSourceRepo()
	ix := NewIndexer(sources, newFakeChunkRepo(), &fixedEmbedder{dim: 4, fail: errors.New("boom")}, newFakeIndex())

	src, err := ix.IngestText(context.Background(), 1, "tnt_a", SourceKindText, "t", "", "some content")
	if err == nil {
		t.Fatal("expected error")
	}
	if src.Status != SourceStatusFailed {
		t.Errorf("status = %s, want failed", src.Status)
	}
	if src.FailureReason == nil {
		t.Error("failure reason not recorded")
	}
}

func TestIndexerReindexSupersedes(t *testing.T) {
	sources := newFakeSourceRepo()
	chunks := newFakeChunkRepo()
	index := newFakeIndex()
	ix := NewIndexer(sources, chunks, &fixedEmbedder{dim: 4}, index)

	src, err := ix.IngestText(context.Background(), 1, "tnt_a", SourceKindText, "t", "", "original content here")
	if err != nil {
		t.Fatal(err)
	}
	firstCount := len(chunks.chunks)

	if err := ix.Reindex(context.Background(), src, "updated content replacing the old"); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}

	if !chunks.superseded[src.ID] {
		t.Error("previous chunks were not superseded")
	}
	if len(chunks.chunks) <= firstCount {
		t.Error("reindex should append new chunk rows, not mutate old ones")
	}
	active, _ := chunks.CountActiveByTenant(context.Background(), 1)
	if active != int64(len(chunks.chunks)-firstCount) {
		t.Errorf("active chunks = %d, want only the re-ingested set", active)
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 200)
	a := SplitText(text, 500)
	b := SplitText(text, 500)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic split: %d vs %d fragments", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fragment %d differs between runs", i)
		}
		if len(a[i]) > 500 {
			t.Errorf("fragment %d exceeds size: %d chars", i, len(a[i]))
		}
	}
}

func TestSplitTextKeepsParagraphs(t *testing.T) {
	fragments := SplitText("short one\n\nshort two", 100)
	if len(fragments) != 1 {
		t.Fatalf("fragments = %d, want 1 (both paragraphs fit)", len(fragments))
	}
	if !strings.Contains(fragments[0], "short one") || !strings.Contains(fragments[0], "short two") {
		t.Error("paragraphs lost in splitting")
	}
}
