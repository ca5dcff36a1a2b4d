package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

func TestRetrieveEmptyIndexIsNotAnError(t *testing.T) {
	retriever := NewRetriever(&fixedEmbedder{dim: 4}, newFakeIndex(), time.Second)

	hits, err := retriever.Retrieve(context.Background(), "tnt_a", "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %d, want none for an empty index", len(hits))
	}
}

func TestRetrieveEmbedderOutageIsUnavailable(t *testing.T) {
	embedder := &fixedEmbedder{dim: 4, fail: platformerrors.NewError(
		platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
		"inference_transport", "connection refused", errors.New("dial tcp")),
	}
	retriever := NewRetriever(embedder, newFakeIndex(), time.Second)

	_, err := retriever.Retrieve(context.Background(), "tnt_a", "anything", 5)
	if !platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
		t.Fatalf("error type = %v, want unavailable", platformerrors.TypeOf(err))
	}
	if got := platformerrors.CodeOf(err); got != CodeRetrievalUnavailable {
		t.Errorf("error code = %q, want %q", got, CodeRetrievalUnavailable)
	}
}

func TestRetrieveKeepsEmbedderMisconfigurationInternal(t *testing.T) {
	// A dimension mismatch is a configuration error. It must not come out of
	// Retrieve as unavailable, or the pipeline would hide it behind a refusal.
	embedder := &fixedEmbedder{dim: 4, fail: platformerrors.NewError(
		platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
		"embedding_dimension_mismatch", "got 4 dimensions, want 1536", nil),
	}
	retriever := NewRetriever(embedder, newFakeIndex(), time.Second)

	_, err := retriever.Retrieve(context.Background(), "tnt_a", "anything", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
		t.Fatal("misconfiguration re-typed as unavailable")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeInternal) {
		t.Errorf("error type = %v, want internal", platformerrors.TypeOf(err))
	}
	if got := platformerrors.CodeOf(err); got != "embedding_dimension_mismatch" {
		t.Errorf("error code = %q, want embedding_dimension_mismatch", got)
	}
}

func TestRetrieveIndexOutageIsUnavailable(t *testing.T) {
	index := newFakeIndex()
	index.failWith = errors.New("collection store offline")
	retriever := NewRetriever(&fixedEmbedder{dim: 4}, index, time.Second)

	_, err := retriever.Retrieve(context.Background(), "tnt_a", "anything", 5)
	if !platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
		t.Fatalf("error type = %v, want unavailable", platformerrors.TypeOf(err))
	}
}
