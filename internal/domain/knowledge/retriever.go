package knowledge

import (
	"context"
	"time"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

// CodeRetrievalUnavailable marks retrieval infrastructure failures. The
// pipeline degrades these to a refusal instead of surfacing them raw.
const CodeRetrievalUnavailable = "retrieval_unavailable"

// Retriever embeds a query and runs tenant-scoped nearest-neighbor search.
type Retriever struct {
	embedder Embedder
	index    VectorIndex
	timeout  time.Duration
}

func NewRetriever(embedder Embedder, index VectorIndex, timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Retriever{embedder: embedder, index: index, timeout: timeout}
}

// Retrieve returns up to topK chunks of tenantID ranked by similarity to
// query. An empty result means no matching content and is not an error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, topK int) ([]ScoredChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
			return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
				CodeRetrievalUnavailable, "embed query", err)
		}
		// A dimension mismatch or other misconfiguration keeps its class so
		// it surfaces as an error instead of degrading to a refusal.
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "embed query")
	}

	hits, err := r.index.Search(ctx, tenantID, vector, topK)
	if err != nil {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			CodeRetrievalUnavailable, "vector search", err)
	}
	return hits, nil
}
