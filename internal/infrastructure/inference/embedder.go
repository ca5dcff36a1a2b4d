package inference

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/utils/httpclients/openaiclient"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// Embedder computes embeddings through the configured OpenAI-compatible
// endpoint. The dimension is pinned at construction; a response with any
// other dimension is a deployment misconfiguration, not a transient fault.
type Embedder struct {
	client    *openaiclient.Client
	model     string
	dimension int
}

var _ knowledge.Embedder = (*Embedder)(nil)

func NewEmbedder(client *openaiclient.Client, model string, dimension int) *Embedder {
	return &Embedder{client: client, model: model, dimension: dimension}
}

// Embed implements knowledge.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, platformerrors.NewError(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
			"embedding_empty_response", "embedding response contained no vectors", nil)
	}
	vector := resp.Data[0].Embedding
	if len(vector) != e.dimension {
		return nil, platformerrors.NewError(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"embedding_dimension_mismatch",
			fmt.Sprintf("embedding model %s returned %d dimensions, expected %d", e.model, len(vector), e.dimension),
			nil)
	}
	return vector, nil
}
