package chat

import (
	"context"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

// Generation is the model's reply to an assembled prompt. Certainty is the
// model's self-assessed coherence in [0,1]; clients that cannot produce one
// report 0.5.
type Generation struct {
	Answer           string
	Certainty        float64
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces an answer for an assembled prompt. Implementations must
// honour ctx cancellation and return an unavailable-typed error when the
// backing service cannot be reached, so the pipeline can degrade to a refusal
// instead of failing the request.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*Generation, error)
}

// GenerationUnavailable wraps an upstream failure in the error shape the
// pipeline degrades on.
func GenerationUnavailable(err error) *platformerrors.Error {
	return platformerrors.NewError(
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeUnavailable,
		"generation_unavailable",
		"response generation is temporarily unavailable",
		err,
	)
}
