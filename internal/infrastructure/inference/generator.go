package inference

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"answerdesk/chat-api/internal/domain/chat"
	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/utils/httpclients/openaiclient"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// defaultCertainty is used when the model omits or mangles its self
// assessment. Neutral on purpose: the other two confidence signals decide.
const defaultCertainty = 0.5

const certaintyInstruction = "\n\nAfter your answer, on a new final line, output exactly " +
	`{"certainty": <number between 0 and 1>} reflecting how confident you are ` +
	"that the answer is fully supported by the provided context."

// Generator produces answers through the configured chat completion
// endpoint. One retry on transport-level failure; a second failure surfaces
// as unavailable and the pipeline degrades.
type Generator struct {
	client *openaiclient.Client
	model  string
}

var _ chat.Generator = (*Generator)(nil)

func NewGenerator(client *openaiclient.Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Generate implements chat.Generator.
func (g *Generator) Generate(ctx context.Context, prompt chat.Prompt) (*chat.Generation, error) {
	request := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: buildMessages(prompt),
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil && platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) && ctx.Err() == nil {
		resp, err = g.client.CreateChatCompletion(ctx, request)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
			return nil, chat.GenerationUnavailable(err)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, chat.GenerationUnavailable(errors.New("completion response contained no choices"))
	}

	answer, certainty := splitCertainty(resp.Choices[0].Message.Content)
	return &chat.Generation{
		Answer:           answer,
		Certainty:        certainty,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func buildMessages(prompt chat.Prompt) []openai.ChatCompletionMessage {
	system := prompt.SystemPrompt
	if prompt.ContextText != "" {
		system += "\n\nContext:\n" + prompt.ContextText
	}
	system += certaintyInstruction

	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, turn := range prompt.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.UserText,
	})
}

// splitCertainty strips the trailing certainty JSON line from the model
// output. Anything unparsable leaves the text untouched and reports the
// neutral default.
func splitCertainty(content string) (string, float64) {
	trimmed := strings.TrimRight(content, " \n\t")
	idx := strings.LastIndex(trimmed, "\n")
	lastLine := trimmed
	if idx >= 0 {
		lastLine = trimmed[idx+1:]
	}

	var parsed struct {
		Certainty *float64 `json:"certainty"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(lastLine)), &parsed); err != nil || parsed.Certainty == nil {
		return trimmed, defaultCertainty
	}

	answer := trimmed
	if idx >= 0 {
		answer = strings.TrimRight(trimmed[:idx], " \n\t")
	} else {
		// The whole output was the certainty object; there is no answer.
		answer = ""
	}

	certainty := *parsed.Certainty
	if certainty < 0 {
		certainty = 0
	}
	if certainty > 1 {
		certainty = 1
	}
	return answer, certainty
}
