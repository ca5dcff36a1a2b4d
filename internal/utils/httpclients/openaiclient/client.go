package openaiclient

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

// Client is a thin OpenAI-compatible HTTP client for the two endpoints this
// service calls. Transport errors and 5xx responses come back typed as
// unavailable so callers can degrade; 4xx responses are internal, they mean
// our request was malformed.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func New(client *resty.Client, baseURL, apiKey string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}
	return req
}

// CreateChatCompletion calls the chat completions endpoint.
func (c *Client) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return nil, platformerrors.NewError(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
			"inference_transport", "chat completion request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp, "chat completion")
	}
	return &respBody, nil
}

// CreateEmbeddings calls the embeddings endpoint.
func (c *Client) CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequest) (*openai.EmbeddingResponse, error) {
	var respBody openai.EmbeddingResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.baseURL + "/embeddings")
	if err != nil {
		return nil, platformerrors.NewError(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
			"inference_transport", "embedding request failed", err)
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp, "embedding")
	}
	return &respBody, nil
}

func (c *Client) errorFromResponse(resp *resty.Response, operation string) error {
	typ := platformerrors.ErrorTypeInternal
	code := "inference_request_rejected"
	if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
		typ = platformerrors.ErrorTypeUnavailable
		code = "inference_upstream_error"
	}
	return platformerrors.NewError(platformerrors.LayerInfrastructure, typ, code,
		operation+" returned status "+resp.Status(), nil)
}
