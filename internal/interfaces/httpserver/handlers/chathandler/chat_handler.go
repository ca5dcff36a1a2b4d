package chathandler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"answerdesk/chat-api/internal/domain/chat"
	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/interfaces/httpserver/dto"
	middleware "answerdesk/chat-api/internal/interfaces/httpserver/middlewares"
)

// ChatHandler handles visitor chat requests
type ChatHandler struct {
	pipeline *chat.Pipeline
	resolver *tenant.Resolver
	ledger   *conversation.Ledger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(pipeline *chat.Pipeline, resolver *tenant.Resolver, ledger *conversation.Ledger) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, resolver: resolver, ledger: ledger}
}

type chatRequest struct {
	TenantID  string `json:"tenant_id" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	Channel   string `json:"channel"`
	Message   string `json:"message" binding:"required"`
	// RequestID makes duplicate submissions idempotent. Widgets send one per
	// message; when absent the server's request id stands in.
	RequestID string `json:"request_id"`
}

// PostChat godoc
// @Summary Process one visitor message
// @Description Runs the message through retrieval, generation, and scoring, returning the answer or a refusal
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body chatRequest true "Chat message"
// @Success 200 {object} chat.Response
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) PostChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorInfo{
			Code:    "invalid_request",
			Message: err.Error(),
		}})
		return
	}

	channel := conversation.Channel(req.Channel)
	if req.Channel == "" {
		channel = conversation.ChannelWidget
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = middleware.RequestIDFromContext(c)
	}

	resp, err := h.pipeline.Handle(c.Request.Context(), &chat.Request{
		TenantID:  req.TenantID,
		SessionID: req.SessionID,
		RequestID: requestID,
		Channel:   channel,
		Message:   req.Message,
	})
	if err != nil {
		dto.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTranscript godoc
// @Summary Fetch a session's conversation transcript
// @Description Returns the conversation and its messages, oldest first, for widget reloads
// @Tags Chat
// @Produce json
// @Param session_id path string true "Session ID"
// @Param tenant_id query string true "Tenant ID"
// @Param limit query int false "Maximum number of messages"
// @Success 200 {object} transcriptResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{session_id} [get]
func (h *ChatHandler) GetTranscript(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorInfo{
			Code:    "missing_tenant",
			Message: "tenant_id query parameter is required",
		}})
		return
	}

	t, err := h.resolver.ResolveTenant(c.Request.Context(), tenantID)
	if err != nil {
		dto.WriteError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	conv, messages, err := h.ledger.Transcript(c.Request.Context(), t.ID, c.Param("session_id"), limit)
	if err != nil {
		dto.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcriptResponse{
		Conversation: conv,
		Messages:     messages,
	})
}

type transcriptResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Messages     []*conversation.Message    `json:"messages"`
}
