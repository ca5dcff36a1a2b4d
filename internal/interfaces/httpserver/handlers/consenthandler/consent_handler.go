package consenthandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/interfaces/httpserver/dto"
)

// ConsentHandler records visitor consent for chat sessions
type ConsentHandler struct {
	resolver *tenant.Resolver
}

// NewConsentHandler creates a new ConsentHandler
func NewConsentHandler(resolver *tenant.Resolver) *ConsentHandler {
	return &ConsentHandler{resolver: resolver}
}

type consentRequest struct {
	TenantID     string `json:"tenant_id" binding:"required"`
	SessionID    string `json:"session_id" binding:"required"`
	Accepted     bool   `json:"accepted"`
	TermsVersion string `json:"terms_version" binding:"required"`
}

// PostConsent godoc
// @Summary Record a session's consent decision
// @Description Stores the visitor's acceptance of the AI-interaction terms; chatting requires it
// @Tags Consent
// @Accept json
// @Produce json
// @Param request body consentRequest true "Consent decision"
// @Success 201 {object} tenant.Consent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/consent [post]
func (h *ConsentHandler) PostConsent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorInfo{
			Code:    "invalid_request",
			Message: err.Error(),
		}})
		return
	}

	consent := &tenant.Consent{
		SessionID:    req.SessionID,
		Accepted:     req.Accepted,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		TermsVersion: req.TermsVersion,
	}
	if err := h.resolver.RecordConsent(c.Request.Context(), req.TenantID, consent); err != nil {
		dto.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consent)
}
