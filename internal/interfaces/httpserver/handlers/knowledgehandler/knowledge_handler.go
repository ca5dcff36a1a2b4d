package knowledgehandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/infrastructure/metrics"
	"answerdesk/chat-api/internal/interfaces/httpserver/dto"
)

// KnowledgeHandler handles source ingestion and listing
type KnowledgeHandler struct {
	resolver *tenant.Resolver
	indexer  *knowledge.Indexer
	sources  knowledge.SourceRepository
}

// NewKnowledgeHandler creates a new KnowledgeHandler
func NewKnowledgeHandler(resolver *tenant.Resolver, indexer *knowledge.Indexer, sources knowledge.SourceRepository) *KnowledgeHandler {
	return &KnowledgeHandler{resolver: resolver, indexer: indexer, sources: sources}
}

type ingestRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	Title    string `json:"title" binding:"required"`
	URI      string `json:"uri"`
	Text     string `json:"text" binding:"required"`
}

// PostSource godoc
// @Summary Ingest a knowledge source
// @Description Chunks, embeds, and indexes the given text for the tenant's assistant
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body ingestRequest true "Source content"
// @Success 201 {object} knowledge.Source
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sources [post]
func (h *KnowledgeHandler) PostSource(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorInfo{
			Code:    "invalid_request",
			Message: err.Error(),
		}})
		return
	}

	t, err := h.resolver.ResolveTenant(c.Request.Context(), req.TenantID)
	if err != nil {
		dto.WriteError(c, err)
		return
	}

	src, err := h.indexer.IngestText(c.Request.Context(), t.ID, t.PublicID,
		knowledge.SourceKind(req.Kind), req.Title, req.URI, req.Text)
	if err != nil {
		// A failed source still exists; report it with its failure reason.
		if src != nil {
			metrics.SourcesIndexedTotal.WithLabelValues(string(src.Status)).Inc()
			c.JSON(http.StatusUnprocessableEntity, src)
			return
		}
		dto.WriteError(c, err)
		return
	}
	metrics.SourcesIndexedTotal.WithLabelValues(string(src.Status)).Inc()
	c.JSON(http.StatusCreated, src)
}

// ListSources godoc
// @Summary List a tenant's knowledge sources
// @Tags Knowledge
// @Produce json
// @Param tenant_id query string true "Tenant ID"
// @Success 200 {array} knowledge.Source
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sources [get]
func (h *KnowledgeHandler) ListSources(c *gin.Context) {
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

	sources, err := h.sources.ListByTenant(c.Request.Context(), t.ID)
	if err != nil {
		dto.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, sources)
}

type reindexRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

// ReindexSource godoc
// @Summary Re-ingest a source with fresh content
// @Description Supersedes the source's existing chunks and indexes the new text
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param source_id path string true "Source ID"
// @Param request body reindexRequest true "Replacement content"
// @Success 200 {object} knowledge.Source
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sources/{source_id}/reindex [post]
func (h *KnowledgeHandler) ReindexSource(c *gin.Context) {
	var req reindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorInfo{
			Code:    "invalid_request",
			Message: err.Error(),
		}})
		return
	}

	t, err := h.resolver.ResolveTenant(c.Request.Context(), req.TenantID)
	if err != nil {
		dto.WriteError(c, err)
		return
	}

	src, err := h.sources.FindByPublicID(c.Request.Context(), t.ID, c.Param("source_id"))
	if err != nil {
		dto.WriteError(c, err)
		return
	}

	if err := h.indexer.Reindex(c.Request.Context(), src, req.Text); err != nil {
		metrics.SourcesIndexedTotal.WithLabelValues(string(src.Status)).Inc()
		c.JSON(http.StatusUnprocessableEntity, src)
		return
	}
	metrics.SourcesIndexedTotal.WithLabelValues(string(src.Status)).Inc()
	c.JSON(http.StatusOK, src)
}
