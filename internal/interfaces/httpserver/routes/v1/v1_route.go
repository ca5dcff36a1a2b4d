package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"answerdesk/chat-api/internal/config"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/chathandler"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/consenthandler"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/knowledgehandler"
)

type V1Route struct {
	chat      *chathandler.ChatHandler
	consent   *consenthandler.ConsentHandler
	knowledge *knowledgehandler.KnowledgeHandler
}

func NewV1Route(
	chat *chathandler.ChatHandler,
	consent *consenthandler.ConsentHandler,
	knowledge *knowledgehandler.KnowledgeHandler,
) *V1Route {
	return &V1Route{
		chat,
		consent,
		knowledge,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)

	v1Router.POST("/chat", v1Route.chat.PostChat)
	v1Router.GET("/conversations/:session_id", v1Route.chat.GetTranscript)
	v1Router.POST("/consent", v1Route.consent.PostConsent)
	v1Router.POST("/sources", v1Route.knowledge.PostSource)
	v1Router.GET("/sources", v1Route.knowledge.ListSources)
	v1Router.POST("/sources/:source_id/reindex", v1Route.knowledge.ReindexSource)
}

// GetVersion godoc
// @Summary Service version
// @Tags Meta
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/version [get]
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": config.Version})
}
