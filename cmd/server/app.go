package main

import (
	"answerdesk/chat-api/internal/config"
	"answerdesk/chat-api/internal/domain/chat"
	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/domain/ratelimit"
	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/domain/usage"
	"answerdesk/chat-api/internal/infrastructure/crontab"
	"answerdesk/chat-api/internal/infrastructure/database"
	"answerdesk/chat-api/internal/infrastructure/database/repository/conversationrepo"
	"answerdesk/chat-api/internal/infrastructure/database/repository/knowledgerepo"
	"answerdesk/chat-api/internal/infrastructure/database/repository/ratelimitrepo"
	"answerdesk/chat-api/internal/infrastructure/database/repository/tenantrepo"
	"answerdesk/chat-api/internal/infrastructure/database/repository/usagerepo"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/infrastructure/inference"
	"answerdesk/chat-api/internal/infrastructure/logger"
	"answerdesk/chat-api/internal/infrastructure/vectorindex"
	"answerdesk/chat-api/internal/interfaces/httpserver"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/chathandler"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/consenthandler"
	"answerdesk/chat-api/internal/interfaces/httpserver/handlers/knowledgehandler"
	v1 "answerdesk/chat-api/internal/interfaces/httpserver/routes/v1"
	"answerdesk/chat-api/internal/utils/httpclients"
	"answerdesk/chat-api/internal/utils/httpclients/openaiclient"

	_ "answerdesk/chat-api/internal/infrastructure/database/dbschema"
)

// CreateApplication wires the whole service by hand, leaf dependencies
// first. The dbschema blank import registers every table before Migration
// runs.
func CreateApplication(cfg *config.Config) (*Application, error) {
	db, err := database.NewDB(cfg.DatabaseURL, cfg.DatabaseReadURL)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migration(db); err != nil {
			return nil, err
		}
	}
	txDB := transaction.NewDatabase(db)

	tenantRepo := tenantrepo.NewTenantGormRepository(txDB)
	consentRepo := tenantrepo.NewConsentGormRepository(txDB)
	sourceRepo := knowledgerepo.NewSourceGormRepository(txDB)
	chunkRepo := knowledgerepo.NewChunkGormRepository(txDB)
	convRepo := conversationrepo.NewConversationGormRepository(txDB)
	usageRepo := usagerepo.NewUsageGormRepository(txDB)
	counterRepo := ratelimitrepo.NewCounterGormRepository(txDB)

	vectorStore, err := vectorindex.New(cfg.VectorDataDir)
	if err != nil {
		return nil, err
	}

	inferenceClient := openaiclient.New(
		httpclients.NewClient("inference"),
		cfg.InferenceBaseURL,
		cfg.InferenceAPIKey,
	)
	embedder := inference.NewEmbedder(inferenceClient, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	generator := inference.NewGenerator(inferenceClient, cfg.GenerationModel)

	cfgStore := config.NewStore(cfg)
	log := logger.GetLogger()

	resolver := tenant.NewResolver(tenantRepo, consentRepo)
	limiter := ratelimit.NewLimiter(counterRepo)
	retriever := knowledge.NewRetriever(embedder, vectorStore, cfg.RetrievalTimeout)
	indexer := knowledge.NewIndexer(sourceRepo, chunkRepo, embedder, vectorStore)
	ledger := conversation.NewLedger(convRepo, log)
	usageService := usage.NewService(usageRepo)

	pipeline := chat.NewPipeline(cfgStore, resolver, limiter, retriever, generator, ledger, usageService, log)

	v1Route := v1.NewV1Route(
		chathandler.NewChatHandler(pipeline, resolver, ledger),
		consenthandler.NewConsentHandler(resolver),
		knowledgehandler.NewKnowledgeHandler(resolver, indexer, sourceRepo),
	)

	return &Application{
		httpServer: httpserver.NewHttpServer(v1Route, db, cfg),
		crontab:    crontab.NewCrontab(cfgStore, usageService, counterRepo),
		config:     cfg,
	}, nil
}
