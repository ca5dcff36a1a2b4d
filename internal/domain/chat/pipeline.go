package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"answerdesk/chat-api/internal/config"
	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/domain/ratelimit"
	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/domain/usage"
	"answerdesk/chat-api/internal/infrastructure/metrics"
	"answerdesk/chat-api/internal/infrastructure/observability"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// Request is one inbound visitor message.
type Request struct {
	TenantID  string
	SessionID string
	RequestID string
	Channel   conversation.Channel
	Message   string
}

// Response is the pipeline's reply. Answer is the delivered text, which for a
// refusal outcome is the fixed refusal message, never the discarded
// generation.
type Response struct {
	ConversationID string   `json:"conversation_id"`
	SessionID      string   `json:"session_id"`
	Answer         string   `json:"answer"`
	Outcome        Outcome  `json:"outcome"`
	Confidence     float64  `json:"confidence"`
	SourcesUsed    []string `json:"sources_used,omitempty"`
	Escalated      bool     `json:"escalated"`
}

// Pipeline runs a visitor message through tenant resolution, rate limiting,
// retrieval, assembly, generation, scoring, and the escalation decision, then
// records the turn. Stages fail in two modes: pre-generation errors abort the
// request, while retrieval and generation outages degrade to a refusal so the
// visitor always gets a reply once admitted.
type Pipeline struct {
	cfg       *config.Store
	resolver  *tenant.Resolver
	limiter   *ratelimit.Limiter
	retriever *knowledge.Retriever
	generator Generator
	ledger    *conversation.Ledger
	usage     *usage.Service
	log       zerolog.Logger
}

func NewPipeline(
	cfg *config.Store,
	resolver *tenant.Resolver,
	limiter *ratelimit.Limiter,
	retriever *knowledge.Retriever,
	generator Generator,
	ledger *conversation.Ledger,
	usageService *usage.Service,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		resolver:  resolver,
		limiter:   limiter,
		retriever: retriever,
		generator: generator,
		ledger:    ledger,
		usage:     usageService,
		log:       log,
	}
}

// Handle processes one visitor message end to end.
func (p *Pipeline) Handle(ctx context.Context, req *Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"empty_message", "message must not be empty", nil)
	}
	if !req.Channel.Valid() {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid_channel", "channel must be widget, api, or admin", nil)
	}

	t, err := p.resolver.Resolve(ctx, req.TenantID, req.SessionID)
	if err != nil {
		return nil, err
	}

	cfg := p.cfg.Get()
	plan := cfg.Plans.Resolve(t.Plan, cfg)

	if err := p.limiter.Allow(ctx, t.PublicID, plan.RateLimitPerMinute, plan.RateLimitPerDay); err != nil {
		var rlErr *ratelimit.Error
		if errors.As(err, &rlErr) {
			metrics.RateLimitRejectionsTotal.WithLabelValues(string(rlErr.Scope)).Inc()
			return nil, err
		}
		// Counter store outage: fail open. Quota drift for one window beats
		// refusing every tenant.
		p.log.Error().Err(err).Str("tenant", t.PublicID).Msg("rate limit store unavailable, failing open")
	}

	retrievalCtx, retrievalSpan := observability.StartSpan(ctx, cfg.ServiceName, "chat.retrieval")
	retrievalStart := time.Now()
	chunks, err := p.retriever.Retrieve(retrievalCtx, t.PublicID, req.Message, cfg.RetrievalTopK)
	metrics.RetrievalDuration.Observe(time.Since(retrievalStart).Seconds())
	observability.RecordError(retrievalCtx, err)
	retrievalSpan.End()
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) {
			p.log.Warn().Err(err).Str("tenant", t.PublicID).Msg("retrieval unavailable, degrading to refusal")
			metrics.ChatDegradedTotal.WithLabelValues("retrieval").Inc()
			return p.finishDegraded(ctx, req, t, plan)
		}
		return nil, err
	}

	history, err := p.ledger.History(ctx, t.ID, req.SessionID, plan.HistoryWindow)
	if err != nil {
		// History is an enrichment, not a gate: answer from context alone.
		p.log.Warn().Err(err).Str("tenant", t.PublicID).Msg("history lookup failed, answering without it")
		history = nil
	}

	prompt := Assemble(chunks, history, req.Message, AssemblerSettings{
		SystemPrompt:  plan.SystemPrompt,
		ContextBudget: plan.ContextBudgetChars,
		HistoryWindow: plan.HistoryWindow,
	})

	genCtx, cancel := context.WithTimeout(ctx, cfg.GenerationTimeout)
	defer cancel()
	genCtx, genSpan := observability.StartSpan(genCtx, cfg.ServiceName, "chat.generation")
	generationStart := time.Now()
	gen, err := p.generator.Generate(genCtx, prompt)
	metrics.GenerationDuration.Observe(time.Since(generationStart).Seconds())
	observability.RecordError(genCtx, err)
	genSpan.End()
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			p.log.Warn().Err(err).Str("tenant", t.PublicID).Msg("generation unavailable, degrading to refusal")
			metrics.ChatDegradedTotal.WithLabelValues("generation").Inc()
			return p.finishDegraded(ctx, req, t, plan)
		}
		return nil, err
	}

	similarity := meanSimilarity(chunks)
	coverage := SourceCoverage(gen.Answer, prompt.ContextText)
	confidence := Score(similarity, coverage, gen.Certainty)
	outcome := Decide(confidence, Thresholds{
		Refuse:   *plan.RefuseThreshold,
		Escalate: *plan.EscalateThreshold,
	})

	answer := gen.Answer
	sources := prompt.SourcesUsed
	if outcome == OutcomeRefuse {
		answer = RefusalMessage
		sources = nil
	}

	observability.AddSpanAttributes(ctx,
		attribute.String("chat.outcome", string(outcome)),
		attribute.Float64("chat.confidence", confidence),
	)
	metrics.ChatOutcomesTotal.WithLabelValues(string(t.Plan), string(outcome)).Inc()
	metrics.ChatConfidence.WithLabelValues(string(t.Plan)).Observe(confidence)
	metrics.GenerationTokensTotal.WithLabelValues(gen.Model, "prompt").Add(float64(gen.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(gen.Model, "completion").Add(float64(gen.CompletionTokens))

	resp := &Response{
		SessionID:   req.SessionID,
		Answer:      answer,
		Outcome:     outcome,
		Confidence:  confidence,
		SourcesUsed: sources,
		Escalated:   outcome != OutcomeAnswer,
	}

	conv := p.record(ctx, req, t, resp)
	if conv != nil {
		resp.ConversationID = conv.PublicID
		p.recordUsage(ctx, t, conv, req.RequestID, gen)
	} else {
		p.recordUsage(ctx, t, nil, req.RequestID, gen)
	}
	return resp, nil
}

// finishDegraded produces the refusal reply used when retrieval or generation
// is down. Confidence is zero and nothing counts against the knowledge base.
func (p *Pipeline) finishDegraded(ctx context.Context, req *Request, t *tenant.Tenant, plan config.PlanSettings) (*Response, error) {
	resp := &Response{
		SessionID:  req.SessionID,
		Answer:     RefusalMessage,
		Outcome:    OutcomeRefuse,
		Confidence: 0,
		Escalated:  true,
	}
	metrics.ChatOutcomesTotal.WithLabelValues(string(t.Plan), string(OutcomeRefuse)).Inc()
	if conv := p.record(ctx, req, t, resp); conv != nil {
		resp.ConversationID = conv.PublicID
	}
	return resp, nil
}

// record appends the turn to the ledger. Failures are logged and counted but
// never surfaced: the answer has already been produced and belongs to the
// visitor.
func (p *Pipeline) record(ctx context.Context, req *Request, t *tenant.Tenant, resp *Response) *conversation.Conversation {
	confidence := resp.Confidence
	turn := &conversation.Turn{
		TenantID:  t.ID,
		SessionID: req.SessionID,
		Channel:   req.Channel,
		RequestID: req.RequestID,
		UserText:  req.Message,
		Assistant: conversation.Message{
			Role:        conversation.RoleAssistant,
			Content:     resp.Answer,
			Confidence:  &confidence,
			SourcesUsed: resp.SourcesUsed,
			Escalated:   resp.Escalated,
		},
		Escalated: resp.Escalated,
	}
	ledgerCtx, ledgerSpan := observability.StartSpan(ctx, p.cfg.Get().ServiceName, "chat.ledger")
	conv, err := p.ledger.Record(ledgerCtx, turn)
	observability.RecordError(ledgerCtx, err)
	ledgerSpan.End()
	if err != nil {
		metrics.LedgerFailuresTotal.Inc()
		p.log.Error().Err(err).
			Str("tenant", t.PublicID).
			Str("session", req.SessionID).
			Str("trace_id", observability.GetTraceID(ctx)).
			Msg("turn not persisted, answer delivered anyway")
		return nil
	}
	return conv
}

func (p *Pipeline) recordUsage(ctx context.Context, t *tenant.Tenant, conv *conversation.Conversation, requestID string, gen *Generation) {
	row := &usage.UsageLog{
		TenantID:         t.ID,
		Model:            gen.Model,
		Endpoint:         "chat",
		PromptTokens:     gen.PromptTokens,
		CompletionTokens: gen.CompletionTokens,
	}
	if conv != nil {
		row.ConversationID = &conv.ID
	}
	if requestID != "" {
		row.RequestID = &requestID
	}
	if err := p.usage.Record(ctx, row); err != nil {
		p.log.Error().Err(err).Str("tenant", t.PublicID).Msg("usage row not persisted")
	}
}

// meanSimilarity averages the retrieval scores, clamped per chunk. No chunks
// means no retrieval signal at all.
func meanSimilarity(chunks []knowledge.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range chunks {
		sum += clamp01(c.Similarity)
	}
	return sum / float64(len(chunks))
}
