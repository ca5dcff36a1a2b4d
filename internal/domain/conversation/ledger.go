package conversation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"answerdesk/chat-api/internal/utils/functional"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// HistoryTurn is one prior exchange handed to the response generator.
type HistoryTurn struct {
	Role    Role
	Content string
}

// Ledger is the terminal sink of the chat pipeline. It persists each
// exchange and the decision outcome. Persistence failures after a generated
// answer are reported to the caller as errors but the caller is expected to
// log-and-continue: the visitor-facing answer outranks telemetry durability.
type Ledger struct {
	repo Repository
	log  zerolog.Logger
}

func NewLedger(repo Repository, log zerolog.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Record appends a completed turn. The repository guarantees atomicity and
// idempotency per request id.
func (l *Ledger) Record(ctx context.Context, turn *Turn) (*Conversation, error) {
	conv, err := l.repo.AppendTurn(ctx, turn)
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "append turn")
	}
	return conv, nil
}

// History returns up to window prior turns for the session, oldest first,
// formatted for the generator. A session with no conversation yet yields an
// empty history.
func (l *Ledger) History(ctx context.Context, tenantID uint, sessionID string, window int) ([]HistoryTurn, error) {
	conv, err := l.repo.FindBySession(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "find conversation")
	}

	messages, err := l.repo.ListMessages(ctx, conv.ID, window)
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "list messages")
	}

	// System turns stay out of the prompt; only the visitor exchange matters.
	exchange := functional.Filter(messages, func(m *Message) bool {
		return m.Role == RoleUser || m.Role == RoleAssistant
	})
	return functional.Map(exchange, func(m *Message) HistoryTurn {
		return HistoryTurn{Role: m.Role, Content: m.Content}
	}), nil
}

// Transcript returns the conversation and its messages for a session, for
// widget reloads. Not-found propagates so handlers can 404.
func (l *Ledger) Transcript(ctx context.Context, tenantID uint, sessionID string, limit int) (*Conversation, []*Message, error) {
	conv, err := l.repo.FindBySession(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"conversation_not_found", "no conversation for session", err)
		}
		return nil, nil, platformerrors.AsError(platformerrors.LayerDomain, err, "find conversation")
	}
	messages, err := l.repo.ListMessages(ctx, conv.ID, limit)
	if err != nil {
		return nil, nil, platformerrors.AsError(platformerrors.LayerDomain, err, "list messages")
	}
	return conv, messages, nil
}
