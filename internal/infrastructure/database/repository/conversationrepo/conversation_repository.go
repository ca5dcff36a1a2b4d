package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/functional"
	"answerdesk/chat-api/internal/utils/idgen"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.Repository {
	return &ConversationGormRepository{db}
}

// FindBySession implements conversation.Repository.
func (repo *ConversationGormRepository) FindBySession(ctx context.Context, tenantID uint, sessionID string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// AppendTurn implements conversation.Repository. The whole turn runs in one
// transaction: find-or-create the conversation, replay-check the request id,
// write both messages, and apply the escalation transition. Partial turns are
// never visible to readers.
func (repo *ConversationGormRepository) AppendTurn(ctx context.Context, turn *conversation.Turn) (*conversation.Conversation, error) {
	var result *conversation.Conversation

	err := repo.db.RunInTx(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)

		conv, err := repo.findOrCreate(ctx, turn)
		if err != nil {
			return err
		}

		if turn.RequestID != "" {
			var existing dbschema.Message
			err := tx.Where("conversation_id = ? AND request_id = ? AND role = ?",
				conv.ID, turn.RequestID, conversation.RoleAssistant).
				First(&existing).Error
			if err == nil {
				// Replay: the turn was already appended.
				result = conv.EtoD()
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to check turn replay")
			}
		}

		now := time.Now().UTC()

		userMsg := &dbschema.Message{
			PublicID:       idgen.MustGenerateSecureID("msg", 24),
			ConversationID: conv.ID,
			Role:           conversation.RoleUser,
			Content:        turn.UserText,
		}
		if turn.RequestID != "" {
			userMsg.RequestID = &turn.RequestID
		}
		if err := tx.Create(userMsg).Error; err != nil {
			return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to append user message")
		}

		assistantMsg := dbschema.NewSchemaMessage(conv.ID, &turn.Assistant)
		assistantMsg.PublicID = idgen.MustGenerateSecureID("msg", 24)
		if turn.RequestID != "" {
			assistantMsg.RequestID = &turn.RequestID
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to append assistant message")
		}

		updates := map[string]interface{}{"last_message_at": now}
		if turn.Escalated && conv.Status == conversation.StatusActive {
			updates["status"] = conversation.StatusEscalated
			updates["escalated_at"] = now
			conv.Status = conversation.StatusEscalated
			conv.EscalatedAt = &now
		}
		if err := tx.Model(&dbschema.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error; err != nil {
			return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to update conversation")
		}
		conv.LastMessageAt = &now

		result = conv.EtoD()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findOrCreate loads the session's conversation or creates it. The unique
// index on (tenant_id, session_id) resolves the create race between two
// first messages; the loser retries the read.
func (repo *ConversationGormRepository) findOrCreate(ctx context.Context, turn *conversation.Turn) (*dbschema.Conversation, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx)

	var conv dbschema.Conversation
	err := tx.Where("tenant_id = ? AND session_id = ?", turn.TenantID, turn.SessionID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to find conversation")
	}

	conv = dbschema.Conversation{
		PublicID:  idgen.MustGenerateSecureID("conv", 24),
		TenantID:  turn.TenantID,
		SessionID: turn.SessionID,
		Channel:   turn.Channel,
		Status:    conversation.StatusActive,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "session_id"}},
		DoNothing: true,
	}).Create(&conv).Error
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create conversation")
	}
	if conv.ID == 0 {
		// Lost the race; the row exists now.
		err = tx.Where("tenant_id = ? AND session_id = ?", turn.TenantID, turn.SessionID).
			First(&conv).Error
		if err != nil {
			return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to reload conversation")
		}
	}
	return &conv, nil
}

// ListMessages implements conversation.Repository.
func (repo *ConversationGormRepository) ListMessages(ctx context.Context, conversationID uint, limit int) ([]*conversation.Message, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		// Keep the most recent messages while preserving oldest-first order.
		var count int64
		if err := repo.db.GetTx(ctx).WithContext(ctx).
			Model(&dbschema.Message{}).
			Where("conversation_id = ?", conversationID).
			Count(&count).Error; err != nil {
			return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to count messages")
		}
		if count > int64(limit) {
			tx = tx.Offset(int(count) - limit)
		}
	}

	var rows []*dbschema.Message
	if err := tx.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to list messages")
	}
	return functional.Map(rows, func(row *dbschema.Message) *conversation.Message {
		return row.EtoD()
	}), nil
}
