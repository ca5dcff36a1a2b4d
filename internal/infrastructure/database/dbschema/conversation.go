package dbschema

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	PublicID      string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID      uint                 `gorm:"uniqueIndex:idx_conversation_tenant_session;not null"`
	Tenant        Tenant               `gorm:"foreignKey:TenantID"`
	SessionID     string               `gorm:"type:varchar(100);uniqueIndex:idx_conversation_tenant_session;not null"`
	Channel       conversation.Channel `gorm:"type:varchar(20);not null;default:'widget'"`
	Status        conversation.Status  `gorm:"type:varchar(20);index;not null;default:'active'"`
	EscalatedAt   *time.Time           `gorm:"type:timestamp"`
	LastMessageAt *time.Time           `gorm:"type:timestamp"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// Message represents the database schema for conversation messages. The
// unique index on (conversation, request, role) is what makes turn appends
// idempotent under client retries.
type Message struct {
	BaseModel
	PublicID       string            `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint              `gorm:"index:idx_message_conversation_created;uniqueIndex:idx_message_request_role;not null"`
	Conversation   Conversation      `gorm:"foreignKey:ConversationID"`
	RequestID      *string           `gorm:"type:varchar(100);uniqueIndex:idx_message_request_role"`
	Role           conversation.Role `gorm:"type:varchar(20);uniqueIndex:idx_message_request_role;not null"`
	Content        string            `gorm:"type:text;not null"`
	Confidence     *float64          `gorm:"type:numeric(4,3)"`
	SourcesUsed    JSONStringList    `gorm:"type:jsonb"`
	Escalated      bool              `gorm:"not null;default:false"`
}

// JSONStringList is a custom type for []string stored as JSON
type JSONStringList []string

func (j JSONStringList) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONStringList) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		PublicID:      c.PublicID,
		TenantID:      c.TenantID,
		SessionID:     c.SessionID,
		Channel:       c.Channel,
		Status:        c.Status,
		EscalatedAt:   c.EscalatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:            c.ID,
		PublicID:      c.PublicID,
		TenantID:      c.TenantID,
		SessionID:     c.SessionID,
		Channel:       c.Channel,
		Status:        c.Status,
		EscalatedAt:   c.EscalatedAt,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(conversationID uint, m *conversation.Message) *Message {
	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
		},
		PublicID:       m.PublicID,
		ConversationID: conversationID,
		RequestID:      m.RequestID,
		Role:           m.Role,
		Content:        m.Content,
		Confidence:     m.Confidence,
		SourcesUsed:    JSONStringList(m.SourcesUsed),
		Escalated:      m.Escalated,
	}
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		RequestID:      m.RequestID,
		Role:           m.Role,
		Content:        m.Content,
		Confidence:     m.Confidence,
		SourcesUsed:    []string(m.SourcesUsed),
		Escalated:      m.Escalated,
		CreatedAt:      m.CreatedAt,
	}
}
