package conversation

import (
	"context"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusEscalated Status = "escalated"
)

// Channel is the visitor surface a conversation arrived through.
type Channel string

const (
	ChannelWidget Channel = "widget"
	ChannelAPI    Channel = "api"
	ChannelAdmin  Channel = "admin"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWidget, ChannelAPI, ChannelAdmin:
		return true
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Conversation is a session scoped to one tenant and one visitor channel.
// Created on first message, updated on each turn, never deleted automatically.
// The escalated status is a one-way transition.
type Conversation struct {
	ID            uint       `json:"-"`
	PublicID      string     `json:"id"`
	TenantID      uint       `json:"-"`
	SessionID     string     `json:"session_id"`
	Channel       Channel    `json:"channel"`
	Status        Status     `json:"status"`
	EscalatedAt   *time.Time `json:"escalated_at,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Message is one turn in a conversation. Append-only: confidence and the
// escalation flag are fixed at decision time and never revised.
type Message struct {
	ID             uint      `json:"-"`
	PublicID       string    `json:"id"`
	ConversationID uint      `json:"-"`
	RequestID      *string   `json:"request_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Confidence     *float64  `json:"confidence,omitempty"`
	SourcesUsed    []string  `json:"sources_used,omitempty"`
	Escalated      bool      `json:"escalated"`
	CreatedAt      time.Time `json:"created_at"`
}

// Turn pairs the user message and assistant reply appended together. The
// ledger writes both atomically: a half-written turn must never be visible.
type Turn struct {
	TenantID    uint
	SessionID   string
	Channel     Channel
	RequestID   string
	UserText    string
	Assistant   Message
	Escalated   bool
}

type Repository interface {
	// FindBySession returns the conversation for (tenantID, sessionID) or a
	// not-found error.
	FindBySession(ctx context.Context, tenantID uint, sessionID string) (*Conversation, error)
	// AppendTurn finds or creates the session's conversation, appends the
	// user and assistant messages in one transaction, and applies the
	// escalation transition. When requestID matches an already-appended turn
	// the stored turn is returned without writing (idempotent replay).
	AppendTurn(ctx context.Context, turn *Turn) (*Conversation, error)
	// ListMessages returns messages of a conversation ordered oldest first.
	ListMessages(ctx context.Context, conversationID uint, limit int) ([]*Message, error)
}
