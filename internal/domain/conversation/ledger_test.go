package conversation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type fakeRepo struct {
	conv     *Conversation
	messages []*Message
}

func (f *fakeRepo) FindBySession(_ context.Context, tenantID uint, sessionID string) (*Conversation, error) {
	if f.conv == nil || f.conv.TenantID != tenantID || f.conv.SessionID != sessionID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.conv, nil
}

func (f *fakeRepo) AppendTurn(_ context.Context, _ *Turn) (*Conversation, error) {
	return f.conv, nil
}

func (f *fakeRepo) ListMessages(_ context.Context, _ uint, limit int) ([]*Message, error) {
	if limit > 0 && len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func TestHistoryKeepsOnlyVisitorExchange(t *testing.T) {
	repo := &fakeRepo{
		conv: &Conversation{ID: 1, TenantID: 7, SessionID: "sess_a"},
		messages: []*Message{
			{Role: RoleSystem, Content: "internal annotation"},
			{Role: RoleUser, Content: "How do I reset my password?"},
			{Role: RoleAssistant, Content: "Use the reset link on the login page."},
		},
	}
	ledger := NewLedger(repo, zerolog.Nop())

	turns, err := ledger.History(context.Background(), 7, "sess_a", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2 (system turns excluded)", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("turn roles = %v/%v, want user then assistant", turns[0].Role, turns[1].Role)
	}
	if turns[1].Content != "Use the reset link on the login page." {
		t.Errorf("assistant content = %q", turns[1].Content)
	}
}

func TestHistoryEmptyForNewSession(t *testing.T) {
	ledger := NewLedger(&fakeRepo{}, zerolog.Nop())

	turns, err := ledger.History(context.Background(), 7, "sess_new", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("turns = %d, want none for a session with no conversation", len(turns))
	}
}
