package chat

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/domain/knowledge"
)

func scored(source, content string, similarity float64, createdAt time.Time) knowledge.ScoredChunk {
	return knowledge.ScoredChunk{
		Chunk: knowledge.EmbeddingChunk{
			SourcePublicID: source,
			Content:        content,
			CreatedAt:      createdAt,
		},
		Similarity: similarity,
	}
}

func TestAssembleOrdersBySimilarity(t *testing.T) {
	now := time.Now()
	chunks := []knowledge.ScoredChunk{
		scored("src_a", "lowest", 0.2, now),
		scored("src_b", "highest", 0.9, now),
		scored("src_c", "middle", 0.5, now),
	}

	prompt := Assemble(chunks, nil, "question", AssemblerSettings{ContextBudget: 10000})

	first := strings.Index(prompt.ContextText, "highest")
	second := strings.Index(prompt.ContextText, "middle")
	third := strings.Index(prompt.ContextText, "lowest")
	if !(first < second && second < third) {
		t.Errorf("chunks not ordered by similarity desc:\n%s", prompt.ContextText)
	}
	if !reflect.DeepEqual(prompt.SourcesUsed, []string{"src_b", "src_c", "src_a"}) {
		t.Errorf("sources used = %v", prompt.SourcesUsed)
	}
}

func TestAssembleRecencyBreaksTies(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)
	chunks := []knowledge.ScoredChunk{
		scored("src_old", "older content", 0.7, old),
		scored("src_new", "newer content", 0.7, recent),
	}

	prompt := Assemble(chunks, nil, "question", AssemblerSettings{ContextBudget: 10000})

	if strings.Index(prompt.ContextText, "newer") > strings.Index(prompt.ContextText, "older") {
		t.Errorf("equal-similarity chunks should prefer the newer one:\n%s", prompt.ContextText)
	}
}

func TestAssembleRespectsBudget(t *testing.T) {
	now := time.Now()
	big := strings.Repeat("x", 500)
	small := "short chunk"
	chunks := []knowledge.ScoredChunk{
		scored("src_big", big, 0.9, now),
		scored("src_small", small, 0.8, now),
	}

	// Budget fits only the small chunk; the bigger, higher-ranked one is
	// skipped whole rather than truncated.
	prompt := Assemble(chunks, nil, "question", AssemblerSettings{ContextBudget: 100})

	if strings.Contains(prompt.ContextText, "xxxx") {
		t.Errorf("oversized chunk should be skipped, got:\n%s", prompt.ContextText)
	}
	if !strings.Contains(prompt.ContextText, small) {
		t.Errorf("smaller chunk should be included, got:\n%s", prompt.ContextText)
	}
	if !reflect.DeepEqual(prompt.SourcesUsed, []string{"src_small"}) {
		t.Errorf("sources used = %v", prompt.SourcesUsed)
	}
}

func TestAssembleDeduplicatesSources(t *testing.T) {
	now := time.Now()
	chunks := []knowledge.ScoredChunk{
		scored("src_a", "first part", 0.9, now),
		scored("src_a", "second part", 0.8, now),
	}

	prompt := Assemble(chunks, nil, "question", AssemblerSettings{ContextBudget: 10000})

	if !reflect.DeepEqual(prompt.SourcesUsed, []string{"src_a"}) {
		t.Errorf("sources used = %v, want single src_a", prompt.SourcesUsed)
	}
}

func TestAssembleEmptyChunks(t *testing.T) {
	prompt := Assemble(nil, nil, "question", AssemblerSettings{ContextBudget: 1000})
	if prompt.ContextText != "" {
		t.Errorf("context with no chunks = %q, want empty", prompt.ContextText)
	}
	if len(prompt.SourcesUsed) != 0 {
		t.Errorf("sources used = %v, want none", prompt.SourcesUsed)
	}
}

func TestAssembleHistoryWindow(t *testing.T) {
	history := []conversation.HistoryTurn{
		{Role: conversation.RoleUser, Content: "first"},
		{Role: conversation.RoleAssistant, Content: "second"},
		{Role: conversation.RoleUser, Content: "third"},
		{Role: conversation.RoleAssistant, Content: "fourth"},
	}

	prompt := Assemble(nil, history, "question", AssemblerSettings{ContextBudget: 1000, HistoryWindow: 2})

	if len(prompt.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(prompt.History))
	}
	if prompt.History[0].Content != "third" || prompt.History[1].Content != "fourth" {
		t.Errorf("history window should keep the most recent messages, got %+v", prompt.History)
	}
}
