package chat

import (
	"fmt"
	"sort"
	"strings"

	"answerdesk/chat-api/internal/domain/conversation"
	"answerdesk/chat-api/internal/domain/knowledge"
	"answerdesk/chat-api/internal/utils/functional"
)

// Prompt is the fully assembled generation input: the plan's system prompt,
// the context block built from retrieved chunks, a bounded history window, and
// the user's question.
type Prompt struct {
	SystemPrompt string
	ContextText  string
	History      []conversation.HistoryTurn
	UserText     string
	SourcesUsed  []string
}

// AssemblerSettings are the per-request knobs resolved from the tenant's plan.
type AssemblerSettings struct {
	SystemPrompt    string
	ContextBudget   int
	HistoryWindow   int
	MaxHistoryChars int
}

// Assemble builds the prompt from scored chunks and conversation history.
// Chunks are taken highest-similarity first, newer chunk breaking ties, and a
// chunk is included only if it fits the remaining character budget whole;
// chunks are never split. SourcesUsed lists the distinct source IDs of the
// chunks that made it in, in inclusion order.
func Assemble(chunks []knowledge.ScoredChunk, history []conversation.HistoryTurn, userText string, settings AssemblerSettings) Prompt {
	ordered := make([]knowledge.ScoredChunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Similarity != ordered[j].Similarity {
			return ordered[i].Similarity > ordered[j].Similarity
		}
		return ordered[i].Chunk.CreatedAt.After(ordered[j].Chunk.CreatedAt)
	})

	var b strings.Builder
	remaining := settings.ContextBudget
	var sources []string
	for _, sc := range ordered {
		block := fmt.Sprintf("[source:%s]\n%s\n\n", sc.Chunk.SourcePublicID, sc.Chunk.Content)
		if len(block) > remaining {
			continue
		}
		b.WriteString(block)
		remaining -= len(block)
		sources = append(sources, sc.Chunk.SourcePublicID)
	}

	window := history
	if settings.HistoryWindow > 0 && len(window) > settings.HistoryWindow {
		window = window[len(window)-settings.HistoryWindow:]
	}
	if settings.MaxHistoryChars > 0 {
		window = trimHistoryChars(window, settings.MaxHistoryChars)
	}

	return Prompt{
		SystemPrompt: settings.SystemPrompt,
		ContextText:  strings.TrimRight(b.String(), "\n"),
		History:      window,
		UserText:     userText,
		SourcesUsed:  functional.Unique(sources),
	}
}

// trimHistoryChars drops the oldest messages until the window fits the
// character cap, keeping the most recent message even if it alone exceeds it.
func trimHistoryChars(turns []conversation.HistoryTurn, maxChars int) []conversation.HistoryTurn {
	total := 0
	for _, t := range turns {
		total += len(t.Content)
	}
	start := 0
	for total > maxChars && start < len(turns)-1 {
		total -= len(turns[start].Content)
		start++
	}
	return turns[start:]
}
