package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/router"
)

// Summarizer condenses trimmed turns into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, turns []Turn) (string, error)
}

// llmSummarizer summarizes with a simple conversational model.
type llmSummarizer struct {
	llm ai.CompletionService
}

// NewLLMSummarizer creates a provider-backed summarizer.
func NewLLMSummarizer(llm ai.CompletionService) Summarizer {
	return &llmSummarizer{llm: llm}
}

const summaryPromptFormat = `Summarize this tutoring conversation briefly, focusing on:
- Topics discussed
- Key questions asked
- Important concepts explained

Conversation:
%s

Summary:`

func (l *llmSummarizer) Summarize(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "Tutor"
		if t.Role == RoleStudent {
			label = "Student"
		}
		lines = append(lines, label+": "+t.Text)
	}

	text, err := l.llm.Complete(ctx, ai.CompletionRequest{
		Model:       router.Select(router.TaskChat, router.ComplexitySimple, ""),
		Prompt:      fmt.Sprintf(summaryPromptFormat, strings.Join(lines, "\n")),
		Temperature: 0.3,
		MaxTokens:   256,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
