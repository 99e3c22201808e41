package tutor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/router"
)

// Intent is the classified purpose of a student message.
type Intent string

const (
	IntentQuestion Intent = "question"
	IntentHelp     Intent = "help"
	IntentExplain  Intent = "explain"
	IntentQuiz     Intent = "quiz"
	IntentGreeting Intent = "greeting"
	IntentClarify  Intent = "clarify"
	IntentOther    Intent = "other"
)

var validIntents = map[Intent]struct{}{
	IntentQuestion: {},
	IntentHelp:     {},
	IntentExplain:  {},
	IntentQuiz:     {},
	IntentGreeting: {},
	IntentClarify:  {},
	IntentOther:    {},
}

// IntentClassifier classifies a student message with a single routing-model
// call, falling back to keyword matching when the provider is unavailable.
// An out-of-vocabulary label defaults to IntentQuestion.
type IntentClassifier struct {
	llm ai.CompletionService
}

// NewIntentClassifier creates a classifier over the completion service.
func NewIntentClassifier(llm ai.CompletionService) *IntentClassifier {
	return &IntentClassifier{llm: llm}
}

// Classify determines the intent of the message. It is total: every failure
// path yields a usable intent.
func (c *IntentClassifier) Classify(ctx context.Context, message, subject string) Intent {
	if c.llm == nil || !c.llm.Ready() {
		return classifyByKeywords(message)
	}

	raw, err := c.llm.Complete(ctx, ai.CompletionRequest{
		Model:       router.Select(router.TaskClassify, router.ComplexitySimple, subject),
		Prompt:      intentDetectPrompt(message, subject),
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		slog.Warn("intent classification failed, using keyword fallback", "error", err)
		return classifyByKeywords(message)
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validIntents[intent]; !ok {
		slog.Debug("out-of-vocabulary intent label, defaulting to question", "label", raw)
		return IntentQuestion
	}
	return intent
}

var (
	greetingKeywords = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "namaste"}
	quizKeywords     = []string{"quiz", "test me", "practice questions", "practise questions"}
	explainKeywords  = []string{"explain", "what does", "what do you mean"}
	helpKeywords     = []string{"help", "stuck", "homework", "solve"}
)

// classifyByKeywords is the rule-based fallback used when the routing model
// cannot be reached.
func classifyByKeywords(message string) Intent {
	m := strings.ToLower(strings.TrimSpace(message))

	for _, kw := range greetingKeywords {
		if m == kw || strings.HasPrefix(m, kw+" ") || strings.HasPrefix(m, kw+"!") {
			return IntentGreeting
		}
	}
	for _, kw := range quizKeywords {
		if strings.Contains(m, kw) {
			return IntentQuiz
		}
	}
	for _, kw := range explainKeywords {
		if strings.Contains(m, kw) {
			return IntentExplain
		}
	}
	for _, kw := range helpKeywords {
		if strings.Contains(m, kw) {
			return IntentHelp
		}
	}
	return IntentQuestion
}
