// Package tutor implements the dialogue state machine that turns one
// student message into a grounded, personalized, policy-routed reply.
package tutor

import (
	"context"
	"log/slog"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/memory"
	"github.com/vidyalab/vidya/plugin/ai/router"
	"github.com/vidyalab/vidya/server/retrieval"
)

// Request is one inbound chat turn.
type Request struct {
	Message   string
	StudentID string
	Subject   string
	Grade     string
	UseMemory bool
	UseRAG    bool
}

// Result is the sole output contract of one turn.
type Result struct {
	Response    string `json:"response"`
	Intent      Intent `json:"intent"`
	UsedContext bool   `json:"has_context"`
}

// Engine orchestrates one turn: classify intent, branch to a handler,
// optionally build curriculum context, call the provider through the routing
// policy, and write the exchange back into conversation memory.
//
// The flow is a single-turn state machine; all cross-turn state lives in the
// memory store, so the engine itself needs no locking.
type Engine struct {
	llm        ai.CompletionService
	classifier *IntentClassifier
	memory     *memory.Store
	contexts   *retrieval.ContextBuilder
	topK       int
}

// NewEngine creates a dialogue engine. contexts may be nil when retrieval is
// not configured; grounded answers then run without curriculum context.
func NewEngine(llm ai.CompletionService, mem *memory.Store, contexts *retrieval.ContextBuilder, topK int) *Engine {
	if topK <= 0 {
		topK = 3
	}
	return &Engine{
		llm:        llm,
		classifier: NewIntentClassifier(llm),
		memory:     mem,
		contexts:   contexts,
		topK:       topK,
	}
}

// state names one node of the per-turn state machine.
type state string

const (
	stateStart          state = "start"
	stateIntentDetected state = "intent_detected"
	stateGreeting       state = "greeting"
	stateQuizRedirect   state = "quiz_redirect"
	stateGroundedAnswer state = "grounded_answer"
	stateEnd            state = "end"
)

// turn carries the evolving state of one request through the machine.
type turn struct {
	req     Request
	intent  Intent
	context retrieval.BuildResult
	result  Result
}

// transitions is the explicit state-transition table. Every handler returns
// the next state; the machine runs until stateEnd.
var transitions = map[state]func(*Engine, context.Context, *turn) state{
	stateStart:          (*Engine).detectIntent,
	stateIntentDetected: (*Engine).routeByIntent,
	stateGreeting:       (*Engine).handleGreeting,
	stateQuizRedirect:   (*Engine).handleQuizRedirect,
	stateGroundedAnswer: (*Engine).handleGroundedAnswer,
}

// Respond processes one chat turn through the state machine.
func (e *Engine) Respond(ctx context.Context, req Request) Result {
	t := &turn{req: req}
	for s := stateStart; s != stateEnd; {
		handler, ok := transitions[s]
		if !ok {
			slog.Error("dialogue state machine reached unknown state", "state", s)
			break
		}
		s = handler(e, ctx, t)
	}
	t.result.Intent = t.intent
	return t.result
}

func (e *Engine) detectIntent(ctx context.Context, t *turn) state {
	t.intent = e.classifier.Classify(ctx, t.req.Message, t.req.Subject)
	return stateIntentDetected
}

func (e *Engine) routeByIntent(_ context.Context, t *turn) state {
	switch t.intent {
	case IntentGreeting:
		return stateGreeting
	case IntentQuiz:
		return stateQuizRedirect
	default:
		return stateGroundedAnswer
	}
}

// handleGreeting returns a grade-banded canned greeting: no model call, no
// retrieval, no memory write.
func (e *Engine) handleGreeting(_ context.Context, t *turn) state {
	t.result.Response = greetingFor(t.req.Subject, t.req.Grade)
	return stateEnd
}

// handleQuizRedirect deflects to the dedicated quiz flow so quiz persistence
// and scoring stay on one code path.
func (e *Engine) handleQuizRedirect(_ context.Context, t *turn) state {
	t.result.Response = quizDeflection
	return stateEnd
}

func (e *Engine) handleGroundedAnswer(ctx context.Context, t *turn) state {
	contextText := retrieval.NoContextSentinel
	if t.req.UseRAG && e.contexts != nil {
		t.context = e.contexts.Build(ctx, t.req.Message, t.req.Subject, t.req.Grade, e.topK)
		contextText = t.context.Context
		t.result.UsedContext = t.context.HasContext()
	}

	history := ""
	if t.req.UseMemory {
		history = e.memory.HistoryText(t.req.StudentID, t.req.Subject)
	}

	kind := router.TaskKindForSubject(t.req.Subject)
	response, err := e.llm.Complete(ctx, ai.CompletionRequest{
		Model:       router.Select(kind, router.ComplexityMedium, t.req.Subject),
		System:      systemPrompt(t.req.Subject, t.req.Grade, contextText, history, t.intent),
		Prompt:      router.AdaptPrompt(kind, t.req.Message, t.req.Grade),
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		// Never persist a failed exchange as if it succeeded.
		slog.Error("grounded answer generation failed",
			"student", t.req.StudentID, "subject", t.req.Subject, "intent", t.intent, "error", err)
		t.result.Response = apology
		return stateEnd
	}

	if t.req.UseMemory {
		e.memory.Append(ctx, t.req.StudentID, t.req.Subject, t.req.Message, true)
		e.memory.Append(ctx, t.req.StudentID, t.req.Subject, response, false)
	}

	t.result.Response = response
	return stateEnd
}
