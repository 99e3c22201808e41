package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every (task kind, complexity) pair must resolve to a non-empty model,
// including pairs the matrix has never heard of.
func TestSelectTotality(t *testing.T) {
	kinds := []TaskKind{TaskChat, TaskMath, TaskScience, TaskCreative, TaskReasoning, TaskQuiz, TaskClassify, TaskKind("unheard_of")}
	tiers := []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex, Complexity("bogus")}

	for _, kind := range kinds {
		for _, tier := range tiers {
			model := Select(kind, tier, "general")
			assert.NotEmpty(t, model, "kind=%s tier=%s", kind, tier)
		}
	}
}

func TestSelectUnknownKindFallsBack(t *testing.T) {
	assert.Equal(t, defaultModel, Select(TaskKind("juggling"), ComplexityMedium, "general"))
}

func TestSelectSubjectOverridesOnlyAtComplex(t *testing.T) {
	// Complex math routes to the reasoning-specialized model regardless of kind.
	assert.Equal(t, "deepseek-r1-distill-llama-70b", Select(TaskChat, ComplexityComplex, "Math"))
	assert.Equal(t, "gemini-2.5-pro", Select(TaskChat, ComplexityComplex, "Science"))

	// At medium tier the subject must not override the matrix.
	assert.Equal(t, selectionMatrix[TaskChat][ComplexityMedium], Select(TaskChat, ComplexityMedium, "Math"))
}

func TestTaskKindForSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    TaskKind
	}{
		{"Mathematics", TaskMath},
		{"Science", TaskScience},
		{"EVS", TaskScience},
		{"Social Studies", TaskCreative},
		{"History", TaskCreative},
		{"English", TaskChat},
		{"", TaskChat},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TaskKindForSubject(tt.subject), "subject=%q", tt.subject)
	}
}

func TestAdaptPromptWrapsConversational(t *testing.T) {
	wrapped := AdaptPrompt(TaskChat, "Why is the sky blue?", "5th")
	assert.Contains(t, wrapped, "Why is the sky blue?")
	assert.Contains(t, wrapped, "10-year-old")
}

func TestAdaptPromptUnknownGradeUsesDefault(t *testing.T) {
	wrapped := AdaptPrompt(TaskChat, "question", "13th")
	assert.Contains(t, wrapped, defaultAdaptation)
}

// Structured tasks must pass through byte-for-byte: no persona text may
// contaminate quiz or classification prompts.
func TestAdaptPromptNeverWrapsStructured(t *testing.T) {
	prompt := "Generate exactly 5 quiz questions as a JSON array."
	assert.Equal(t, prompt, AdaptPrompt(TaskQuiz, prompt, "5th"))
	assert.Equal(t, prompt, AdaptPrompt(TaskClassify, prompt, "5th"))
	assert.False(t, strings.Contains(AdaptPrompt(TaskQuiz, prompt, "5th"), "year-old"))
}
