// Package router implements the model routing policy: a pure mapping from
// pedagogical task kind, complexity tier and subject to a concrete model
// identifier, plus grade-aware prompt adaptation for conversational tasks.
package router

import (
	"fmt"
	"strings"
)

// TaskKind identifies the pedagogical task a completion serves.
type TaskKind string

const (
	TaskChat      TaskKind = "chat"
	TaskMath      TaskKind = "math"
	TaskScience   TaskKind = "science"
	TaskCreative  TaskKind = "creative"
	TaskReasoning TaskKind = "reasoning"
	TaskQuiz      TaskKind = "quiz"
	TaskClassify  TaskKind = "classify"
)

// Conversational reports whether the task produces free-form tutoring text.
// Structured-output tasks (quiz, classify) never receive a persona wrapper:
// mixing personas into structured prompts degrades parseability.
func (k TaskKind) Conversational() bool {
	switch k {
	case TaskQuiz, TaskClassify:
		return false
	default:
		return true
	}
}

// Complexity is the coarse difficulty tier of a task.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// defaultModel is the fallback conversational model. Select is total: it
// returns this for any unknown task kind or complexity.
const defaultModel = "gpt-4.1-nano"

// selectionMatrix maps (task kind, complexity) to a model identifier.
var selectionMatrix = map[TaskKind]map[Complexity]string{
	TaskChat:      {ComplexitySimple: "gemini-2.5-flash", ComplexityMedium: "gpt-4.1-nano", ComplexityComplex: "gpt-4.1-mini"},
	TaskMath:      {ComplexitySimple: "gpt-4.1-mini", ComplexityMedium: "deepseek-r1-distill-llama-70b", ComplexityComplex: "gemini-2.5-pro"},
	TaskScience:   {ComplexitySimple: "gemini-2.5-flash", ComplexityMedium: "gpt-4.1-mini", ComplexityComplex: "gemini-2.5-pro"},
	TaskCreative:  {ComplexitySimple: "gpt-4.1-nano", ComplexityMedium: "gpt-4.1-mini", ComplexityComplex: "gemini-2.5-pro"},
	TaskReasoning: {ComplexitySimple: "gpt-4.1-mini", ComplexityMedium: "llama-4-scout-17b-16e-instruct", ComplexityComplex: "gemini-2.5-pro"},
	TaskQuiz:      {ComplexitySimple: "gpt-4.1-mini", ComplexityMedium: "gpt-4.1-mini", ComplexityComplex: "gemini-2.5-pro"},
	TaskClassify:  {ComplexitySimple: "gemini-2.5-flash", ComplexityMedium: "gemini-2.5-flash", ComplexityComplex: "gpt-4.1-nano"},
}

// Select returns the model identifier for the given task, complexity and
// subject. Subject-specific overrides apply only at complex tier:
// quantitative subjects route to a reasoning-specialized model.
func Select(kind TaskKind, complexity Complexity, subject string) string {
	model := defaultModel
	if byComplexity, ok := selectionMatrix[kind]; ok {
		if m, ok := byComplexity[complexity]; ok {
			model = m
		}
	}

	if complexity == ComplexityComplex {
		switch normalizeSubject(subject) {
		case "math", "mathematics":
			model = "deepseek-r1-distill-llama-70b"
		case "science":
			model = "gemini-2.5-pro"
		}
	}

	return model
}

// TaskKindForSubject maps a subject name to the task kind used for grounded
// answer generation.
func TaskKindForSubject(subject string) TaskKind {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "math"):
		return TaskMath
	case strings.Contains(s, "science"), strings.Contains(s, "evs"):
		return TaskScience
	case strings.Contains(s, "social"), strings.Contains(s, "history"):
		return TaskCreative
	default:
		return TaskChat
	}
}

// gradeAdaptations maps a grade to its tone instruction.
var gradeAdaptations = map[string]string{
	"5th": "Explain in very simple terms for a 10-year-old. Use easy words and fun examples.",
	"6th": "Explain clearly for an 11-year-old student. Use examples they can relate to.",
	"7th": "Explain for a 12-year-old. Be thorough but clear.",
	"8th": "Explain for a 13-year-old preparing for high school.",
}

const defaultAdaptation = "Explain clearly for a middle school student."

// AdaptPrompt applies a grade-banded persona wrapper to a prompt.
// Structured-output task kinds are returned unchanged so personas can never
// leak into quiz or classification prompts.
func AdaptPrompt(kind TaskKind, prompt, grade string) string {
	if !kind.Conversational() {
		return prompt
	}

	adaptation, ok := gradeAdaptations[strings.ToLower(strings.TrimSpace(grade))]
	if !ok {
		adaptation = defaultAdaptation
	}

	return fmt.Sprintf("%s\nBe encouraging and positive.\n\nStudent's question: %q", adaptation, prompt)
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
