package tutor

import (
	"fmt"
	"strings"
)

// intentDetectPrompt asks the routing model for a single intent word.
func intentDetectPrompt(message, subject string) string {
	return fmt.Sprintf(`Analyze the student's message and determine their intent.
Possible intents:
- question: Asking about a concept or topic
- help: Requesting help with homework or a problem
- explain: Wants explanation of something
- quiz: Wants to take a quiz or practice
- greeting: Just saying hello
- clarify: Asking for clarification on previous response
- other: Anything else

Student message: %s
Subject context: %s

Respond with ONLY the intent word (e.g., "question"):`, message, subject)
}

// intentInstructions maps an intent to the instruction woven into the
// grounded-answer system prompt.
var intentInstructions = map[Intent]string{
	IntentQuestion: "Answer the student's question clearly and thoroughly.",
	IntentHelp:     "Help the student solve their problem step by step.",
	IntentExplain:  "Provide a clear, detailed explanation suitable for their grade level.",
	IntentClarify:  "Clarify your previous response based on their follow-up.",
	IntentOther:    "Respond helpfully to the student's message.",
}

func instructionFor(intent Intent) string {
	if instruction, ok := intentInstructions[intent]; ok {
		return instruction
	}
	return intentInstructions[IntentOther]
}

// systemPrompt composes the grounded-answer instruction from subject/grade
// framing, retrieved context, conversation history and the intent-specific
// instruction.
func systemPrompt(subject, grade, context, history string, intent Intent) string {
	if history == "" {
		history = "This is the start of the conversation."
	}
	return fmt.Sprintf(`You are an expert %s tutor for grade %s students.
%s

Curriculum Context:
%s

Previous Conversation:
%s

Guidelines:
- Be encouraging and patient
- Use age-appropriate language for grade %s
- Include examples when helpful
- If you don't know something, say so honestly`,
		subject, grade, instructionFor(intent), context, history, grade)
}

// quizDeflection is the fixed response for quiz intents: quizzes are never
// generated inline inside a chat turn.
const quizDeflection = "I'd love to quiz you! Please use the Quiz section in the app to take a quiz on this topic. That way I can track your progress and award you coins!"

// apology is the user-safe response for an unrecoverable provider error.
const apology = "I'm having trouble generating a response. Please try again!"

// greetingFor returns a grade-banded canned greeting.
func greetingFor(subject, grade string) string {
	switch {
	case isYoungGrade(grade):
		return fmt.Sprintf("Hi there! I'm your %s buddy! What would you like to learn today?", subject)
	case isMiddleGrade(grade):
		return fmt.Sprintf("Hey! I'm your %s tutor. What can I help you with today?", subject)
	default:
		return fmt.Sprintf("Hello! I'm here to help you with %s. What would you like to work on?", subject)
	}
}

func isYoungGrade(grade string) bool {
	switch strings.ToLower(strings.TrimSpace(grade)) {
	case "1st", "2nd", "3rd", "4th", "1", "2", "3", "4":
		return true
	}
	return false
}

func isMiddleGrade(grade string) bool {
	switch strings.ToLower(strings.TrimSpace(grade)) {
	case "5th", "6th", "7th", "5", "6", "7":
		return true
	}
	return false
}
