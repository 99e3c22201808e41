package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/errgroup"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/router"
)

const (
	defaultPhoneticHint = "example-hint"
	defaultAudioURL     = "https://example.com/audio/sample.mp3"
)

// Generator synthesizes quizzes for a chapter at a given difficulty,
// constrained to the question types allowed for the student's grade band.
type Generator struct {
	llm ai.CompletionService
}

func NewGenerator(llm ai.CompletionService) *Generator {
	return &Generator{llm: llm}
}

// Chapter describes the material a quiz is drawn from. Text carries the
// chapter content with the title and summary folded in. Subject steers both
// model selection and the prompt framing.
type Chapter struct {
	Subject   string
	ChapterID string
	Text      string
	GradeBand string
}

// Generate produces a quiz for one difficulty tier. The provider output is
// validated against the question schema; one retry is attempted on invalid
// output, after which a placeholder question keeps the quiz non-empty.
func (g *Generator) Generate(ctx context.Context, ch Chapter, difficulty Difficulty, count int) (*QuizSpec, error) {
	if count <= 0 {
		count = 5
	}
	allowed := AllowedTypes(ch.GradeBand)

	questions, err := g.generateQuestions(ctx, ch, difficulty, count, allowed)
	if err != nil {
		slog.Warn("quiz generation failed, using placeholder",
			"chapter", ch.ChapterID, "difficulty", difficulty, "err", err)
		questions = []Question{placeholderQuestion(allowed)}
	}

	questions = postProcess(questions, difficulty, allowed)
	if len(questions) == 0 {
		questions = postProcess([]Question{placeholderQuestion(allowed)}, difficulty, allowed)
	}

	return &QuizSpec{
		QuizID:     uuid.NewString(),
		ChapterID:  ch.ChapterID,
		GradeBand:  ch.GradeBand,
		Difficulty: difficulty,
		Questions:  questions,
	}, nil
}

// GenerateAll produces one quiz per difficulty tier concurrently.
func (g *Generator) GenerateAll(ctx context.Context, ch Chapter, count int) (map[Difficulty]*QuizSpec, error) {
	specs := make([]*QuizSpec, len(Difficulties))
	eg, ctx := errgroup.WithContext(ctx)
	for i, d := range Difficulties {
		i, d := i, d
		eg.Go(func() error {
			spec, err := g.Generate(ctx, ch, d, count)
			if err != nil {
				return err
			}
			specs[i] = spec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Difficulty]*QuizSpec, len(Difficulties))
	for i, d := range Difficulties {
		out[d] = specs[i]
	}
	return out, nil
}

func (g *Generator) generateQuestions(ctx context.Context, ch Chapter, difficulty Difficulty, count int, allowed []QuestionType) ([]Question, error) {
	if g.llm == nil || !g.llm.Ready() {
		return nil, fmt.Errorf("%w: quiz generation", ai.ErrProviderUnavailable)
	}

	prompt := buildPrompt(ch, difficulty, count, allowed)
	model := router.Select(router.TaskQuiz, complexityFor(difficulty), ch.Subject)

	raw, err := g.complete(ctx, model, prompt)
	if err != nil {
		return nil, err
	}
	questions, parseErr := parseQuestions(raw)
	if parseErr == nil {
		return questions, nil
	}

	slog.Debug("quiz output invalid, retrying", "err", parseErr)
	retryPrompt := prompt + "\n\nYour previous response was not valid JSON. Respond with ONLY a valid JSON array of question objects, no other text."
	raw, err = g.complete(ctx, model, retryPrompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw)
}

func (g *Generator) complete(ctx context.Context, model, prompt string) (string, error) {
	return g.llm.Complete(ctx, ai.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
}

func buildPrompt(ch Chapter, difficulty Difficulty, count int, allowed []QuestionType) string {
	names := make([]string, len(allowed))
	for i, t := range allowed {
		names[i] = string(t)
	}

	var b strings.Builder
	if ch.Subject != "" {
		fmt.Fprintf(&b, "You are an expert %s teacher creating assessment questions.\n", ch.Subject)
	}
	fmt.Fprintf(&b, "Generate %d quiz questions for students in grades %s.\n", count, ch.GradeBand)
	fmt.Fprintf(&b, "Difficulty: %s. %s\n", difficulty, toneFor(difficulty))
	fmt.Fprintf(&b, "Use ONLY these question types: %s.\n\n", strings.Join(names, ", "))
	if isYoungBand(ch.GradeBand) {
		b.WriteString("These are young learners. Keep language simple and playful. ")
		b.WriteString("For pronunciation questions include a phonetic_hint and audio_url field. ")
		b.WriteString("For select_image and matching questions describe the interactive element in an interactive_element field.\n\n")
	}
	b.WriteString("Base the questions on this chapter content:\n")
	b.WriteString(ch.Text)
	b.WriteString("\n\nRespond with a JSON array of objects with fields: type, question_text, options, correct_option_index, explanation.")
	return b.String()
}

// parseQuestions extracts the first JSON array from the model output and
// validates it against the question schema.
func parseQuestions(raw string) ([]Question, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in output")
	}
	payload := []byte(raw[start : end+1])

	if err := validateQuestionList(payload); err != nil {
		return nil, err
	}
	var questions []Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// postProcess stamps ids and difficulty, fills pronunciation defaults, and
// drops questions whose type is not allowed for the band.
func postProcess(questions []Question, difficulty Difficulty, allowed []QuestionType) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if !typeAllowed(q.Type, allowed) {
			slog.Debug("dropping question with disallowed type", "type", q.Type)
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("%s-%s", difficulty, shortuuid.New())
		}
		q.Difficulty = string(difficulty)
		if q.Type == TypePronunciation {
			if q.PhoneticHint == "" {
				q.PhoneticHint = defaultPhoneticHint
			}
			if q.AudioURL == "" {
				q.AudioURL = defaultAudioURL
			}
		}
		out = append(out, q)
	}
	return out
}

func placeholderQuestion(allowed []QuestionType) Question {
	return Question{
		ID:                 "fallback-1",
		Type:               allowed[0],
		QuestionText:       "Review the chapter and answer: what was the main idea?",
		Options:            []string{"Recall the key concept", "Skip this question"},
		CorrectOptionIndex: 0,
		Explanation:        "Placeholder used when AI output failed.",
	}
}

func complexityFor(d Difficulty) router.Complexity {
	switch d {
	case DifficultyBasic:
		return router.ComplexitySimple
	case DifficultyHard:
		return router.ComplexityComplex
	default:
		return router.ComplexityMedium
	}
}
