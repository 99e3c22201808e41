// Package quiz implements structured quiz synthesis: grade-band constrained
// question generation with JSON-validation retry and deterministic fallback.
package quiz

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	TypeMCQ            QuestionType = "mcq"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillInTheBlank QuestionType = "fill_in_the_blank"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeMatching       QuestionType = "matching"
	TypeSelectImage    QuestionType = "select_image"
	TypeSpellWord      QuestionType = "spell_word"
	TypePronunciation  QuestionType = "pronunciation"
)

// Difficulty is a quiz difficulty tier.
type Difficulty string

const (
	DifficultyBasic  Difficulty = "basic"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the tiers GenerateAll produces, in display order.
var Difficulties = []Difficulty{DifficultyBasic, DifficultyMedium, DifficultyHard}

// Question is one generated quiz question.
type Question struct {
	ID                 string       `json:"id"`
	Type               QuestionType `json:"type"`
	QuestionText       string       `json:"question_text"`
	Options            []string     `json:"options,omitempty"`
	CorrectOptionIndex int          `json:"correct_option_index"`
	Explanation        string       `json:"explanation"`
	Difficulty         string       `json:"difficulty"`
	InteractiveElement string       `json:"interactive_element,omitempty"`

	// Pronunciation-only fields; defaulted to placeholders when missing.
	PhoneticHint string `json:"phonetic_hint,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`
}

// QuizSpec is one generated, self-contained quiz. It is immutable after
// creation: regeneration produces a new QuizSpec with a new id.
type QuizSpec struct {
	QuizID     string     `json:"quiz_id"`
	ChapterID  string     `json:"chapter_id"`
	GradeBand  string     `json:"grade_band"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
}
