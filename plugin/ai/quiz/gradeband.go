package quiz

// AllowedTypes returns the question types permitted for a grade band.
// Younger bands get recognition-style types with optional audio hints;
// older bands get higher-order types. The mapping is applied before
// prompting so the model is constrained, not merely nudged.
func AllowedTypes(gradeBand string) []QuestionType {
	switch gradeBand {
	case "1-2", "1-4":
		return []QuestionType{TypeMCQ, TypeMatching, TypeSelectImage, TypeSpellWord, TypePronunciation}
	case "5-7":
		return []QuestionType{TypeMCQ, TypeTrueFalse}
	case "8-10":
		return []QuestionType{TypeFillInTheBlank, TypeShortAnswer}
	default:
		return []QuestionType{TypeMCQ, TypeTrueFalse, TypeFillInTheBlank}
	}
}

// typeAllowed reports whether t is in the allowed set for the band.
func typeAllowed(t QuestionType, allowed []QuestionType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// isYoungBand reports whether the band gets child-focused instructions
// (pictures, phonetic hints, sample audio).
func isYoungBand(gradeBand string) bool {
	return gradeBand == "1-2" || gradeBand == "1-4"
}

// toneFor maps a difficulty tier to its instructional tone modifier.
func toneFor(difficulty Difficulty) string {
	switch difficulty {
	case DifficultyBasic:
		return "Use very simple words and direct questions. Focus on recognition, basic facts, and one-step thinking."
	case DifficultyMedium:
		return "Ask questions that need short reasoning or 2-step thinking. Include small word problems or comparisons."
	case DifficultyHard:
		return "Ask higher-order thinking questions requiring analysis, application, or inference. Avoid repetition of basic questions."
	default:
		return "Keep questions age-appropriate."
	}
}
