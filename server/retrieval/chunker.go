package retrieval

import (
	"strings"
	"unicode"
)

const (
	// chunkSize is the maximum character count per chunk.
	chunkSize = 500
	// chunkOverlap is the character count carried over between chunks.
	chunkOverlap = 50
)

// SplitDocument splits long curriculum text into chunks for embedding,
// preserving paragraph boundaries when possible. Consecutive chunks share a
// short overlap so retrieval does not lose context at the seams.
func SplitDocument(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= chunkSize {
		return []string{content}
	}

	paragraphs := splitParagraphs(content)

	var chunks []string
	var current strings.Builder

	for _, para := range paragraphs {
		if current.Len()+len(para) > chunkSize && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			if overlap := overlapText(chunks, chunkOverlap); overlap != "" {
				current.WriteString(overlap)
				current.WriteString("\n\n")
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		// Force-split paragraphs larger than a whole chunk.
		for current.Len() > chunkSize {
			text := current.String()
			breakPoint := findBreakPoint(text[:chunkSize])
			chunks = append(chunks, strings.TrimSpace(text[:breakPoint]))
			current.Reset()
			current.WriteString(strings.TrimSpace(text[breakPoint:]))
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func splitParagraphs(content string) []string {
	var result []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(strings.ReplaceAll(para, "\n", " "))
		if para != "" {
			result = append(result, para)
		}
	}
	return result
}

// overlapText returns the tail of the previous chunk, trimmed to a word
// boundary.
func overlapText(chunks []string, size int) string {
	if len(chunks) == 0 {
		return ""
	}
	last := chunks[len(chunks)-1]
	if len(last) <= size {
		return last
	}
	tail := last[len(last)-size:]
	if idx := strings.IndexAny(tail, " \t"); idx > 0 {
		return tail[idx+1:]
	}
	return tail
}

// findBreakPoint finds a split position at a sentence or word boundary.
func findBreakPoint(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if i == len(text)-1 || unicode.IsSpace(rune(text[i+1])) {
				return i + 1
			}
		}
	}
	for i := len(text) - 1; i >= 0; i-- {
		if unicode.IsSpace(rune(text[i])) {
			return i + 1
		}
	}
	return len(text)
}
