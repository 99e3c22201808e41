package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/router"
)

// NoContextSentinel is returned instead of an empty context string so the
// dialogue layer can never mistake "no grounding found" for "no grounding
// needed".
const NoContextSentinel = "No specific curriculum context available."

// Degradation names a fallback branch the builder took.
type Degradation string

const (
	// DegradationExpansion: query expansion failed, only the original query ran.
	DegradationExpansion Degradation = "query_expansion_failed"
	// DegradationRetrieval: every retrieval call failed.
	DegradationRetrieval Degradation = "retrieval_failed"
	// DegradationSubjectFilter: no document matched the subject, the filter
	// was bypassed to avoid discarding the only available evidence.
	DegradationSubjectFilter Degradation = "subject_filter_bypassed"
)

// BuildResult is the outcome of one context assembly.
// Context is never empty: with zero documents it holds NoContextSentinel.
type BuildResult struct {
	Context       string
	DocumentCount int
	Degradations  []Degradation
}

// HasContext reports whether any curriculum evidence backs the context.
func (r BuildResult) HasContext() bool {
	return r.DocumentCount > 0
}

// Degraded reports whether the named fallback branch was taken.
func (r BuildResult) Degraded(d Degradation) bool {
	for _, got := range r.Degradations {
		if got == d {
			return true
		}
	}
	return false
}

// ContextBuilder expands a question into several retrieval queries,
// deduplicates and subject-filters the results, and renders them into a
// bounded labeled context block.
type ContextBuilder struct {
	retriever Retriever
	llm       ai.CompletionService
}

// NewContextBuilder creates a context builder. The completion service is
// used only for query expansion; expansion failure is never fatal.
func NewContextBuilder(retriever Retriever, llm ai.CompletionService) *ContextBuilder {
	return &ContextBuilder{retriever: retriever, llm: llm}
}

const queryExpansionPromptFormat = `You are an educational content search assistant.
Given a student's question, generate 3 alternative search queries that would help find relevant educational content.
Focus on key concepts, synonyms, and related topics.

Original question: %s
Subject: %s
Grade level: %s

Generate exactly 3 alternative queries, one per line:`

// Build assembles a grounded context string for the question.
// k bounds the number of documents rendered into the context.
func (b *ContextBuilder) Build(ctx context.Context, question, subject, grade string, k int) BuildResult {
	if k <= 0 {
		k = 5
	}

	result := BuildResult{}

	queries, expanded := b.expandQuery(ctx, question, subject, grade)
	if !expanded {
		result.Degradations = append(result.Degradations, DegradationExpansion)
	}

	var docs []Document
	searchFailures := 0
	for _, query := range queries {
		found, err := b.retriever.Search(ctx, query)
		if err != nil {
			searchFailures++
			slog.Warn("curriculum retrieval failed for query",
				"query", query, "error", err)
			continue
		}
		docs = append(docs, found...)
	}
	if searchFailures == len(queries) {
		result.Degradations = append(result.Degradations, DegradationRetrieval)
	}

	filtered, bypassed := filterBySubject(docs, subject)
	if bypassed {
		result.Degradations = append(result.Degradations, DegradationSubjectFilter)
	}

	unique := deduplicate(filtered)
	if len(unique) > k {
		unique = unique[:k]
	}

	result.DocumentCount = len(unique)
	result.Context = renderContext(unique)
	return result
}

// expandQuery asks a simple conversational model for up to 3 alternative
// phrasings. On any failure it returns only the original question: expansion
// is a quality optimization, never a hard dependency.
func (b *ContextBuilder) expandQuery(ctx context.Context, question, subject, grade string) ([]string, bool) {
	if b.llm == nil || !b.llm.Ready() {
		return []string{question}, false
	}

	text, err := b.llm.Complete(ctx, ai.CompletionRequest{
		Model:       router.Select(router.TaskChat, router.ComplexitySimple, subject),
		Prompt:      fmt.Sprintf(queryExpansionPromptFormat, question, subject, grade),
		Temperature: 0.5,
		MaxTokens:   256,
	})
	if err != nil {
		slog.Warn("query expansion failed, using original query only", "error", err)
		return []string{question}, false
	}

	queries := []string{question}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == 4 { // original + 3 alternates
			break
		}
	}
	return queries, true
}

var (
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]+`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// normalizeSubject lower-cases, strips parentheticals and collapses
// non-alphanumerics so "Science (EVS)" and "science-evs" compare equal.
func normalizeSubject(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = parentheticalRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", "and")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// filterBySubject keeps documents whose normalized subject matches the
// requested one by substring containment in either direction. Documents
// without subject metadata are admitted only when the matched set would
// otherwise be empty, and if nothing at all survives, the filter is bypassed
// entirely. Returns the kept documents and whether the bypass branch ran.
func filterBySubject(docs []Document, subject string) ([]Document, bool) {
	want := normalizeSubject(subject)
	if want == "" || len(docs) == 0 {
		return docs, false
	}

	var matched, unlabeled []Document
	for _, doc := range docs {
		got := normalizeSubject(doc.Metadata.Subject)
		switch {
		case got == "":
			unlabeled = append(unlabeled, doc)
		case strings.Contains(got, want) || strings.Contains(want, got):
			matched = append(matched, doc)
		}
	}

	if len(matched) > 0 {
		return matched, false
	}
	if len(unlabeled) > 0 {
		return unlabeled, false
	}
	return docs, true
}

// deduplicate removes documents whose leading content repeats: three
// expanded queries converging on the same paragraph must yield it once.
func deduplicate(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	unique := make([]Document, 0, len(docs))
	for _, doc := range docs {
		fp := Fingerprint(doc.Content)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		unique = append(unique, doc)
	}
	return unique
}

// Fingerprint returns the dedup key for a document's content: its leading
// 200 characters.
func Fingerprint(content string) string {
	if len(content) > 200 {
		return content[:200]
	}
	return content
}

// renderContext serializes documents into labeled blocks.
func renderContext(docs []Document) string {
	if len(docs) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		var labels []string
		if doc.Metadata.Chapter != "" {
			labels = append(labels, "Chapter: "+doc.Metadata.Chapter)
		}
		if doc.Metadata.Subject != "" {
			labels = append(labels, "Subject: "+doc.Metadata.Subject)
		}
		label := strings.Join(labels, " | ")
		if label == "" {
			label = fmt.Sprintf("Source %d", i+1)
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", label, doc.Content))
	}
	return strings.Join(parts, "\n\n")
}
