package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/plugin/ai"
)

// stubRetriever returns canned documents per query, or a global error.
type stubRetriever struct {
	docs    map[string][]Document
	all     []Document
	err     error
	queries []string
	ready   bool
}

func newStubRetriever(docs ...Document) *stubRetriever {
	return &stubRetriever{all: docs, ready: true}
}

func (s *stubRetriever) Search(_ context.Context, query string) ([]Document, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if docs, ok := s.docs[query]; ok {
		return docs, nil
	}
	return s.all, nil
}

func (s *stubRetriever) Ready() bool { return s.ready }

func doc(content, subject, chapter string) Document {
	return Document{
		Content:  content,
		Metadata: Metadata{Subject: subject, Chapter: chapter, Source: "textbook"},
	}
}

func TestBuildWithMatchingDocuments(t *testing.T) {
	retriever := newStubRetriever(
		doc("Photosynthesis converts light into chemical energy.", "Science", "Plants"),
		doc("Chlorophyll absorbs sunlight.", "Science", "Plants"),
	)
	llm := ai.NewMockCompletionService("how do plants make food\nrole of sunlight in plants\nleaf energy conversion")

	builder := NewContextBuilder(retriever, llm)
	result := builder.Build(context.Background(), "What is photosynthesis?", "Science", "6th", 5)

	assert.True(t, result.HasContext())
	assert.Equal(t, 2, result.DocumentCount)
	assert.Contains(t, result.Context, "[Chapter: Plants | Subject: Science]")
	assert.Contains(t, result.Context, "Photosynthesis converts light")
	assert.Empty(t, result.Degradations)

	// Original question plus three alternates, each retrieved once.
	assert.Len(t, retriever.queries, 4)
	assert.Equal(t, "What is photosynthesis?", retriever.queries[0])
}

// Build never returns an empty string: zero documents yield the sentinel.
func TestBuildNonDegeneracy(t *testing.T) {
	builder := NewContextBuilder(newStubRetriever(), ai.NewMockCompletionService(""))
	result := builder.Build(context.Background(), "anything", "Math", "6th", 3)

	assert.False(t, result.HasContext())
	assert.Equal(t, NoContextSentinel, result.Context)
	assert.NotEmpty(t, result.Context)
}

func TestBuildExpansionFailureFallsBackToOriginalQuery(t *testing.T) {
	retriever := newStubRetriever(doc("content", "Math", ""))
	llm := &ai.MockCompletionService{Err: errors.New("boom")}

	builder := NewContextBuilder(retriever, llm)
	result := builder.Build(context.Background(), "what is a fraction", "Math", "5th", 3)

	assert.True(t, result.Degraded(DegradationExpansion))
	assert.True(t, result.HasContext())
	require.Len(t, retriever.queries, 1)
	assert.Equal(t, "what is a fraction", retriever.queries[0])
}

func TestBuildNilLLMSkipsExpansion(t *testing.T) {
	retriever := newStubRetriever(doc("content", "Math", ""))
	builder := NewContextBuilder(retriever, nil)

	result := builder.Build(context.Background(), "q", "Math", "5th", 3)
	assert.True(t, result.Degraded(DegradationExpansion))
	assert.Len(t, retriever.queries, 1)
}

func TestBuildRetrievalFailureIsDegradedNotFatal(t *testing.T) {
	retriever := newStubRetriever()
	retriever.err = errors.New("index unavailable")

	builder := NewContextBuilder(retriever, ai.NewMockCompletionService("a\nb\nc"))
	result := builder.Build(context.Background(), "q", "Science", "6th", 3)

	assert.True(t, result.Degraded(DegradationRetrieval))
	assert.False(t, result.HasContext())
	assert.Equal(t, NoContextSentinel, result.Context)
}

func TestSubjectFilterKeepsMatches(t *testing.T) {
	retriever := newStubRetriever(
		doc("science text", "Science", ""),
		doc("history text", "History", ""),
	)
	builder := NewContextBuilder(retriever, nil)

	result := builder.Build(context.Background(), "q", "Science", "6th", 5)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Contains(t, result.Context, "science text")
	assert.NotContains(t, result.Context, "history text")
}

func TestSubjectFilterAdmitsUnlabeledOnlyWhenNothingMatches(t *testing.T) {
	// A labeled match exists: the unlabeled document is excluded.
	retriever := newStubRetriever(
		doc("labeled match", "Science", ""),
		doc("unlabeled text", "", ""),
	)
	builder := NewContextBuilder(retriever, nil)
	result := builder.Build(context.Background(), "q", "Science", "6th", 5)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Contains(t, result.Context, "labeled match")

	// No labeled match: the unlabeled document is the only evidence, keep it.
	retriever = newStubRetriever(
		doc("history only", "History", ""),
		doc("unlabeled text", "", ""),
	)
	builder = NewContextBuilder(retriever, nil)
	result = builder.Build(context.Background(), "q", "Science", "6th", 5)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Contains(t, result.Context, "unlabeled text")
}

func TestSubjectFilterBypassWhenNothingSurvives(t *testing.T) {
	retriever := newStubRetriever(doc("history only", "History", ""))
	builder := NewContextBuilder(retriever, nil)

	result := builder.Build(context.Background(), "q", "Science", "6th", 5)
	assert.True(t, result.Degraded(DegradationSubjectFilter))
	assert.Equal(t, 1, result.DocumentCount)
	assert.Contains(t, result.Context, "history only")
}

func TestSubjectNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science (EVS)", "science"},
		{"Social & Moral Studies", "social and moral studies"},
		{"  MATH-I  ", "math i"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSubject(tt.in), "in=%q", tt.in)
	}
}

// Running the same question twice must yield duplicate-free results both
// times: three converging expanded queries produce each paragraph once.
func TestDedupIdempotence(t *testing.T) {
	same := doc(strings.Repeat("water cycle ", 30), "Science", "Water")
	retriever := newStubRetriever(same, same, same)
	llm := ai.NewMockCompletionService("a\nb\nc", "a\nb\nc")
	builder := NewContextBuilder(retriever, llm)

	for run := 0; run < 2; run++ {
		result := builder.Build(context.Background(), "what is the water cycle", "Science", "6th", 5)
		assert.Equal(t, 1, result.DocumentCount, "run %d", run)
	}
}

func TestBuildTruncatesToK(t *testing.T) {
	retriever := newStubRetriever(
		doc("doc one", "Math", ""),
		doc("doc two", "Math", ""),
		doc("doc three", "Math", ""),
	)
	builder := NewContextBuilder(retriever, nil)

	result := builder.Build(context.Background(), "q", "Math", "5th", 2)
	assert.Equal(t, 2, result.DocumentCount)
}

func TestFingerprintBoundsPrefix(t *testing.T) {
	long := strings.Repeat("x", 500)
	assert.Len(t, Fingerprint(long), 200)
	assert.Equal(t, "short", Fingerprint("short"))
}

func TestCurriculumRetrieverNotReady(t *testing.T) {
	r := NewCurriculumRetriever(nil, nil, 5)
	assert.False(t, r.Ready())

	docs, err := r.Search(context.Background(), "q")
	assert.NoError(t, err)
	assert.Empty(t, docs)
}
