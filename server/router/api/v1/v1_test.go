package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/internal/profile"
	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/plugin/ai/memory"
	"github.com/vidyalab/vidya/plugin/ai/quiz"
	"github.com/vidyalab/vidya/plugin/ai/tutor"
	"github.com/vidyalab/vidya/server/internal/observability"
	"github.com/vidyalab/vidya/server/middleware"
	"github.com/vidyalab/vidya/server/retrieval"
	"github.com/vidyalab/vidya/server/service/markdown"
	"github.com/vidyalab/vidya/store"
	teststore "github.com/vidyalab/vidya/store/test"
)

// newTestService builds the API service over a throwaway SQLite store and a
// scriptable provider.
func newTestService(t *testing.T, llm *ai.MockCompletionService) *APIV1Service {
	t.Helper()

	st := teststore.NewTestingStore(context.Background(), t)
	p := &profile.Profile{
		Mode:          "demo",
		Version:       "test",
		MemoryWindow:  10,
		SessionTTL:    time.Hour,
		RetrievalTopK: 3,
		QuizQuestions: 3,
	}
	mem := memory.NewStore(p.MemoryWindow, p.SessionTTL)

	return &APIV1Service{
		Profile:     p,
		Store:       st,
		LLM:         llm,
		Memory:      mem,
		Engine:      tutor.NewEngine(llm, mem, nil, p.RetrievalTopK),
		Quizzes:     quiz.NewGenerator(llm),
		Markdown:    markdown.NewRenderer(),
		Metrics:     observability.NewMetrics(100),
		rateLimiter: middleware.NewRateLimiter(1000, 1000),
	}
}

func doJSON(t *testing.T, s *APIV1Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	s.RegisterRoutes(e)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// tutorHandler scripts the provider for full chat turns: intent detection
// answers with the given intent, everything else gets the answer text.
func tutorHandler(intent, answer string) func(req ai.CompletionRequest) (string, error) {
	return func(req ai.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "Respond with ONLY the intent word") {
			return intent, nil
		}
		return answer, nil
	}
}

func TestChatEndpoint(t *testing.T) {
	llm := &ai.MockCompletionService{Handler: tutorHandler("question", "A fraction is part of a whole.")}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/chat",
		`{"message": "What is a fraction?", "student_id": "stu-1", "subject": "math", "grade": "5th"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A fraction is part of a whole.", resp.Response)
	assert.Equal(t, "question", resp.Intent)
	assert.False(t, resp.HasContext)
	assert.Empty(t, resp.HTML)

	// The exchange is remembered.
	turns := s.Memory.History("stu-1", "math")
	assert.Len(t, turns, 2)
}

func TestChatRendersHTMLWhenRequested(t *testing.T) {
	llm := &ai.MockCompletionService{Handler: tutorHandler("question", "**bold** answer")}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/chat",
		`{"message": "hi there, question", "student_id": "stu-1", "render_html": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.HTML, "<strong>bold</strong>")
}

func TestChatValidation(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", `{"student_id": "stu-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/chat", `{"message": "hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const quizJSON = `[
  {"type": "mcq", "question_text": "2+2?", "options": ["3", "4"], "correct_option_index": 1, "explanation": "Basic addition."},
  {"type": "true_false", "question_text": "5 is even.", "options": ["True", "False"], "correct_option_index": 1, "explanation": "5 is odd."}
]`

func TestGenerateQuizSingleDifficulty(t *testing.T) {
	llm := &ai.MockCompletionService{Responses: []string{quizJSON}}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/quizzes",
		`{"chapter_id": "ch-1", "grade_band": "5-7", "difficulty": "medium", "content": "Addition and parity."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateQuizResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Quizzes, 1)
	spec := resp.Quizzes[0]
	assert.Equal(t, quiz.DifficultyMedium, spec.Difficulty)
	assert.Len(t, spec.Questions, 2)

	// The quiz is persisted and retrievable.
	rec = doJSON(t, s, http.MethodGet, "/api/v1/quizzes/"+spec.QuizID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded quiz.QuizSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, spec.QuizID, loaded.QuizID)
	assert.Len(t, loaded.Questions, 2)
}

func TestGenerateQuizAllTiers(t *testing.T) {
	llm := &ai.MockCompletionService{Handler: func(req ai.CompletionRequest) (string, error) {
		return quizJSON, nil
	}}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/quizzes",
		`{"chapter_id": "ch-2", "grade_band": "5-7", "content": "Numbers."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateQuizResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Quizzes, len(quiz.Difficulties))

	rec = doJSON(t, s, http.MethodGet, "/api/v1/quizzes?chapter_id=ch-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Quizzes, len(quiz.Difficulties))
}

func TestGenerateQuizRequiresContent(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodPost, "/api/v1/quizzes", `{"chapter_id": "ch-none"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateQuizUsesIndexedChunks(t *testing.T) {
	llm := &ai.MockCompletionService{Responses: []string{quizJSON}}
	s := newTestService(t, llm)

	_, err := s.Store.UpsertCurriculumChunk(context.Background(), &store.CurriculumChunk{
		UID:       "c-1",
		Chapter:   "ch-3",
		Content:   "Photosynthesis converts light to energy.",
		Embedding: []float32{1, 0},
	})
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/quizzes",
		`{"chapter_id": "ch-3", "grade_band": "5-7", "difficulty": "basic"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, 1, llm.CallCount())
	assert.Contains(t, llm.Requests[0].Prompt, "Photosynthesis")
}

func TestGenerateQuizRoutesHardMathToReasoningModel(t *testing.T) {
	llm := &ai.MockCompletionService{Responses: []string{quizJSON}}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/quizzes",
		`{"subject": "math", "chapter_id": "ch-4", "grade_band": "5-7", "difficulty": "hard", "content": "Prime factorization."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, 1, llm.CallCount())
	assert.Equal(t, "deepseek-r1-distill-llama-70b", llm.Requests[0].Model)
	assert.Contains(t, llm.Requests[0].Prompt, "You are an expert math teacher")
}

func TestGetQuizNotFound(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodGet, "/api/v1/quizzes/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemoryHistoryAndClear(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})
	s.Memory.Append(context.Background(), "stu-9", "math", "What is 2+2?", true)
	s.Memory.Append(context.Background(), "stu-9", "math", "It is 4.", false)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/memory/stu-9?subject=math", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Turns, 2)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/memory/stu-9?subject=math", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.Memory.History("stu-9", "math"))
}

func TestMemoryHistoryRequiresSubject(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodGet, "/api/v1/memory/stu-9", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertChunkWithoutEmbedderUnavailable(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodPost, "/api/v1/curriculum/chunks",
		`{"content": "some text", "subject": "math"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	llm := &ai.MockCompletionService{Handler: tutorHandler("question", "Answer.")}
	s := newTestService(t, llm)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/chat",
		`{"message": "What is gravity?", "student_id": "stu-1", "subject": "science"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Turns.TurnsTotal)
	assert.Equal(t, int64(1), resp.Turns.ByIntent["question"])
	assert.Equal(t, 1, resp.Memory.TotalSessions)
	assert.Zero(t, resp.Usage.TotalQuizzes)
}

type stubRetriever struct{ ready bool }

func (r stubRetriever) Search(context.Context, string) ([]retrieval.Document, error) {
	return nil, nil
}

func (r stubRetriever) Ready() bool { return r.ready }

func TestHealthEndpoint(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})
	s.Retriever = stubRetriever{ready: true}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.ProviderReady)
	assert.True(t, resp.RetrieverReady)
	assert.Equal(t, 10, resp.MemoryStats.Window)
}

// A missing retriever or provider degrades the status but never fails the
// probe.
func TestHealthEndpointDegraded(t *testing.T) {
	s := newTestService(t, &ai.MockCompletionService{})

	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.ProviderReady)
	assert.False(t, resp.RetrieverReady)

	s = newTestService(t, &ai.MockCompletionService{NotReady: true})
	s.Retriever = stubRetriever{ready: true}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.ProviderReady)
}
