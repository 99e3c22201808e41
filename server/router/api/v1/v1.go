// Package v1 exposes the tutoring REST API.
package v1

import (
	"github.com/labstack/echo/v4"

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
)

// APIV1Service wires the tutoring components behind the v1 routes.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	LLM       ai.CompletionService
	Memory    *memory.Store
	Engine    *tutor.Engine
	Quizzes   *quiz.Generator
	Ingestor  *retrieval.Ingestor
	Retriever retrieval.Retriever
	Markdown  *markdown.Renderer
	Metrics   *observability.Metrics

	rateLimiter *middleware.RateLimiter
}

// NewAPIV1Service assembles the AI components over the given store.
// When AI is disabled or unconfigured, the service still starts: chat and
// quiz endpoints then answer with their degraded fallbacks.
func NewAPIV1Service(p *profile.Profile, st *store.Store) *APIV1Service {
	cfg := ai.NewConfigFromProfile(p)
	llm := ai.NewCompletionService(cfg)

	var retriever retrieval.Retriever
	var ingestor *retrieval.Ingestor
	embedder, err := ai.NewEmbeddingService(cfg)
	if err == nil {
		retriever = retrieval.NewCurriculumRetriever(embedder, retrieval.NewStoreChunkSearcher(st), p.RetrievalTopK)
		ingestor = retrieval.NewIngestor(st, embedder)
	}

	memOpts := []memory.Option{}
	if p.MemorySummarize {
		memOpts = append(memOpts,
			memory.WithTrimPolicy(memory.TrimSummarize),
			memory.WithSummarizer(memory.NewLLMSummarizer(llm)),
		)
	}
	mem := memory.NewStore(p.MemoryWindow, p.SessionTTL, memOpts...)

	var contexts *retrieval.ContextBuilder
	if retriever != nil {
		contexts = retrieval.NewContextBuilder(retriever, llm)
	}

	return &APIV1Service{
		Profile:     p,
		Store:       st,
		LLM:         llm,
		Memory:      mem,
		Engine:      tutor.NewEngine(llm, mem, contexts, p.RetrievalTopK),
		Quizzes:     quiz.NewGenerator(llm),
		Ingestor:    ingestor,
		Retriever:   retriever,
		Markdown:    markdown.NewRenderer(),
		Metrics:     observability.NewMetrics(1000),
		rateLimiter: middleware.NewRateLimiter(5, 10),
	}
}

// RegisterRoutes mounts the v1 routes on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.Use(s.rateLimiter.Middleware())

	g.POST("/chat", s.Chat)

	g.POST("/quizzes", s.GenerateQuiz)
	g.GET("/quizzes", s.ListQuizzes)
	g.GET("/quizzes/:uid", s.GetQuiz)

	g.GET("/memory/:studentId", s.GetHistory)
	g.DELETE("/memory/:studentId", s.ClearHistory)

	g.POST("/curriculum/chunks", s.UpsertChunk)
	g.POST("/curriculum/documents", s.UpsertDocument)

	g.GET("/stats", s.Stats)

	// Health is not rate limited.
	e.GET("/api/v1/health", s.Health)
}
