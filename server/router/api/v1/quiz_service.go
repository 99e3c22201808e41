package v1

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/plugin/ai/quiz"
	"github.com/vidyalab/vidya/store"
)

type generateQuizRequest struct {
	Subject    string `json:"subject"`
	ChapterID  string `json:"chapter_id"`
	GradeBand  string `json:"grade_band"`
	Difficulty string `json:"difficulty"`

	// Content overrides the stored chapter text when set. Without it, the
	// chapter text is assembled from indexed curriculum chunks.
	Content string `json:"content"`

	QuestionCount int `json:"question_count"`
}

type generateQuizResponse struct {
	Quizzes []*quiz.QuizSpec `json:"quizzes"`
}

// GenerateQuiz synthesizes and persists quizzes for a chapter. Without an
// explicit difficulty, one quiz per tier is generated.
func (s *APIV1Service) GenerateQuiz(c echo.Context) error {
	var req generateQuizRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.ChapterID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chapter_id is required")
	}

	ctx := c.Request().Context()

	content := strings.TrimSpace(req.Content)
	if content == "" {
		text, err := s.chapterText(c, req.ChapterID)
		if err != nil {
			return err
		}
		content = text
	}
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no chapter content available: index chunks first or pass content")
	}

	count := req.QuestionCount
	if count <= 0 {
		count = s.Profile.QuizQuestions
	}

	chapter := quiz.Chapter{
		Subject:   req.Subject,
		ChapterID: req.ChapterID,
		Text:      content,
		GradeBand: req.GradeBand,
	}

	var specs []*quiz.QuizSpec
	if req.Difficulty != "" {
		spec, err := s.Quizzes.Generate(ctx, chapter, quiz.Difficulty(req.Difficulty), count)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "quiz generation failed")
		}
		specs = []*quiz.QuizSpec{spec}
	} else {
		byTier, err := s.Quizzes.GenerateAll(ctx, chapter, count)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "quiz generation failed")
		}
		for _, d := range quiz.Difficulties {
			specs = append(specs, byTier[d])
		}
	}

	for _, spec := range specs {
		if err := s.saveQuiz(c, spec); err != nil {
			return err
		}
		s.Metrics.RecordQuiz()
	}
	return c.JSON(http.StatusOK, generateQuizResponse{Quizzes: specs})
}

// GetQuiz returns one stored quiz by uid.
func (s *APIV1Service) GetQuiz(c echo.Context) error {
	uid := c.Param("uid")
	q, err := s.Store.GetQuiz(c.Request().Context(), &store.FindQuiz{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load quiz")
	}
	if q == nil {
		return echo.NewHTTPError(http.StatusNotFound, "quiz not found")
	}
	spec, err := toQuizSpec(q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to decode quiz")
	}
	return c.JSON(http.StatusOK, spec)
}

// ListQuizzes returns stored quizzes, optionally filtered by chapter and
// difficulty.
func (s *APIV1Service) ListQuizzes(c echo.Context) error {
	find := &store.FindQuiz{}
	if chapter := c.QueryParam("chapter_id"); chapter != "" {
		find.ChapterID = &chapter
	}
	if difficulty := c.QueryParam("difficulty"); difficulty != "" {
		find.Difficulty = &difficulty
	}

	list, err := s.Store.ListQuizzes(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list quizzes")
	}

	specs := make([]*quiz.QuizSpec, 0, len(list))
	for _, q := range list {
		spec, err := toQuizSpec(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to decode quiz")
		}
		specs = append(specs, spec)
	}
	return c.JSON(http.StatusOK, generateQuizResponse{Quizzes: specs})
}

// chapterText assembles chapter content from the indexed curriculum chunks.
func (s *APIV1Service) chapterText(c echo.Context, chapterID string) (string, error) {
	chunks, err := s.Store.ListCurriculumChunks(c.Request().Context(), &store.FindCurriculumChunk{Chapter: &chapterID})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to load chapter content")
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *APIV1Service) saveQuiz(c echo.Context, spec *quiz.QuizSpec) error {
	questions, err := json.Marshal(spec.Questions)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode quiz")
	}
	if _, err := s.Store.UpsertQuiz(c.Request().Context(), &store.Quiz{
		UID:        spec.QuizID,
		ChapterID:  spec.ChapterID,
		GradeBand:  spec.GradeBand,
		Difficulty: string(spec.Difficulty),
		Questions:  questions,
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store quiz")
	}
	return nil
}

func toQuizSpec(q *store.Quiz) (*quiz.QuizSpec, error) {
	var questions []quiz.Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, errors.Wrap(err, "failed to decode questions")
	}
	return &quiz.QuizSpec{
		QuizID:     q.UID,
		ChapterID:  q.ChapterID,
		GradeBand:  q.GradeBand,
		Difficulty: quiz.Difficulty(q.Difficulty),
		Questions:  questions,
	}, nil
}
