package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vidyalab/vidya/plugin/ai/tutor"
	"github.com/vidyalab/vidya/server/internal/observability"
)

type chatRequest struct {
	Message   string `json:"message"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Grade     string `json:"grade"`

	// Both default to true when omitted.
	UseMemory *bool `json:"use_memory"`
	UseRAG    *bool `json:"use_rag"`

	// RenderHTML additionally returns the reply rendered to HTML.
	RenderHTML bool `json:"render_html"`
}

type chatResponse struct {
	Response   string `json:"response"`
	Intent     string `json:"intent"`
	HasContext bool   `json:"has_context"`
	HTML       string `json:"html,omitempty"`
}

// Chat handles one tutoring turn.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.StudentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "student_id is required")
	}

	useMemory := req.UseMemory == nil || *req.UseMemory
	useRAG := req.UseRAG == nil || *req.UseRAG

	rc := observability.NewRequestContext(nil, req.StudentID, req.Subject)
	result := s.Engine.Respond(c.Request().Context(), tutor.Request{
		Message:   req.Message,
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Grade:     req.Grade,
		UseMemory: useMemory,
		UseRAG:    useRAG,
	})
	rc.LogCompletion(string(result.Intent))
	s.Metrics.RecordTurn(string(result.Intent), rc.Duration())

	resp := chatResponse{
		Response:   result.Response,
		Intent:     string(result.Intent),
		HasContext: result.UsedContext,
	}
	if req.RenderHTML {
		html, err := s.Markdown.Render(result.Response)
		if err != nil {
			slog.Warn("failed to render reply", "error", err)
		} else {
			resp.HTML = html
		}
	}
	return c.JSON(http.StatusOK, resp)
}
