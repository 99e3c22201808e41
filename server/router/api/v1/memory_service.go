package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidyalab/vidya/plugin/ai/memory"
)

type historyResponse struct {
	StudentID string        `json:"student_id"`
	Subject   string        `json:"subject,omitempty"`
	Turns     []memory.Turn `json:"turns"`
}

// GetHistory returns the remembered conversation for a student and subject.
func (s *APIV1Service) GetHistory(c echo.Context) error {
	studentID := c.Param("studentId")
	subject := c.QueryParam("subject")
	if subject == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subject query parameter is required")
	}

	return c.JSON(http.StatusOK, historyResponse{
		StudentID: studentID,
		Subject:   subject,
		Turns:     s.Memory.History(studentID, subject),
	})
}

// ClearHistory forgets a student's conversation. With a subject parameter
// only that subject's session is cleared; without it, all of the student's
// sessions are.
func (s *APIV1Service) ClearHistory(c echo.Context) error {
	studentID := c.Param("studentId")
	subject := c.QueryParam("subject")
	s.Memory.Clear(studentID, subject)
	return c.NoContent(http.StatusNoContent)
}
