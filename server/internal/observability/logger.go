// Package observability provides request-scoped structured logging and
// lightweight in-process metrics for tutoring turns.
package observability

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldStudentID is the field name for student ID.
	LogFieldStudentID = "student_id"
	// LogFieldSubject is the field name for subject.
	LogFieldSubject = "subject"
	// LogFieldIntent is the field name for the classified intent.
	LogFieldIntent = "intent"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// RequestContext carries structured logging state for one tutoring turn.
type RequestContext struct {
	RequestID string
	StudentID string
	Subject   string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, studentID, subject string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	rc := &RequestContext{
		RequestID: uuid.NewString(),
		StudentID: studentID,
		Subject:   subject,
		StartTime: time.Now(),
	}
	rc.Logger = logger.With(
		slog.String(LogFieldRequestID, rc.RequestID),
		slog.String(LogFieldStudentID, studentID),
		slog.String(LogFieldSubject, subject),
	)
	return rc
}

// Duration returns the elapsed time since the request started.
func (rc *RequestContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}

// LogCompletion logs the end of a turn with its intent and latency.
func (rc *RequestContext) LogCompletion(intent string) {
	rc.Logger.Info("turn completed",
		slog.String(LogFieldIntent, intent),
		slog.Int64(LogFieldDuration, rc.Duration().Milliseconds()),
	)
}
