// Package memory provides the per-student conversation memory store:
// bounded transcripts keyed by (student, subject) with TTL eviction and an
// optional summarization trim policy.
package memory

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleSystem  Role = "system"
)

// Turn is one message within a session.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TrimPolicy selects what happens to turns that fall out of the window.
type TrimPolicy string

const (
	// TrimDrop discards the oldest turns.
	TrimDrop TrimPolicy = "drop"
	// TrimSummarize folds the oldest turns into the session summary.
	// Falls back to dropping when summarization fails.
	TrimSummarize TrimPolicy = "summarize"
)

// Stats describes the current state of the store.
type Stats struct {
	TotalStudents int           `json:"total_students"`
	TotalSessions int           `json:"total_sessions"`
	Window        int           `json:"window"`
	SessionTTL    time.Duration `json:"session_ttl"`
	Summarize     bool          `json:"summarize"`
}
