package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// sessionKey identifies one (student, subject) session.
type sessionKey struct {
	studentID string
	subject   string
}

type session struct {
	turns      []Turn
	summary    string
	lastAccess time.Time
}

// Store holds bounded conversation transcripts keyed by (student, subject).
//
// All mutating operations are serialized by a single coarse lock; reads are
// served under the same lock so a session is never observed mid-trim.
// Eviction is lazy: every public operation sweeps expired sessions first,
// so no background goroutine is required.
//
// Summarization calls the provider outside the lock: the overflowing turns
// are cut out under the lock, summarized unlocked, and the summary written
// back under the lock.
type Store struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session

	window     int // W: retained exchanges; turns are bounded by 2W
	ttl        time.Duration
	policy     TrimPolicy
	summarizer Summarizer
}

// Option configures a Store.
type Option func(*Store)

// WithTrimPolicy selects the trim policy (default TrimDrop).
func WithTrimPolicy(p TrimPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithSummarizer sets the summarizer used by TrimSummarize.
func WithSummarizer(sum Summarizer) Option {
	return func(s *Store) { s.summarizer = sum }
}

// NewStore creates a memory store with the given window W and session TTL.
func NewStore(window int, ttl time.Duration, opts ...Option) *Store {
	if window <= 0 {
		window = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &Store{
		sessions: make(map[sessionKey]*session),
		window:   window,
		ttl:      ttl,
		policy:   TrimDrop,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == TrimSummarize && s.summarizer == nil {
		slog.Warn("summarize trim policy configured without summarizer, falling back to drop")
		s.policy = TrimDrop
	}
	return s
}

func makeKey(studentID, subject string) sessionKey {
	return sessionKey{
		studentID: studentID,
		subject:   strings.ToLower(strings.TrimSpace(subject)),
	}
}

// Append adds a turn to the session, creating it on first contact.
// When the transcript exceeds 2W turns the oldest ones are dropped or
// summarized according to the trim policy.
func (s *Store) Append(ctx context.Context, studentID, subject, text string, fromStudent bool) {
	role := RoleTutor
	if fromStudent {
		role = RoleStudent
	}
	turn := Turn{Role: role, Text: text, Timestamp: time.Now()}

	s.mu.Lock()
	s.sweepLocked()

	key := makeKey(studentID, subject)
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	sess.turns = append(sess.turns, turn)
	sess.lastAccess = time.Now()

	var overflow []Turn
	if len(sess.turns) > 2*s.window {
		cut := len(sess.turns) - 2*s.window
		if s.policy == TrimSummarize {
			overflow = make([]Turn, cut)
			copy(overflow, sess.turns[:cut])
		}
		sess.turns = append(sess.turns[:0:0], sess.turns[cut:]...)
	}
	s.mu.Unlock()

	if len(overflow) == 0 {
		return
	}

	// Provider call happens outside the lock.
	summary, err := s.summarizer.Summarize(ctx, overflow)
	if err != nil {
		slog.Warn("transcript summarization failed, trimmed turns dropped",
			"student", studentID, "subject", subject, "error", err)
		return
	}

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok {
		sess.summary = summary
	}
	s.mu.Unlock()
}

// History returns the ordered turns of a session. The session summary, when
// present, is prepended as a system turn. A missing session yields an empty
// history: first contact is not an error condition.
func (s *Store) History(studentID, subject string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[makeKey(studentID, subject)]
	if !ok {
		return []Turn{}
	}
	sess.lastAccess = time.Now()

	out := make([]Turn, 0, len(sess.turns)+1)
	if sess.summary != "" {
		out = append(out, Turn{Role: RoleSystem, Text: "Previous conversation summary: " + sess.summary})
	}
	out = append(out, sess.turns...)
	return out
}

// HistoryText renders the session as newline-joined "Role: text" lines.
func (s *Store) HistoryText(studentID, subject string) string {
	turns := s.History(studentID, subject)
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "Tutor"
		switch t.Role {
		case RoleStudent:
			label = "Student"
		case RoleSystem:
			label = "Context"
		}
		lines = append(lines, label+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// Clear deletes one session, or every session of the student when subject
// is empty. Clearing an absent session is a no-op.
func (s *Store) Clear(studentID, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	if subject != "" {
		delete(s.sessions, makeKey(studentID, subject))
		return
	}
	for key := range s.sessions {
		if key.studentID == studentID {
			delete(s.sessions, key)
		}
	}
}

// Sweep removes every session whose last access is older than the TTL and
// returns the number of evicted sessions.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	now := time.Now()
	evicted := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}

// Stats reports the store state for the health probe.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	students := make(map[string]struct{}, len(s.sessions))
	for key := range s.sessions {
		students[key.studentID] = struct{}{}
	}
	return Stats{
		TotalStudents: len(students),
		TotalSessions: len(s.sessions),
		Window:        s.window,
		SessionTTL:    s.ttl,
		Summarize:     s.policy == TrimSummarize,
	}
}
