package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/plugin/ai"
)

func TestAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Science", "What is photosynthesis?", true)
	store.Append(ctx, "s1", "Science", "Photosynthesis is how plants make food.", false)

	turns := store.History("s1", "Science")
	require.Len(t, turns, 2)
	assert.Equal(t, RoleStudent, turns[0].Role)
	assert.Equal(t, RoleTutor, turns[1].Role)
}

func TestHistoryMissingSessionIsEmpty(t *testing.T) {
	store := NewStore(10, time.Hour)
	assert.Empty(t, store.History("nobody", "Math"))
	assert.Equal(t, "", store.HistoryText("nobody", "Math"))
}

func TestSubjectKeyIsNormalized(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "  Science ", "hi", true)
	assert.Len(t, store.History("s1", "science"), 1)
}

// The transcript must never exceed 2W turns, checked after every append.
func TestMemoryBound(t *testing.T) {
	ctx := context.Background()
	const window = 3
	store := NewStore(window, time.Hour)

	for i := 0; i < 25; i++ {
		store.Append(ctx, "s1", "Math", fmt.Sprintf("question %d", i), true)
		store.Append(ctx, "s1", "Math", fmt.Sprintf("answer %d", i), false)
		assert.LessOrEqual(t, len(store.History("s1", "Math")), 2*window)
	}

	// Oldest turns are dropped, newest kept.
	turns := store.History("s1", "Math")
	assert.Equal(t, "answer 24", turns[len(turns)-1].Text)
}

func TestTTLEviction(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Science", "hello", true)

	// Backdate the session past the TTL.
	store.mu.Lock()
	store.sessions[makeKey("s1", "Science")].lastAccess = time.Now().Add(-time.Hour - time.Second)
	store.mu.Unlock()

	assert.Equal(t, 1, store.Sweep())
	assert.Empty(t, store.History("s1", "Science"))
}

func TestLazyEvictionOnAppend(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "stale", "Math", "old", true)
	store.mu.Lock()
	store.sessions[makeKey("stale", "Math")].lastAccess = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	// Any write sweeps expired sessions first.
	store.Append(ctx, "fresh", "Math", "new", true)
	assert.Empty(t, store.History("stale", "Math"))
	assert.Len(t, store.History("fresh", "Math"), 1)
}

func TestClearOneSubject(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Math", "a", true)
	store.Append(ctx, "s1", "Science", "b", true)

	store.Clear("s1", "Math")
	assert.Empty(t, store.History("s1", "Math"))
	assert.Len(t, store.History("s1", "Science"), 1)
}

func TestClearAllSubjects(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Math", "a", true)
	store.Append(ctx, "s1", "Science", "b", true)
	store.Append(ctx, "s2", "Math", "c", true)

	store.Clear("s1", "")
	assert.Empty(t, store.History("s1", "Math"))
	assert.Empty(t, store.History("s1", "Science"))
	assert.Len(t, store.History("s2", "Math"), 1)
}

func TestHistoryText(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Science", "What is rain?", true)
	store.Append(ctx, "s1", "Science", "Rain is condensed water vapor.", false)

	text := store.HistoryText("s1", "Science")
	assert.Equal(t, "Student: What is rain?\nTutor: Rain is condensed water vapor.", text)
}

func TestSummarizeTrimPolicy(t *testing.T) {
	ctx := context.Background()
	llm := ai.NewMockCompletionService("They discussed fractions.")
	store := NewStore(2, time.Hour,
		WithTrimPolicy(TrimSummarize),
		WithSummarizer(NewLLMSummarizer(llm)),
	)

	for i := 0; i < 4; i++ {
		store.Append(ctx, "s1", "Math", fmt.Sprintf("q%d", i), true)
		store.Append(ctx, "s1", "Math", fmt.Sprintf("a%d", i), false)
	}

	turns := store.History("s1", "Math")
	require.NotEmpty(t, turns)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Contains(t, turns[0].Text, "They discussed fractions.")
	// The bound counts conversation turns; the summary rides along as a system turn.
	assert.LessOrEqual(t, len(turns), 2*2+1)
	assert.Contains(t, store.HistoryText("s1", "Math"), "Context: ")
}

func TestSummarizeFailureDegradesToDrop(t *testing.T) {
	ctx := context.Background()
	llm := &ai.MockCompletionService{Err: errors.New("quota exceeded")}
	store := NewStore(1, time.Hour,
		WithTrimPolicy(TrimSummarize),
		WithSummarizer(NewLLMSummarizer(llm)),
	)

	for i := 0; i < 3; i++ {
		store.Append(ctx, "s1", "Math", fmt.Sprintf("q%d", i), true)
		store.Append(ctx, "s1", "Math", fmt.Sprintf("a%d", i), false)
	}

	turns := store.History("s1", "Math")
	assert.LessOrEqual(t, len(turns), 2)
	for _, turn := range turns {
		assert.NotEqual(t, RoleSystem, turn.Role)
	}
}

func TestSummarizePolicyWithoutSummarizerFallsBack(t *testing.T) {
	store := NewStore(2, time.Hour, WithTrimPolicy(TrimSummarize))
	assert.Equal(t, TrimDrop, store.policy)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)

	store.Append(ctx, "s1", "Math", "a", true)
	store.Append(ctx, "s1", "Science", "b", true)
	store.Append(ctx, "s2", "Math", "c", true)

	stats := store.Stats()
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 10, stats.Window)
	assert.False(t, stats.Summarize)
}

// Repeated identical operations converge to the same observable state.
func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(10, time.Hour)
	store.Append(ctx, "s1", "Math", "a", true)

	store.Clear("s1", "Math")
	store.Clear("s1", "Math")
	assert.Empty(t, store.History("s1", "Math"))
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	const window = 5
	store := NewStore(window, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			student := fmt.Sprintf("s%d", g%2)
			for i := 0; i < 50; i++ {
				store.Append(ctx, student, "Math", "m", i%2 == 0)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(store.History("s0", "Math")), 2*window)
	assert.LessOrEqual(t, len(store.History("s1", "Math")), 2*window)
}
