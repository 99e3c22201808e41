// Package stats provides simple local usage statistics for the tutoring
// service. This is a lightweight alternative to external monitoring.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/store"
)

// Stats represents persisted usage statistics.
type Stats struct {
	TotalQuizzes    int64 `json:"total_quizzes"`
	QuizzesLastWeek int64 `json:"quizzes_last_week"`
	TotalChunks     int64 `json:"total_chunks"`
	SubjectsIndexed int64 `json:"subjects_indexed"`
}

// Collect computes usage statistics from the store. The queries are plain
// SQL that both supported drivers accept.
func Collect(ctx context.Context, s *store.Store) (*Stats, error) {
	db := s.GetDriver().GetDB()
	out := &Stats{}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quiz").Scan(&out.TotalQuizzes); err != nil {
		return nil, errors.Wrap(err, "failed to count quizzes")
	}

	// The cutoff is an integer literal, not user input, so it is inlined to
	// keep the query portable across placeholder syntaxes.
	weekAgo := time.Now().AddDate(0, 0, -7).Unix()
	if err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM quiz WHERE created_ts >= %d", weekAgo),
	).Scan(&out.QuizzesLastWeek); err != nil {
		return nil, errors.Wrap(err, "failed to count recent quizzes")
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM curriculum_chunk").Scan(&out.TotalChunks); err != nil {
		return nil, errors.Wrap(err, "failed to count curriculum chunks")
	}

	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT subject) FROM curriculum_chunk WHERE subject != ''",
	).Scan(&out.SubjectsIndexed); err != nil {
		return nil, errors.Wrap(err, "failed to count subjects")
	}

	return out, nil
}
