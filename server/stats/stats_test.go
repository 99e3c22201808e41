package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalab/vidya/store"
	teststore "github.com/vidyalab/vidya/store/test"
)

func TestCollectEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := teststore.NewTestingStore(ctx, t)

	got, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, got.TotalQuizzes)
	assert.Zero(t, got.TotalChunks)
	assert.Zero(t, got.SubjectsIndexed)
}

func TestCollectCountsRows(t *testing.T) {
	ctx := context.Background()
	s := teststore.NewTestingStore(ctx, t)

	for _, q := range []*store.Quiz{
		{UID: "q-1", ChapterID: "ch-1", GradeBand: "5-7", Difficulty: "basic", Questions: []byte(`[]`)},
		{UID: "q-2", ChapterID: "ch-1", GradeBand: "5-7", Difficulty: "hard", Questions: []byte(`[]`)},
	} {
		_, err := s.UpsertQuiz(ctx, q)
		require.NoError(t, err)
	}
	for _, c := range []*store.CurriculumChunk{
		{UID: "c-1", Subject: "math", Content: "a", Embedding: []float32{1}},
		{UID: "c-2", Subject: "math", Content: "b", Embedding: []float32{1}},
		{UID: "c-3", Subject: "science", Content: "c", Embedding: []float32{1}},
	} {
		_, err := s.UpsertCurriculumChunk(ctx, c)
		require.NoError(t, err)
	}

	got, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalQuizzes)
	assert.Equal(t, int64(2), got.QuizzesLastWeek)
	assert.Equal(t, int64(3), got.TotalChunks)
	assert.Equal(t, int64(2), got.SubjectsIndexed)
}
