package store

import "context"

// Quiz is a persisted quiz, one per (chapter, difficulty, generation).
// Questions holds the serialized question list as JSON; the service layer
// owns the question schema. Quizzes are immutable after creation:
// regeneration writes a new row with a new UID.
type Quiz struct {
	ID         int32
	UID        string
	ChapterID  string
	GradeBand  string
	Difficulty string
	Questions  []byte
	CreatedTs  int64
}

// FindQuiz filters quiz lookups. Nil fields are ignored.
type FindQuiz struct {
	ID         *int32
	UID        *string
	ChapterID  *string
	Difficulty *string
	Limit      *int
}

// DeleteQuiz deletes quizzes by uid or by chapter.
type DeleteQuiz struct {
	UID       *string
	ChapterID *string
}

func (s *Store) UpsertQuiz(ctx context.Context, upsert *Quiz) (*Quiz, error) {
	quiz, err := s.driver.UpsertQuiz(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.quizCache.Set(ctx, quiz.UID, quiz)
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, find *FindQuiz) (*Quiz, error) {
	if find.UID != nil {
		if cached, ok := s.quizCache.Get(ctx, *find.UID); ok {
			if quiz, ok := cached.(*Quiz); ok {
				return quiz, nil
			}
		}
	}

	quiz, err := s.driver.GetQuiz(ctx, find)
	if err != nil {
		return nil, err
	}
	if quiz != nil {
		s.quizCache.Set(ctx, quiz.UID, quiz)
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(ctx context.Context, find *FindQuiz) ([]*Quiz, error) {
	return s.driver.ListQuizzes(ctx, find)
}

func (s *Store) DeleteQuiz(ctx context.Context, delete *DeleteQuiz) error {
	if err := s.driver.DeleteQuiz(ctx, delete); err != nil {
		return err
	}
	if delete.UID != nil {
		s.quizCache.Delete(ctx, *delete.UID)
	} else {
		s.quizCache.Clear(ctx)
	}
	return nil
}
