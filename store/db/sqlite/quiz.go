package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/store"
)

func (d *DB) UpsertQuiz(ctx context.Context, upsert *store.Quiz) (*store.Quiz, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO quiz (uid, chapter_id, grade_band, difficulty, questions, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid)
		DO UPDATE SET
			chapter_id = EXCLUDED.chapter_id,
			grade_band = EXCLUDED.grade_band,
			difficulty = EXCLUDED.difficulty,
			questions = EXCLUDED.questions
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.ChapterID,
		upsert.GradeBand,
		upsert.Difficulty,
		string(upsert.Questions),
		upsert.CreatedTs,
	).Scan(&upsert.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert quiz")
	}
	return upsert, nil
}

func (d *DB) GetQuiz(ctx context.Context, find *store.FindQuiz) (*store.Quiz, error) {
	limit := 1
	find.Limit = &limit
	list, err := d.ListQuizzes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListQuizzes(ctx context.Context, find *store.FindQuiz) ([]*store.Quiz, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.ChapterID != nil {
		where, args = append(where, "chapter_id = ?"), append(args, *find.ChapterID)
	}
	if find.Difficulty != nil {
		where, args = append(where, "difficulty = ?"), append(args, *find.Difficulty)
	}

	query := `
		SELECT id, uid, chapter_id, grade_band, difficulty, questions, created_ts
		FROM quiz
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list quizzes")
	}
	defer rows.Close()

	list := []*store.Quiz{}
	for rows.Next() {
		var quiz store.Quiz
		var questions string
		if err := rows.Scan(
			&quiz.ID,
			&quiz.UID,
			&quiz.ChapterID,
			&quiz.GradeBand,
			&quiz.Difficulty,
			&questions,
			&quiz.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan quiz")
		}
		quiz.Questions = []byte(questions)
		list = append(list, &quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteQuiz(ctx context.Context, delete *store.DeleteQuiz) error {
	where, args := []string{}, []any{}
	if delete.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *delete.UID)
	}
	if delete.ChapterID != nil {
		where, args = append(where, "chapter_id = ?"), append(args, *delete.ChapterID)
	}
	if len(where) == 0 {
		return errors.New("delete quiz requires a uid or chapter_id")
	}

	stmt := "DELETE FROM quiz WHERE " + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to delete quiz")
	}
	return nil
}
