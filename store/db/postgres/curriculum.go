package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/store"
)

func (d *DB) UpsertCurriculumChunk(ctx context.Context, upsert *store.CurriculumChunk) (*store.CurriculumChunk, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO curriculum_chunk (uid, subject, chapter, source, content, embedding, created_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (uid)
		DO UPDATE SET
			subject = EXCLUDED.subject,
			chapter = EXCLUDED.chapter,
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Subject,
		upsert.Chapter,
		upsert.Source,
		upsert.Content,
		pgvector.NewVector(upsert.Embedding),
		upsert.CreatedTs,
	).Scan(&upsert.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert curriculum chunk")
	}
	return upsert, nil
}

func (d *DB) ListCurriculumChunks(ctx context.Context, find *store.FindCurriculumChunk) ([]*store.CurriculumChunk, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Subject != nil {
		where, args = append(where, "subject = "+placeholder(len(args)+1)), append(args, *find.Subject)
	}
	if find.Chapter != nil {
		where, args = append(where, "chapter = "+placeholder(len(args)+1)), append(args, *find.Chapter)
	}

	query := `
		SELECT id, uid, subject, chapter, source, content, embedding, created_ts
		FROM curriculum_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list curriculum chunks")
	}
	defer rows.Close()

	list := []*store.CurriculumChunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteCurriculumChunks(ctx context.Context, delete *store.DeleteCurriculumChunk) error {
	where, args := []string{}, []any{}
	if delete.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *delete.UID)
	}
	if delete.Chapter != nil {
		where, args = append(where, "chapter = "+placeholder(len(args)+1)), append(args, *delete.Chapter)
	}
	if len(where) == 0 {
		return errors.New("delete curriculum chunks requires a uid or chapter")
	}

	stmt := "DELETE FROM curriculum_chunk WHERE " + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to delete curriculum chunks")
	}
	return nil
}

// SearchCurriculumChunks ranks chunks by cosine similarity with pgvector.
// The <=> operator computes cosine distance; similarity is 1 - distance.
func (d *DB) SearchCurriculumChunks(ctx context.Context, embedding []float32, limit int) ([]*store.CurriculumChunk, []float32, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, uid, subject, chapter, source, content, embedding, created_ts,
			1 - (embedding <=> $1) AS similarity
		FROM curriculum_chunk
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to search curriculum chunks")
	}
	defer rows.Close()

	chunks := []*store.CurriculumChunk{}
	scores := []float32{}
	for rows.Next() {
		var chunk store.CurriculumChunk
		var vector pgvector.Vector
		var similarity float64
		if err := rows.Scan(
			&chunk.ID,
			&chunk.UID,
			&chunk.Subject,
			&chunk.Chapter,
			&chunk.Source,
			&chunk.Content,
			&vector,
			&chunk.CreatedTs,
			&similarity,
		); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan curriculum chunk")
		}
		chunk.Embedding = vector.Slice()
		chunks = append(chunks, &chunk)
		scores = append(scores, float32(similarity))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return chunks, scores, nil
}

func scanChunk(scan func(dest ...any) error) (*store.CurriculumChunk, error) {
	var chunk store.CurriculumChunk
	var vector pgvector.Vector
	if err := scan(
		&chunk.ID,
		&chunk.UID,
		&chunk.Subject,
		&chunk.Chapter,
		&chunk.Source,
		&chunk.Content,
		&vector,
		&chunk.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan curriculum chunk")
	}
	chunk.Embedding = vector.Slice()
	return &chunk, nil
}
