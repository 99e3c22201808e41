package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/store"
)

func (d *DB) UpsertCurriculumChunk(ctx context.Context, upsert *store.CurriculumChunk) (*store.CurriculumChunk, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}
	embedding, err := json.Marshal(upsert.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}

	stmt := `
		INSERT INTO curriculum_chunk (uid, subject, chapter, source, content, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid)
		DO UPDATE SET
			subject = EXCLUDED.subject,
			chapter = EXCLUDED.chapter,
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
		RETURNING id
	`
	err = d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Subject,
		upsert.Chapter,
		upsert.Source,
		upsert.Content,
		string(embedding),
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
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.Subject != nil {
		where, args = append(where, "subject = ?"), append(args, *find.Subject)
	}
	if find.Chapter != nil {
		where, args = append(where, "chapter = ?"), append(args, *find.Chapter)
	}

	query := `
		SELECT id, uid, subject, chapter, source, content, embedding, created_ts
		FROM curriculum_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`
	if find.Limit != nil {
		query += " LIMIT ?"
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
		where, args = append(where, "uid = ?"), append(args, *delete.UID)
	}
	if delete.Chapter != nil {
		where, args = append(where, "chapter = ?"), append(args, *delete.Chapter)
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

// SearchCurriculumChunks ranks chunks by cosine similarity computed
// in-process. Fine at development scale; the postgres driver pushes this
// into pgvector.
func (d *DB) SearchCurriculumChunks(ctx context.Context, embedding []float32, limit int) ([]*store.CurriculumChunk, []float32, error) {
	if limit <= 0 {
		limit = 10
	}

	chunks, err := d.ListCurriculumChunks(ctx, &store.FindCurriculumChunk{})
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		chunk *store.CurriculumChunk
		score float32
	}
	results := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		score, ok := cosineSimilarity(embedding, chunk.Embedding)
		if !ok {
			continue
		}
		results = append(results, scored{chunk: chunk, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	outChunks := make([]*store.CurriculumChunk, len(results))
	outScores := make([]float32, len(results))
	for i, r := range results {
		outChunks[i] = r.chunk
		outScores[i] = r.score
	}
	return outChunks, outScores, nil
}

func scanChunk(scan func(dest ...any) error) (*store.CurriculumChunk, error) {
	var chunk store.CurriculumChunk
	var embedding string
	if err := scan(
		&chunk.ID,
		&chunk.UID,
		&chunk.Subject,
		&chunk.Chapter,
		&chunk.Source,
		&chunk.Content,
		&embedding,
		&chunk.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan curriculum chunk")
	}
	if err := json.Unmarshal([]byte(embedding), &chunk.Embedding); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding")
	}
	return &chunk, nil
}

func cosineSimilarity(a, b []float32) (float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true
}
