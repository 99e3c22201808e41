package store

import "context"

// CurriculumChunk is one embedded slice of curriculum text. Chunks are
// written by the ingestion path and read by vector search during retrieval.
type CurriculumChunk struct {
	ID        int32
	UID       string
	Subject   string
	Chapter   string
	Source    string
	Content   string
	Embedding []float32
	CreatedTs int64
}

// FindCurriculumChunk filters chunk listings. Nil fields are ignored.
type FindCurriculumChunk struct {
	UID     *string
	Subject *string
	Chapter *string
	Limit   *int
}

// DeleteCurriculumChunk deletes chunks by uid or by chapter.
type DeleteCurriculumChunk struct {
	UID     *string
	Chapter *string
}

// UpsertCurriculumChunk writes a chunk, replacing any existing chunk with
// the same uid.
func (s *Store) UpsertCurriculumChunk(ctx context.Context, upsert *CurriculumChunk) (*CurriculumChunk, error) {
	return s.driver.UpsertCurriculumChunk(ctx, upsert)
}

func (s *Store) ListCurriculumChunks(ctx context.Context, find *FindCurriculumChunk) ([]*CurriculumChunk, error) {
	return s.driver.ListCurriculumChunks(ctx, find)
}

func (s *Store) DeleteCurriculumChunks(ctx context.Context, delete *DeleteCurriculumChunk) error {
	return s.driver.DeleteCurriculumChunks(ctx, delete)
}

// SearchCurriculumChunks runs vector similarity search over the chunk table.
func (s *Store) SearchCurriculumChunks(ctx context.Context, embedding []float32, limit int) ([]*CurriculumChunk, []float32, error) {
	return s.driver.SearchCurriculumChunks(ctx, embedding, limit)
}
