package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/vidyalab/vidya/plugin/ai"
	"github.com/vidyalab/vidya/store"
)

// StoreChunkSearcher adapts the store's curriculum chunk search to the
// ChunkSearcher contract.
type StoreChunkSearcher struct {
	store *store.Store
}

func NewStoreChunkSearcher(s *store.Store) *StoreChunkSearcher {
	return &StoreChunkSearcher{store: s}
}

func (s *StoreChunkSearcher) SearchChunks(ctx context.Context, embedding []float32, limit int) ([]Document, error) {
	chunks, _, err := s.store.SearchCurriculumChunks(ctx, embedding, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search curriculum chunks")
	}

	docs := make([]Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = Document{
			Content: chunk.Content,
			Metadata: Metadata{
				Subject: chunk.Subject,
				Chapter: chunk.Chapter,
				Source:  chunk.Source,
			},
		}
	}
	return docs, nil
}

// ChunkInput is one curriculum slice to index.
type ChunkInput struct {
	UID     string `json:"uid,omitempty"`
	Subject string `json:"subject,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Ingestor writes curriculum chunks into the index: it embeds the content
// and upserts the chunk keyed by uid.
type Ingestor struct {
	store    *store.Store
	embedder ai.EmbeddingService
}

func NewIngestor(s *store.Store, embedder ai.EmbeddingService) *Ingestor {
	return &Ingestor{store: s, embedder: embedder}
}

func (g *Ingestor) Ready() bool {
	return g.store != nil && g.embedder != nil
}

// UpsertChunk embeds and stores one chunk. A missing uid gets a generated
// one; re-ingesting the same uid replaces the stored chunk.
func (g *Ingestor) UpsertChunk(ctx context.Context, input ChunkInput) (*store.CurriculumChunk, error) {
	if !g.Ready() {
		return nil, errors.New("ingestion requires a store and an embedding provider")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.New("chunk content is empty")
	}
	if input.UID == "" {
		input.UID = shortuuid.New()
	}

	embedding, err := g.embedder.Embed(ctx, content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed chunk")
	}

	chunk, err := g.store.UpsertCurriculumChunk(ctx, &store.CurriculumChunk{
		UID:       input.UID,
		Subject:   strings.ToLower(strings.TrimSpace(input.Subject)),
		Chapter:   strings.TrimSpace(input.Chapter),
		Source:    input.Source,
		Content:   content,
		Embedding: embedding,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store chunk")
	}
	return chunk, nil
}

// UpsertDocument splits a long document into chunks and indexes each one.
// Chunk uids derive from the document uid, so re-ingesting a document
// replaces its chunks in place. Returns the document uid and the stored
// chunks.
func (g *Ingestor) UpsertDocument(ctx context.Context, input ChunkInput) (string, []*store.CurriculumChunk, error) {
	if !g.Ready() {
		return "", nil, errors.New("ingestion requires a store and an embedding provider")
	}
	parts := SplitDocument(input.Content)
	if len(parts) == 0 {
		return "", nil, errors.New("document content is empty")
	}
	if input.UID == "" {
		input.UID = shortuuid.New()
	}

	chunks := make([]*store.CurriculumChunk, 0, len(parts))
	for i, part := range parts {
		chunk, err := g.UpsertChunk(ctx, ChunkInput{
			UID:     fmt.Sprintf("%s-%d", input.UID, i),
			Subject: input.Subject,
			Chapter: input.Chapter,
			Source:  input.Source,
			Content: part,
		})
		if err != nil {
			return "", nil, errors.Wrapf(err, "failed to index chunk %d of %d", i+1, len(parts))
		}
		chunks = append(chunks, chunk)
	}
	return input.UID, chunks, nil
}
