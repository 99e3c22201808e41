// Package retrieval provides the curriculum retriever boundary and the
// context builder that grounds tutoring answers in curriculum text.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/vidyalab/vidya/plugin/ai"
)

// Metadata describes where a curriculum chunk came from.
type Metadata struct {
	Subject string `json:"subject,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Source  string `json:"source"`
}

// Document is one retrieved curriculum chunk. Documents are transient:
// produced per request and discarded after context assembly.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Retriever is the vector-similarity index boundary.
// Implementations must tolerate an empty or unready index by returning an
// empty list rather than an error.
type Retriever interface {
	// Search returns ranked documents for the query.
	Search(ctx context.Context, query string) ([]Document, error)

	// Ready reports whether the index is available.
	Ready() bool
}

// ChunkSearcher is the storage-side search contract implemented by the
// curriculum chunk store.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, embedding []float32, limit int) ([]Document, error)
}

// CurriculumRetriever searches the curriculum chunk store by embedding the
// query and running a vector similarity search.
type CurriculumRetriever struct {
	embedder ai.EmbeddingService
	searcher ChunkSearcher
	limit    int
}

// NewCurriculumRetriever creates a retriever over the chunk store.
// embedder or searcher may be nil; the retriever then reports not ready and
// every search returns an empty list.
func NewCurriculumRetriever(embedder ai.EmbeddingService, searcher ChunkSearcher, limit int) *CurriculumRetriever {
	if limit <= 0 {
		limit = 5
	}
	return &CurriculumRetriever{
		embedder: embedder,
		searcher: searcher,
		limit:    limit,
	}
}

func (r *CurriculumRetriever) Ready() bool {
	return r.embedder != nil && r.searcher != nil
}

func (r *CurriculumRetriever) Search(ctx context.Context, query string) ([]Document, error) {
	if !r.Ready() {
		return []Document{}, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed", "error", err)
		return nil, err
	}

	docs, err := r.searcher.SearchChunks(ctx, embedding, r.limit)
	if err != nil {
		return nil, err
	}
	return docs, nil
}
