package store

import (
	"context"
	"database/sql"
)

// Driver is the database driver contract. SQLite backs development and demo
// deployments; PostgreSQL is the production driver and the only one with
// native vector search.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Quiz model related methods.
	UpsertQuiz(ctx context.Context, upsert *Quiz) (*Quiz, error)
	GetQuiz(ctx context.Context, find *FindQuiz) (*Quiz, error)
	ListQuizzes(ctx context.Context, find *FindQuiz) ([]*Quiz, error)
	DeleteQuiz(ctx context.Context, delete *DeleteQuiz) error

	// CurriculumChunk model related methods.
	UpsertCurriculumChunk(ctx context.Context, upsert *CurriculumChunk) (*CurriculumChunk, error)
	ListCurriculumChunks(ctx context.Context, find *FindCurriculumChunk) ([]*CurriculumChunk, error)
	DeleteCurriculumChunks(ctx context.Context, delete *DeleteCurriculumChunk) error

	// SearchCurriculumChunks performs vector similarity search and returns
	// chunks with their similarity scores, best first.
	SearchCurriculumChunks(ctx context.Context, embedding []float32, limit int) ([]*CurriculumChunk, []float32, error)
}
