package ingest

import (
	"context"

	"github.com/alfred-cloud/alfred/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the consumer contract for the vector index write path.
type Index interface {
	EnsureCollection(ctx context.Context, name string, dimensions int) error
	Upsert(ctx context.Context, collection string, points []domain.Point) error
}

// Chunker splits a document into indexable chunks.
type Chunker interface {
	Chunk(doc domain.Document) []Chunk
}
