package query

import (
	"context"

	"github.com/alfred-cloud/alfred/internal/domain"
)

// Cache is the consumer contract for the response cache. Get and Set
// never fail: a broken cache behaves like an empty one.
type Cache interface {
	DeriveKey(query string, filters domain.Filters) string
	Get(ctx context.Context, key string) (*domain.ResponseEnvelope, bool)
	Set(ctx context.Context, key string, envelope *domain.ResponseEnvelope)
}

// Router decides the handling path for a query. Never fails.
type Router interface {
	Route(ctx context.Context, query string) domain.RouteDecision
}

// Retriever runs similarity search against the vector index.
type Retriever interface {
	Search(ctx context.Context, query string, k int, collection string) ([]domain.Result, error)
}

// Generator produces a free-form answer for the raw query.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
