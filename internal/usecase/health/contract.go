package health

import "context"

// CachePinger checks query cache availability.
type CachePinger interface {
	Connected() bool
}

// VectorChecker checks vector index availability.
type VectorChecker interface {
	HealthCheck(ctx context.Context) error
}

// LLMChecker checks language model provider availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}
