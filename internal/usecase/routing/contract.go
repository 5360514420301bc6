package routing

import "context"

// CollectionLister lists available document collections in store order.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

// Advisor runs the one-word route classification against the generation
// model. Implementations should use a low-latency, low-temperature
// configuration.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Matcher picks the best collection for a query. Pluggable so the default
// token-overlap heuristic can be swapped for an embedding-similarity
// matcher without touching the orchestrator.
type Matcher interface {
	Match(query string, collections []string) string
}
