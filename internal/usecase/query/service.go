package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
	"github.com/alfred-cloud/alfred/internal/logger"
)

// DefaultK is the result count when the caller does not pass one.
const DefaultK = 5

// MaxK bounds the result count.
const MaxK = 20

// Request is one search invocation.
type Request struct {
	Query string
	// K is the result count; 0 means DefaultK.
	K int
	// Collection overrides the cache-key collection. Empty means the
	// configured default. Routing still picks the search collection.
	Collection string
	UseCache   bool
}

// Service orchestrates one query: cache check, routing, the downstream
// search or generation call, and the cache write-back.
type Service struct {
	cache             Cache
	router            Router
	retriever         Retriever
	generator         Generator
	defaultCollection string
}

// New creates a query orchestrator. All collaborators are injected; the
// service holds no ambient global state.
func New(cache Cache, router Router, retriever Retriever, generator Generator, defaultCollection string) *Service {
	return &Service{
		cache:             cache,
		router:            router,
		retriever:         retriever,
		generator:         generator,
		defaultCollection: defaultCollection,
	}
}

// Search handles one query end to end and returns the response envelope.
//
// Within one request the phases run strictly in order: cache check,
// routing, downstream call, cache write. Across requests there is no
// ordering guarantee; two concurrent misses for the same key both write,
// which is harmless since the values are expected to match.
func (s *Service) Search(ctx context.Context, req Request) (domain.ResponseEnvelope, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		return domain.ResponseEnvelope{}, domain.ErrEmptyQuery
	}
	k := req.K
	if k == 0 {
		k = DefaultK
	}
	if k < 1 || k > MaxK {
		return domain.ResponseEnvelope{}, fmt.Errorf("%w: got %d", domain.ErrInvalidK, k)
	}

	keyCollection := req.Collection
	if keyCollection == "" {
		keyCollection = s.defaultCollection
	}

	// The key is computed before routing, over the requested collection;
	// the write in the final step reuses it. The routed collection lands
	// in metadata only.
	key := s.cache.DeriveKey(req.Query, domain.Filters{"collection": keyCollection, "k": k})

	if req.UseCache {
		if cached, ok := s.cache.Get(ctx, key); ok {
			cached.Metadata.CacheHit = true
			log.Info("Serving query from cache", zap.String("query", truncate(req.Query)))
			return *cached, nil
		}
	}

	decision := s.router.Route(ctx, req.Query)
	log.Info("Routed query",
		zap.String("route", string(decision.Route)),
		zap.String("reason", decision.Reason),
		zap.String("collection", decision.Collection),
	)

	envelope, err := s.execute(ctx, req.Query, k, decision)
	if err != nil {
		return domain.ResponseEnvelope{}, err
	}

	// Skip the write-back for cancelled requests: no partial cache write.
	if req.UseCache && ctx.Err() == nil {
		s.cache.Set(ctx, key, &envelope)
	}

	return envelope, nil
}

// execute runs the routed downstream call and builds the envelope. The
// original query text is forwarded untouched; normalization is for cache
// keys and routing only.
func (s *Service) execute(
	ctx context.Context, query string, k int, decision domain.RouteDecision,
) (domain.ResponseEnvelope, error) {
	switch decision.Route {
	case domain.RouteDocumentation:
		results, err := s.retriever.Search(ctx, query, k, decision.Collection)
		if err != nil {
			return domain.ResponseEnvelope{}, err
		}
		return domain.ResponseEnvelope{
			Results: results,
			Metadata: domain.Metadata{
				CacheHit:   false,
				Query:      query,
				Collection: decision.Collection,
				K:          k,
			},
		}, nil

	case domain.RouteGeneral:
		answer, err := s.generator.Generate(ctx, query)
		if err != nil {
			return domain.ResponseEnvelope{}, err
		}
		return domain.ResponseEnvelope{
			Results: []domain.Result{
				{Text: answer, Source: domain.GeneralSource, Score: 1.0},
			},
			Metadata: domain.Metadata{
				CacheHit: false,
				Query:    query,
				K:        k,
			},
		}, nil

	default:
		return domain.ResponseEnvelope{}, fmt.Errorf("unknown route %q", decision.Route)
	}
}

func truncate(s string) string {
	const n = 50
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
