package routing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
	"github.com/alfred-cloud/alfred/internal/logger"
	"github.com/alfred-cloud/alfred/internal/metrics"
)

// Decision reason strings. Stable: callers and dashboards key off them.
const (
	ReasonAdvisor       = "advisor routing"
	ReasonFallback      = "fallback routing"
	ReasonNoCollections = "no collections available"
)

// Service decides whether a query goes to documentation search or to
// general generation. It never returns an error: every failure mode
// degrades to a deterministic decision.
type Service struct {
	collections CollectionLister
	advisor     Advisor
	matcher     Matcher
}

// New creates a routing service with the default token-overlap matcher.
func New(collections CollectionLister, advisor Advisor) *Service {
	return &Service{
		collections: collections,
		advisor:     advisor,
		matcher:     TokenOverlapMatcher{},
	}
}

// WithMatcher replaces the collection matching strategy.
func (s *Service) WithMatcher(m Matcher) *Service {
	s.matcher = m
	return s
}

// Route classifies the query. The advisor model is consulted first; if it
// is unreachable, times out, or answers with neither expected token, the
// decision falls back to collection-based routing.
func (s *Service) Route(ctx context.Context, query string) domain.RouteDecision {
	log := logger.FromContext(ctx)

	available, err := s.collections.Collections(ctx)
	if err != nil {
		log.Warn("Failed to list collections, routing to general", zap.Error(err))
		available = nil
	}
	if len(available) == 0 {
		metrics.RouteDecisionsTotal.WithLabelValues(string(domain.RouteGeneral), "no_collections").Inc()
		return domain.RouteDecision{Route: domain.RouteGeneral, Reason: ReasonNoCollections}
	}

	answer, err := s.advisor.Advise(ctx, buildAdvisorPrompt(query, available))
	if err != nil {
		log.Warn("Advisor unavailable, using fallback routing", zap.Error(err))
		return s.fallback(query, available)
	}

	answer = strings.ToLower(answer)
	switch {
	case strings.Contains(answer, string(domain.RouteDocumentation)):
		metrics.RouteDecisionsTotal.WithLabelValues(string(domain.RouteDocumentation), "advisor").Inc()
		return domain.RouteDecision{
			Route:                domain.RouteDocumentation,
			Collection:           s.matcher.Match(query, available),
			Reason:               ReasonAdvisor,
			AvailableCollections: available,
		}
	case strings.Contains(answer, string(domain.RouteGeneral)):
		metrics.RouteDecisionsTotal.WithLabelValues(string(domain.RouteGeneral), "advisor").Inc()
		return domain.RouteDecision{
			Route:                domain.RouteGeneral,
			Reason:               ReasonAdvisor,
			AvailableCollections: available,
		}
	}

	log.Info("Advisor answer ambiguous, using fallback routing", zap.String("answer", answer))
	return s.fallback(query, available)
}

// fallback routes deterministically with no external call: collections
// exist, so documentation search is assumed possible.
func (s *Service) fallback(query string, available []string) domain.RouteDecision {
	metrics.RouteDecisionsTotal.WithLabelValues(string(domain.RouteDocumentation), "fallback").Inc()
	return domain.RouteDecision{
		Route:                domain.RouteDocumentation,
		Collection:           s.matcher.Match(query, available),
		Reason:               ReasonFallback,
		AvailableCollections: available,
	}
}

// buildAdvisorPrompt asks for a strict one-word answer given the
// collections known at decision time.
func buildAdvisorPrompt(query string, collections []string) string {
	return fmt.Sprintf(
		`Analyze this query and determine if it should be routed to 'documentation' or 'general' AI.

Available knowledge collections: %s

Route to 'documentation' if the query is about topics that might be found in the available collections or if it's asking for specific information, how-to guides, or technical documentation.

Route to 'general' if the query is about:
- General conversation or creative tasks
- Topics clearly outside the scope of available collections
- Personal assistance unrelated to technical documentation

Query: %q

Respond with exactly one word: either 'documentation' or 'general'`,
		strings.Join(collections, ", "), query,
	)
}
