package query

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/alfred-cloud/alfred/internal/domain"
)

// mockCache is an in-memory cache honoring the never-fails contract.
// When down, every Get misses and every Set drops, like the real adapter
// with connected=false.
type mockCache struct {
	entries  map[string][]byte
	down     bool
	getCalls int
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]byte{}}
}

func (m *mockCache) DeriveKey(query string, filters domain.Filters) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	raw, _ := json.Marshal(map[string]any{"query": normalized, "filters": filters})
	return "alfred:query:" + string(raw)
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.ResponseEnvelope, bool) {
	m.getCalls++
	if m.down {
		return nil, false
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	var envelope domain.ResponseEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false
	}
	return &envelope, true
}

func (m *mockCache) Set(_ context.Context, key string, envelope *domain.ResponseEnvelope) {
	m.setCalls++
	if m.down {
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	m.entries[key] = data
}

type mockRouter struct {
	decision domain.RouteDecision
	calls    int
}

func (m *mockRouter) Route(_ context.Context, _ string) domain.RouteDecision {
	m.calls++
	return m.decision
}

type mockRetriever struct {
	results []domain.Result
	err     error
	calls   int
	lastK   int
	lastCol string
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int, collection string) ([]domain.Result, error) {
	m.calls++
	m.lastK = k
	m.lastCol = collection
	return m.results, m.err
}

type mockGenerator struct {
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) Generate(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.answer, m.err
}

func docDecision(collection string) domain.RouteDecision {
	return domain.RouteDecision{
		Route:                domain.RouteDocumentation,
		Collection:           collection,
		Reason:               "advisor routing",
		AvailableCollections: []string{collection},
	}
}
