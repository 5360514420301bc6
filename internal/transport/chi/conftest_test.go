package chi

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
	healthuc "github.com/alfred-cloud/alfred/internal/usecase/health"
	ingestuc "github.com/alfred-cloud/alfred/internal/usecase/ingest"
	queryuc "github.com/alfred-cloud/alfred/internal/usecase/query"
)

type mockQuerier struct {
	envelope domain.ResponseEnvelope
	err      error
	lastReq  queryuc.Request
}

func (m *mockQuerier) Search(_ context.Context, req queryuc.Request) (domain.ResponseEnvelope, error) {
	m.lastReq = req
	return m.envelope, m.err
}

type mockRouter struct {
	decision domain.RouteDecision
}

func (m *mockRouter) Route(_ context.Context, _ string) domain.RouteDecision {
	return m.decision
}

type mockIngester struct {
	mu      sync.Mutex
	runs    int
	done    chan struct{}
	lastCol string
	err     error
}

func (m *mockIngester) Run(_ context.Context, docs []domain.Document, collection string) (ingestuc.Report, error) {
	m.mu.Lock()
	m.runs++
	m.lastCol = collection
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return ingestuc.Report{Documents: len(docs)}, m.err
}

type mockLister struct {
	collections []string
	err         error
}

func (m *mockLister) Collections(_ context.Context) ([]string, error) {
	return m.collections, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type serverMocks struct {
	query  *mockQuerier
	router *mockRouter
	ingest *mockIngester
	lister *mockLister
	health *mockHealth
}

func newTestServer(t *testing.T) (*Server, *serverMocks) {
	t.Helper()
	m := &serverMocks{
		query:  &mockQuerier{},
		router: &mockRouter{},
		ingest: &mockIngester{},
		lister: &mockLister{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"vector": healthuc.CheckOK},
		}},
	}
	s := NewServer(m.query, m.router, m.ingest, m.lister, m.health, "alfred_knowledge", zap.NewNop())
	return s, m
}
