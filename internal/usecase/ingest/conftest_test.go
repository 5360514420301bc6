package ingest

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
)

type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	fn    func(text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(text)
	}
	return []float32{0.1, 0.2}, nil
}

type mockIndex struct {
	mu            sync.Mutex
	ensureCalls   int
	ensureErr     error
	upserted      []domain.Point
	upsertErr     error
	lastDim       int
	lastUpsertCol string
}

func (m *mockIndex) EnsureCollection(_ context.Context, _ string, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	m.lastDim = dimensions
	return m.ensureErr
}

func (m *mockIndex) Upsert(_ context.Context, collection string, points []domain.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUpsertCol = collection
	m.upserted = append(m.upserted, points...)
	return m.upsertErr
}

func newTestService(t *testing.T, embed *mockEmbedder, index *mockIndex) *Service {
	t.Helper()
	return New(index, embed, NewSentenceChunker(2, 0), 2, 384, zap.NewNop())
}
