package querycache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn func(ctx context.Context) error
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn  func(ctx context.Context, key string) error

	delCalls int
	setCalls int
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	m.delCalls++
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCache(t *testing.T) (*Cache, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	c := New(context.Background(), ms, Config{Namespace: "alfred"}, nil, zap.NewNop())
	if !c.Connected() {
		t.Fatal("expected cache to be connected after successful probe")
	}
	return c, ms
}
