package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/db"
	"github.com/alfred-cloud/alfred/internal/domain"
)

// store is the consumer interface for the query cache (ISP).
type store interface {
	db.Pinger
	db.KVStore
}

// Cache is a best-effort response cache over a TTL key-value store.
// It is a pure optimization layer: every failure path degrades to a cache
// miss and nothing here ever returns an error to the caller.
type Cache struct {
	store      store
	namespace  string
	ttl        time.Duration
	opTimeout  time.Duration
	connected  atomic.Bool
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Config holds query cache settings.
type Config struct {
	Namespace string
	TTL       time.Duration
	OpTimeout time.Duration
}

// New creates a query cache and probes store liveness. A failed probe
// leaves the cache disconnected but does not fail construction: the
// service runs without caching.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	ctx context.Context,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	c := &Cache{
		store:      s,
		namespace:  cfg.Namespace,
		ttl:        cfg.TTL,
		opTimeout:  cfg.OpTimeout,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if c.namespace == "" {
		c.namespace = "alfred"
	}
	if c.ttl <= 0 {
		c.ttl = time.Hour
	}
	if c.opTimeout <= 0 {
		c.opTimeout = 5 * time.Second
	}

	if s == nil {
		logger.Info("Query cache disabled")
		return c
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		logger.Warn("Cache store not available, running without cache", zap.Error(err))
		return c
	}

	c.connected.Store(true)
	logger.Info("Query cache connected", zap.String("namespace", c.namespace))
	return c
}

// Connected reports whether the backing store was reachable at the last
// operation. Transitions true to false only; reconnecting requires a restart.
func (c *Cache) Connected() bool {
	return c.connected.Load()
}

// DeriveKey builds a deterministic cache key from the normalized query and
// the canonical filter serialization. Pure, no I/O.
func (c *Cache) DeriveKey(query string, filters domain.Filters) string {
	if filters == nil {
		filters = domain.Filters{}
	}
	payload := struct {
		Query   string         `json:"query"`
		Filters domain.Filters `json:"filters"`
	}{
		Query:   normalizeQuery(query),
		Filters: filters,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// Filters carry only JSON-serializable values in practice; hash
		// the normalized query alone if one ever does not.
		raw = []byte(normalizeQuery(query))
	} else if canonical, cerr := jcs.Transform(raw); cerr == nil {
		raw = canonical
	}

	sum := sha256.Sum256(raw)
	return c.namespace + ":query:" + hex.EncodeToString(sum[:])
}

// Get returns the cached envelope for key, or ok=false on a miss or on any
// store failure. A corrupted entry counts as a miss and triggers one
// best-effort delete of the offending key.
func (c *Cache) Get(ctx context.Context, key string) (*domain.ResponseEnvelope, bool) {
	if !c.connected.Load() {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, err := c.store.Get(opCtx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.incCache("miss")
			c.logger.Debug("Cache MISS", zap.String("key", shortKey(key)))
			return nil, false
		}
		c.fail("Cache GET failed", err, key)
		return nil, false
	}

	var envelope domain.ResponseEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logger.Error("Cache GET failed, invalid payload",
			zap.String("key", shortKey(key)), zap.Error(err))
		c.evict(ctx, key)
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	c.logger.Info("Cache HIT", zap.String("key", shortKey(key)))
	return &envelope, true
}

// Set writes the envelope under key with the process-wide TTL. Fire and
// forget: failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, envelope *domain.ResponseEnvelope) {
	if !c.connected.Load() {
		return
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Error("Cache SET failed, marshal error", zap.Error(err))
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.store.SetWithTTL(opCtx, key, value, c.ttl); err != nil {
		c.fail("Cache SET failed", err, key)
		return
	}
	c.logger.Info("Cache SET", zap.String("key", shortKey(key)))
}

// evict removes a corrupted entry. Failures of the delete are swallowed.
func (c *Cache) evict(ctx context.Context, key string) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.store.Del(opCtx, key); err != nil {
		c.logger.Warn("Failed to delete corrupted cache key",
			zap.String("key", shortKey(key)), zap.Error(err))
		return
	}
	c.logger.Info("Deleted corrupted cache key", zap.String("key", shortKey(key)))
}

// fail logs a store failure and marks the cache disconnected on
// connectivity errors. Timeouts keep the connection: the store may just be
// slow under load.
func (c *Cache) fail(msg string, err error, key string) {
	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error(msg+", store slow", zap.String("key", shortKey(key)), zap.Error(err))
		return
	}
	c.connected.Store(false)
	c.logger.Error(msg+", store disconnected", zap.String("key", shortKey(key)), zap.Error(err))
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// shortKey truncates a key for log lines.
func shortKey(key string) string {
	const n = 24
	if len(key) <= n {
		return key
	}
	return key[:n] + "..."
}
