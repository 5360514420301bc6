package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfred-cloud/alfred/internal/domain"
	"github.com/alfred-cloud/alfred/internal/metrics"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client is a thin shim over the external vector index. It embeds query
// text, runs similarity search, and normalizes hits into domain results.
// No renormalization of scores happens here; ranking is the engine's.
type Client struct {
	qdrant  *qdrant.Client
	embed   Embedder
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds vector index connection settings.
type Config struct {
	Host    string
	Port    int
	APIKey  string
	UseTLS  bool
	Timeout time.Duration
}

// New connects to the vector index.
func New(cfg Config, embed Embedder, logger *zap.Logger) (*Client, error) {
	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{qdrant: qc, embed: embed, timeout: timeout, logger: logger}, nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() {
	_ = c.qdrant.Close()
}

// Search embeds the query and returns up to k hits from the collection,
// in engine ranking order. Any failure wraps domain.ErrRetrieval: a search
// failure is the request failing, unlike cache failures.
func (c *Client) Search(ctx context.Context, query string, k int, collection string) ([]domain.Result, error) {
	vec, err := c.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrieval, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	limit := uint64(k)
	points, err := c.qdrant.Query(opCtx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(collection, "error").Inc()
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrRetrieval, domain.ErrCollectionNotFound, collection)
		}
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrRetrieval, collection, err)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(collection, "success").Inc()
	c.logger.Debug("Vector search done",
		zap.String("collection", collection),
		zap.Int("hits", len(points)),
	)
	return pointsToResults(points), nil
}

// Collections lists collection names in store-reported order. The routing
// fallback depends on this ordering being stable within one store state.
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names, err := c.qdrant.ListCollections(opCtx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// EnsureCollection creates the collection with a cosine-distance dense
// vector schema if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exists, err := c.qdrant.CollectionExists(opCtx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}

	err = c.qdrant.CreateCollection(opCtx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	c.logger.Info("Created collection", zap.String("collection", name))
	return nil
}

// Upsert writes points into the collection. Point IDs are caller-derived
// and stable, so re-ingesting the same source overwrites in place.
func (c *Client) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":   p.Text,
				"source": p.Source,
			}),
		}
	}

	if _, err := c.qdrant.Upsert(opCtx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
	}); err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// HealthCheck verifies index availability.
func (c *Client) HealthCheck(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.qdrant.HealthCheck(opCtx); err != nil {
		return fmt.Errorf("vector index health check: %w", err)
	}
	return nil
}

// pointsToResults maps scored points into domain results, preserving order.
func pointsToResults(points []*qdrant.ScoredPoint) []domain.Result {
	results := make([]domain.Result, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		results = append(results, domain.Result{
			Text:   payload["text"].GetStringValue(),
			Source: payloadSource(payload["source"]),
			Score:  p.GetScore(),
		})
	}
	return results
}

func payloadSource(v *qdrant.Value) string {
	if s := v.GetStringValue(); s != "" {
		return s
	}
	return "unknown"
}
