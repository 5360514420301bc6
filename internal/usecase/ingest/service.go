package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
)

// Report summarizes one ingest run.
type Report struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Stored    int `json:"stored"`
	Failed    int `json:"failed"`
}

// Service ingests pre-extracted documents: chunk, embed, upsert.
// Embedding fans out over a bounded worker pool so a large batch cannot
// spawn unbounded goroutines; failures are counted, not hidden.
type Service struct {
	index      Index
	embed      Embedder
	chunker    Chunker
	poolSize   int
	dimensions int
	logger     *zap.Logger
}

// New creates an ingest service.
func New(index Index, embed Embedder, chunker Chunker, poolSize, dimensions int, logger *zap.Logger) *Service {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Service{
		index:      index,
		embed:      embed,
		chunker:    chunker,
		poolSize:   poolSize,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Run ingests documents into the collection and reports counts. A partial
// embedding failure degrades the batch (failed chunks are skipped); an
// index failure fails the run.
func (s *Service) Run(ctx context.Context, docs []domain.Document, collection string) (Report, error) {
	if len(docs) == 0 {
		return Report{}, domain.ErrNoDocuments
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.chunker.Chunk(doc)...)
	}
	if len(chunks) == 0 {
		return Report{}, fmt.Errorf("%w: documents contain no text", domain.ErrNoDocuments)
	}

	if err := s.index.EnsureCollection(ctx, collection, s.dimensions); err != nil {
		return Report{}, fmt.Errorf("ensure collection: %w", err)
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	points := make([]domain.Point, len(chunks))
	ok := make([]bool, len(chunks))
	var failed atomic.Int64
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vec, embedErr := s.embed.Embed(ctx, chunk.Text)
			if embedErr != nil {
				failed.Add(1)
				s.logger.Warn("Failed to embed chunk",
					zap.String("source", chunk.Source),
					zap.Int("chunk", chunk.Index),
					zap.Error(embedErr),
				)
				return
			}
			points[i] = domain.Point{
				ID:     pointID(chunk.Source, chunk.Index),
				Vector: vec,
				Text:   chunk.Text,
				Source: chunk.Source,
			}
			ok[i] = true
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()

	stored := make([]domain.Point, 0, len(chunks))
	for i, point := range points {
		if ok[i] {
			stored = append(stored, point)
		}
	}

	if len(stored) > 0 {
		if err := s.index.Upsert(ctx, collection, stored); err != nil {
			return Report{}, fmt.Errorf("upsert: %w", err)
		}
	}

	report := Report{
		Documents: len(docs),
		Chunks:    len(chunks),
		Stored:    len(stored),
		Failed:    int(failed.Load()),
	}
	s.logger.Info("Ingest run finished",
		zap.String("collection", collection),
		zap.Int("documents", report.Documents),
		zap.Int("chunks", report.Chunks),
		zap.Int("stored", report.Stored),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// pointID derives a stable point ID from (source, chunk index).
func pointID(source string, index int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	_, _ = h.Write([]byte("#"))
	_, _ = h.Write([]byte(strconv.Itoa(index)))
	return h.Sum64()
}
