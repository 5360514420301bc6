package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
	healthuc "github.com/alfred-cloud/alfred/internal/usecase/health"
	ingestuc "github.com/alfred-cloud/alfred/internal/usecase/ingest"
	queryuc "github.com/alfred-cloud/alfred/internal/usecase/query"
)

const maxIngestDocs = 500

// ingestTimeout bounds a detached background ingest run.
const ingestTimeout = 10 * time.Minute

// Querier runs one query end to end.
type Querier interface {
	Search(ctx context.Context, req queryuc.Request) (domain.ResponseEnvelope, error)
}

// Router classifies a query without executing it.
type Router interface {
	Route(ctx context.Context, query string) domain.RouteDecision
}

// Ingester runs a document ingest batch.
type Ingester interface {
	Run(ctx context.Context, docs []domain.Document, collection string) (ingestuc.Report, error)
}

// CollectionLister lists vector index collections.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API.
type Server struct {
	query             Querier
	routing           Router
	ingest            Ingester
	collections       CollectionLister
	health            HealthChecker
	defaultCollection string
	logger            *zap.Logger
	errorHandlers     []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query Querier,
	routing Router,
	ingest Ingester,
	collections CollectionLister,
	health HealthChecker,
	defaultCollection string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		query:             query,
		routing:           routing,
		ingest:            ingest,
		collections:       collections,
		health:            health,
		defaultCollection: defaultCollection,
		logger:            logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
		sentinelHandler(domain.ErrInvalidK, http.StatusBadRequest, codeInvalidK),
		sentinelHandler(domain.ErrNoDocuments, http.StatusBadRequest, codeNoDocuments),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway, codeRetrievalFailed),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, codeGenerationFailed),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/search", s.SearchQuery)
	r.Post("/api/route", s.RouteQuery)
	r.Post("/api/ingest", s.IngestDocuments)
	r.Get("/api/collections", s.ListCollections)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchQuery handles POST /api/search.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	envelope, err := s.query.Search(r.Context(), queryuc.Request{
		Query:      req.Query,
		K:          req.K,
		Collection: req.Collection,
		UseCache:   useCache,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:            req.Query,
		ResponseEnvelope: envelope,
	})
}

// RouteQuery handles POST /api/route. It exposes the routing decision
// without executing the downstream call, for debugging and dashboards.
func (s *Server) RouteQuery(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.handleDomainError(w, domain.ErrEmptyQuery)
		return
	}

	writeJSON(w, http.StatusOK, s.routing.Route(r.Context(), req.Query))
}

// IngestDocuments handles POST /api/ingest. The batch is validated
// synchronously and processed in the background; the response is 202
// with the accepted counts.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 {
		s.handleDomainError(w, domain.ErrNoDocuments)
		return
	}
	if len(req.Documents) > maxIngestDocs {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxIngestDocs))
		return
	}
	for i, doc := range req.Documents {
		if doc.Text == "" || doc.Source == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("document %d must have text and source", i))
			return
		}
	}

	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{Text: d.Text, Source: d.Source}
	}

	// The request context dies with the response; the run gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		if _, err := s.ingest.Run(ctx, docs, collection); err != nil {
			s.logger.Error("Background ingest failed",
				zap.String("collection", collection),
				zap.Int("documents", len(docs)),
				zap.Error(err),
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, ingestAcceptedResponse{
		Accepted:   len(docs),
		Collection: collection,
	})
}

// ListCollections handles GET /api/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.Collections(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if cols == nil {
		cols = []string{}
	}

	writeJSON(w, http.StatusOK, collectionsResponse{Collections: cols, Count: len(cols)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidK,
		domain.ErrNoDocuments,
		domain.ErrCollectionNotFound,
		domain.ErrRetrieval,
		domain.ErrGeneration,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
