package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/config"
	dbRedis "github.com/alfred-cloud/alfred/internal/db/redis"
	logpkg "github.com/alfred-cloud/alfred/internal/logger"
	"github.com/alfred-cloud/alfred/internal/metrics"
	"github.com/alfred-cloud/alfred/internal/repository/querycache"
	"github.com/alfred-cloud/alfred/internal/repository/vector"
	chiTransport "github.com/alfred-cloud/alfred/internal/transport/chi"
	openaiTransport "github.com/alfred-cloud/alfred/internal/transport/openai"
	healthuc "github.com/alfred-cloud/alfred/internal/usecase/health"
	ingestuc "github.com/alfred-cloud/alfred/internal/usecase/ingest"
	queryuc "github.com/alfred-cloud/alfred/internal/usecase/query"
	routinguc "github.com/alfred-cloud/alfred/internal/usecase/routing"
	"github.com/alfred-cloud/alfred/internal/version"
)

// cacheReadinessTimeout bounds the startup wait for the cache store. The
// cache is optional, so an unreachable store degrades instead of failing.
const cacheReadinessTimeout = 15 * time.Second

func main() {
	// Pick up a .env file if one exists (local development convenience).
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting alfred API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("vector_host", cfg.Vector.Host),
		zap.String("llm_base_url", cfg.LLM.BaseURL),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterQueryMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	// Query cache is optional. A missing or unreachable store leaves the
	// service running uncached.
	var queryCache *querycache.Cache
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, cacheReadinessTimeout); err != nil {
			logger.Warn("Cache store not ready, starting without it", zap.Error(err))
		}
		queryCache = querycache.New(ctx, store, querycache.Config{
			Namespace: cfg.Cache.Namespace,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
			OpTimeout: time.Duration(cfg.Cache.OpTimeoutSec) * time.Second,
		}, metrics.QueryCacheTotal, logger)
	} else {
		queryCache = querycache.New(ctx, nil, querycache.Config{
			Namespace: cfg.Cache.Namespace,
		}, metrics.QueryCacheTotal, logger)
	}

	// One OpenAI-compatible client serves generation, routing advice and
	// embeddings.
	llm := openaiTransport.New(&openaiTransport.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Generation:     modelOptions(cfg.LLM.Generation),
		Advisor:        modelOptions(cfg.LLM.Advisor),
		Logger:         logger,
	})

	vectorClient, err := vector.New(vector.Config{
		Host:    cfg.Vector.Host,
		Port:    cfg.Vector.Port,
		APIKey:  cfg.Vector.APIKey,
		UseTLS:  cfg.Vector.UseTLS,
		Timeout: time.Duration(cfg.Vector.TimeoutSec) * time.Second,
	}, llm, logger)
	if err != nil {
		logger.Fatal("Failed to connect to vector index", zap.Error(err))
	}
	defer vectorClient.Close()

	// Use case services
	routingSvc := routinguc.New(vectorClient, llm)
	querySvc := queryuc.New(queryCache, routingSvc, vectorClient, llm, cfg.Vector.DefaultCollection)
	ingestSvc := ingestuc.New(
		vectorClient,
		llm,
		ingestuc.NewSentenceChunker(cfg.Ingest.ChunkSentences, cfg.Ingest.OverlapSentences),
		cfg.Ingest.PoolSize,
		cfg.Ingest.VectorDimensions,
		logger,
	)

	// Health service. The cache check is only wired when the cache is on;
	// a disabled cache is not a degradation.
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		cachePinger = queryCache
	}
	healthSvc := healthuc.New(cachePinger, vectorClient, llm)

	server := chiTransport.NewServer(
		querySvc, routingSvc, ingestSvc, vectorClient, healthSvc,
		cfg.Vector.DefaultCollection, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func modelOptions(mc config.ModelConfig) openaiTransport.ModelOptions {
	return openaiTransport.ModelOptions{
		Model:       mc.Model,
		Temperature: mc.Temperature,
		TopP:        mc.TopP,
		MaxTokens:   mc.MaxTokens,
		Timeout:     time.Duration(mc.TimeoutSec) * time.Second,
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
