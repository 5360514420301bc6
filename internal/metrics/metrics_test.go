package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	// A second call must be a no-op, not a duplicate-collector panic.
	RegisterHTTPMetrics()
}

func TestRegisterQueryMetrics_Idempotent(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics()
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	RegisterHTTPMetrics()

	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/api/items/{id}", "404")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/items/42", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta: got %v, want 1", got)
	}
}
