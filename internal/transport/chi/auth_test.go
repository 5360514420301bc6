package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authGet(t *testing.T, handler http.Handler, path, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuth_DisabledWithoutKeys(t *testing.T) {
	handler := BearerAuthMiddleware(nil)(okHandler())

	if rr := authGet(t, handler, "/api/search", ""); rr.Code != http.StatusOK {
		t.Errorf("no keys: got %d, want %d", rr.Code, http.StatusOK)
	}

	handler = BearerAuthMiddleware([]string{"", ""})(okHandler())
	if rr := authGet(t, handler, "/api/search", ""); rr.Code != http.StatusOK {
		t.Errorf("blank keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	if rr := authGet(t, handler, "/api/search", "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuth_Rejections(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	cases := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"wrong token", "Bearer nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := authGet(t, handler, "/api/search", tc.authorization); rr.Code != http.StatusUnauthorized {
				t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuth_ProbesExempt(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	for _, path := range []string{"/health", "/metrics"} {
		if rr := authGet(t, handler, path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
