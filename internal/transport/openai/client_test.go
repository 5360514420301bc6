package openai

import (
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestParseAPIError_RequestErrorWithDetail(t *testing.T) {
	err := parseAPIError(&openai.RequestError{
		HTTPStatusCode: 503,
		Body:           []byte(`{"detail": "model overloaded"}`),
	})

	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAPIError_APIError(t *testing.T) {
	err := parseAPIError(&openai.APIError{
		HTTPStatusCode: 429,
		Message:        "rate limit exceeded",
	})

	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAPIError_PlainError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := parseAPIError(cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be preserved in the chain")
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"boom"}`)); got != "boom" {
		t.Fatalf("expected detail, got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Fatalf("expected empty detail for invalid body, got %q", got)
	}
}
