package chi

import "github.com/alfred-cloud/alfred/internal/domain"

// errorCode is the machine-readable error discriminator.
type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeValidationFailed   errorCode = "validation_failed"
	codeEmptyQuery         errorCode = "empty_query"
	codeInvalidK           errorCode = "invalid_k"
	codeNoDocuments        errorCode = "no_documents"
	codeCollectionNotFound errorCode = "collection_not_found"
	codeRetrievalFailed    errorCode = "retrieval_failed"
	codeGenerationFailed   errorCode = "generation_failed"
	codeInternalError      errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query      string `json:"query"`
	K          int    `json:"k,omitempty"`
	Collection string `json:"collection,omitempty"`
	// UseCache defaults to true when absent.
	UseCache *bool `json:"use_cache,omitempty"`
}

// searchResponse echoes the caller's query verbatim alongside the
// envelope; metadata carries the same text for cached entries.
type searchResponse struct {
	Query string `json:"query"`
	domain.ResponseEnvelope
}

type routeRequest struct {
	Query string `json:"query"`
}

type ingestDocument struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type ingestRequest struct {
	Documents  []ingestDocument `json:"documents"`
	Collection string           `json:"collection,omitempty"`
}

type ingestAcceptedResponse struct {
	Accepted   int    `json:"accepted"`
	Collection string `json:"collection"`
}

type collectionsResponse struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
