package domain

// Route is the binary choice between document search and general generation.
type Route string

const (
	// RouteDocumentation sends the query to the vector index.
	RouteDocumentation Route = "documentation"
	// RouteGeneral sends the query to the generation model.
	RouteGeneral Route = "general"
)

// GeneralSource labels the synthetic result produced by the general path.
const GeneralSource = "general_ai"

// Result is one ranked hit, either a document passage or a synthetic
// generation result. Score is the engine's similarity score, higher is
// more similar; no renormalization happens in this layer.
type Result struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

// Metadata describes how a response was produced. CacheHit is the only
// field mutated after construction, flipped to true when the envelope is
// served from cache.
type Metadata struct {
	CacheHit   bool   `json:"cache_hit"`
	Query      string `json:"query"`
	Collection string `json:"collection"`
	K          int    `json:"k"`
}

// ResponseEnvelope is the uniform response returned for every query.
type ResponseEnvelope struct {
	Results  []Result `json:"results"`
	Metadata Metadata `json:"metadata"`
}

// RouteDecision is the outcome of routing one query. Immutable once
// produced and never cached independently.
type RouteDecision struct {
	Route                Route    `json:"route"`
	Collection           string   `json:"collection,omitempty"`
	Reason               string   `json:"reason"`
	AvailableCollections []string `json:"available_collections,omitempty"`
}

// Filters are the auxiliary parameters affecting result content (result
// count, target collection). Two filter sets are equal iff their canonical
// sorted-key serializations are equal.
type Filters map[string]any

// Document is a pre-extracted text unit submitted for ingestion.
type Document struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Point is one embedded chunk ready for the vector index. IDs are
// derived from (source, chunk index), so re-ingesting a source
// overwrites its points in place.
type Point struct {
	ID     uint64
	Vector []float32
	Text   string
	Source string
}
