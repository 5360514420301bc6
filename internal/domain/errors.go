package domain

import "errors"

var (
	// ErrEmptyQuery signals an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrInvalidK signals an out-of-range result count.
	ErrInvalidK = errors.New("k must be between 1 and 20")
	// ErrCollectionNotFound signals a missing vector index collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrRetrieval signals a vector index failure. Unlike cache failures,
	// a retrieval failure is the request failing and surfaces to the caller.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals a generation provider failure.
	ErrGeneration = errors.New("generation failed")
	// ErrNoDocuments signals an ingest request without documents.
	ErrNoDocuments = errors.New("no documents to ingest")
)
