package ingest

import (
	"strings"
	"testing"

	"github.com/alfred-cloud/alfred/internal/domain"
)

func TestChunk_SplitsSentences(t *testing.T) {
	c := NewSentenceChunker(2, 0)

	doc := domain.Document{
		Text:   "First sentence. Second sentence. Third sentence. Fourth sentence.",
		Source: "https://docs/a",
	}
	chunks := c.Chunk(doc)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "First sentence. Second sentence." {
		t.Fatalf("unexpected first chunk: %q", chunks[0].Text)
	}
	if chunks[1].Index != 1 || chunks[1].Source != "https://docs/a" {
		t.Fatalf("unexpected chunk metadata: %+v", chunks[1])
	}
}

func TestChunk_Overlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)

	doc := domain.Document{Text: "One. Two. Three.", Source: "s"}
	chunks := c.Chunk(doc)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	// The second chunk re-starts one sentence back.
	if !strings.HasPrefix(chunks[1].Text, "Two.") {
		t.Fatalf("expected overlap to carry the previous sentence, got %q", chunks[1].Text)
	}
}

func TestChunk_NoTerminatorFallsBackToWholeText(t *testing.T) {
	c := NewSentenceChunker(5, 0)

	chunks := c.Chunk(domain.Document{Text: "no punctuation at all", Source: "s"})

	if len(chunks) != 1 || chunks[0].Text != "no punctuation at all" {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestChunk_EmptyDocument(t *testing.T) {
	c := NewSentenceChunker(5, 0)

	if chunks := c.Chunk(domain.Document{Text: "   \n", Source: "s"}); chunks != nil {
		t.Fatalf("expected no chunks for whitespace text, got %+v", chunks)
	}
}

func TestNewSentenceChunker_BadConfigFallsBack(t *testing.T) {
	c := NewSentenceChunker(2, 5)

	// Overlap >= chunk size would loop forever; it must be dropped.
	doc := domain.Document{Text: "One. Two. Three. Four.", Source: "s"}
	if chunks := c.Chunk(doc); len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
}
