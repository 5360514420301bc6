package ingest

import (
	"regexp"
	"strings"

	"github.com/alfred-cloud/alfred/internal/domain"
)

// Chunk is one indexable slice of a document.
type Chunk struct {
	Text   string
	Source string
	// Index is the chunk position within its source document.
	Index int
}

// SentenceChunker splits text into sentence-based chunks with overlap.
// Overlapping neighbors keep context that a hard cut would lose.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

var _ Chunker = (*SentenceChunker)(nil)

// NewSentenceChunker creates a chunker. overlap must be smaller than
// sentences; out-of-range values fall back to defaults.
func NewSentenceChunker(sentences, overlap int) *SentenceChunker {
	if sentences <= 0 {
		sentences = 5
	}
	if overlap < 0 || overlap >= sentences {
		overlap = 0
	}
	return &SentenceChunker{
		sentencesPerChunk: sentences,
		overlapSentences:  overlap,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk implements Chunker. Whitespace-only documents yield no chunks.
func (c *SentenceChunker) Chunk(doc domain.Document) []Chunk {
	sentences := c.splitter.FindAllString(doc.Text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(doc.Text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []Chunk
	i, idx := 0, 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, Chunk{
			Text:   strings.Join(sentences[i:end], " "),
			Source: doc.Source,
			Index:  idx,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks
}
