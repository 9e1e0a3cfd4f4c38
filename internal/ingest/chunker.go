// Package ingest builds knowledge bases from document corpora and uploads.
package ingest

import "fmt"

// Chunker splits text into overlapping fixed-size character windows.
// Windows deliberately ignore sentence and paragraph boundaries: the overlap
// keeps clauses that straddle a boundary retrievable, which matters more
// here than tidy segmentation.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. overlap must be strictly less than size;
// anything else is a configuration error.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap must be in [0, size), got overlap=%d size=%d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows of size characters advancing by
// size-overlap. Text no longer than one window is returned whole. Offsets
// count runes, not bytes, so multi-byte text windows cleanly.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}
	step := c.size - c.overlap
	chunks := make([]string, 0, (len(runes)-c.overlap+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
