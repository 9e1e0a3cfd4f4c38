// Package models defines core data structures for chunks, queries, and decisions.
package models

// Chunk is one contiguous text span of a knowledge base, addressed by its
// ordinal position. Chunks are created in bulk at build time and never mutated.
type Chunk struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}
