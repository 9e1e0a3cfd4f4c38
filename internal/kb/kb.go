// Package kb pairs a vector index with its parallel chunk sequence and
// handles persisting the pair to disk.
package kb

import (
	"fmt"

	"github.com/hyperjump/satei/internal/models"
	"github.com/hyperjump/satei/internal/vector"
)

// KnowledgeBase is a vector index and the chunk sequence it was built from.
// Index search results are ordinals into Chunks. A knowledge base is immutable
// once built: the persistent one lives for the process lifetime and is read
// concurrently by all requests; an ephemeral one is confined to its request.
type KnowledgeBase struct {
	Index  *vector.Index
	Chunks []models.Chunk
}

// New builds a knowledge base from parallel chunk texts and embeddings.
// Every embedding must match dimensions, and the two slices must be the same
// length; the i-th embedding belongs to the i-th chunk.
func New(texts []string, embeddings [][]float32, dimensions int) (*KnowledgeBase, error) {
	if len(texts) != len(embeddings) {
		return nil, fmt.Errorf("kb: %d chunks but %d embeddings", len(texts), len(embeddings))
	}
	idx, err := vector.New(dimensions)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(embeddings); err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{Ordinal: i, Text: text}
	}
	return &KnowledgeBase{Index: idx, Chunks: chunks}, nil
}

// ChunksAt maps ordinals to chunks. Ordinals must come from a search against
// this knowledge base's index.
func (k *KnowledgeBase) ChunksAt(ordinals []int) ([]models.Chunk, error) {
	out := make([]models.Chunk, 0, len(ordinals))
	for _, ord := range ordinals {
		if ord < 0 || ord >= len(k.Chunks) {
			return nil, fmt.Errorf("kb: ordinal %d out of range [0, %d)", ord, len(k.Chunks))
		}
		out = append(out, k.Chunks[ord])
	}
	return out, nil
}

// Size returns the number of chunks (and vectors) in the knowledge base.
func (k *KnowledgeBase) Size() int {
	return len(k.Chunks)
}
