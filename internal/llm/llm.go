// Package llm provides the embedding and generation service capabilities
// consumed by the ingestion, retrieval, and adjudication pipeline.
package llm

import (
	"context"
	"errors"
)

// Role distinguishes embeddings computed for storage from embeddings
// computed for search. Asymmetric embedding models encode the two
// differently, so the role must be preserved end-to-end.
type Role string

const (
	RoleDocument Role = "document"
	RoleQuery    Role = "query"
)

// Service failure classes. Neither is retried anywhere in the pipeline:
// a failed call fails the request attempt immediately.
var (
	ErrEmbeddingService  = errors.New("embedding service failed")
	ErrGenerationService = errors.New("generation service failed")
)

// Embedder produces fixed-dimension vector embeddings for text.
type Embedder interface {
	// EmbedBatch embeds all texts in one service call. The returned slice
	// is parallel to texts. Failures wrap ErrEmbeddingService.
	EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error)
	// Dimensions returns the embedding dimension the service produces.
	Dimensions() int
}

// Generator produces text completions. When structured is true the service
// is asked for JSON output mode; the caller still validates the result.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}
