package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/satei/internal/kb"
	"github.com/hyperjump/satei/internal/llm"
	"github.com/hyperjump/satei/internal/models"
	"go.uber.org/zap"
)

// Retriever embeds the original query plus its expansions, searches the
// knowledge base per embedding, and returns the deduplicated union of hit
// chunks as adjudication context.
type Retriever struct {
	embedder llm.Embedder
	expander *Expander
	logger   *zap.Logger
}

// NewRetriever creates a retriever. expander may be nil to disable query
// expansion; logger may be nil.
func NewRetriever(embedder llm.Embedder, expander *Expander, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{embedder: embedder, expander: expander, logger: logger}
}

// Retrieve gathers up to k chunks per search query. All queries are embedded
// in one batched query-role call; an embedding failure fails the retrieval
// outright — there is no keyword fallback. Hits are deduplicated by ordinal
// (never by content) and returned in ascending ordinal order so repeated
// calls build identical prompts.
func (r *Retriever) Retrieve(ctx context.Context, query string, base *kb.KnowledgeBase, k int) ([]models.Chunk, error) {
	allQueries := []string{query}
	if r.expander != nil {
		allQueries = append(allQueries, r.expander.Expand(ctx, query)...)
	}

	embeddings, err := r.embedder.EmbedBatch(ctx, allQueries, llm.RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("embed queries: %w", err)
	}

	seen := make(map[int]struct{})
	for _, emb := range embeddings {
		hits, err := base.Index.Search(emb, k)
		if err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}
		for _, hit := range hits {
			seen[hit.Ordinal] = struct{}{}
		}
	}
	ordinals := make([]int, 0, len(seen))
	for ord := range seen {
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)

	chunks, err := base.ChunksAt(ordinals)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieved context",
		zap.String("query", query),
		zap.Int("searches", len(allQueries)),
		zap.Int("unique_chunks", len(chunks)))
	return chunks, nil
}
