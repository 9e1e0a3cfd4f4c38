package llm

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/satei/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. The same text always
// gets the same embedding, and the role perturbs the vector slightly so
// document and query embeddings are related but not identical, like an
// asymmetric model.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimension.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockEmbedder{dimensions: dimensions}
}

// EmbedBatch returns one deterministic embedding per text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text, role)
	}
	return out, nil
}

func (e *MockEmbedder) embed(text string, role Role) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	roleShift := 0.0
	if role == RoleQuery {
		roleShift = 0.003
	}
	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(seed%100003)*float64(i+1)*0.37) + roleShift)
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// MockGenerator is a scripted generator for tests. Responses are returned in
// order; after the script is exhausted the last response repeats. A non-nil
// Err is returned for every call instead.
type MockGenerator struct {
	Responses []string
	Err       error
	Calls     []string // prompts received, in order
	next      int
}

// Generate returns the next scripted response and records the prompt.
func (g *MockGenerator) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	g.Calls = append(g.Calls, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if len(g.Responses) == 0 {
		return "", nil
	}
	i := g.next
	if i >= len(g.Responses) {
		i = len(g.Responses) - 1
	}
	g.next++
	return g.Responses[i], nil
}
