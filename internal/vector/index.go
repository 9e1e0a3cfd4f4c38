// Package vector provides an exact in-memory nearest-neighbour index over
// squared Euclidean distance. Knowledge bases here are small (one policy
// corpus or one uploaded document), so brute-force exact search is the
// design point: which clauses surface downstream depends on it.
package vector

import (
	"fmt"
	"sort"
	"sync"
)

// Index is a flat vector index. Vectors are addressed by ordinal: the
// position among all vectors ever added, 0-based and never reused.
type Index struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// Result is a single search hit.
type Result struct {
	Ordinal  int
	Distance float64 // squared Euclidean distance to the query
}

// New creates an index for vectors of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vector: dimensions must be positive, got %d", dimensions)
	}
	return &Index{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Add appends vectors in input order. The ordinal of each vector is its
// position among all vectors ever added. All vectors must match the index
// dimension; on mismatch nothing is appended.
func (idx *Index) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != idx.dimensions {
			return fmt.Errorf("vector: dimension mismatch at input %d: got %d, expected %d", i, len(v), idx.dimensions)
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, v := range vectors {
		vec := make([]float32, idx.dimensions)
		copy(vec, v)
		idx.vectors = append(idx.vectors, vec)
	}
	return nil
}

// Search returns up to k hits ordered by ascending distance. When the index
// holds fewer than k vectors, all of them are returned. Exact distance ties
// break toward the lower ordinal, so repeated calls are deterministic.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("vector: query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if k <= 0 || len(idx.vectors) == 0 {
		return nil, nil
	}
	results := make([]Result, len(idx.vectors))
	for ord, vec := range idx.vectors {
		var d float64
		for j := 0; j < idx.dimensions; j++ {
			diff := float64(query[j] - vec[j])
			d += diff * diff
		}
		results[ord] = Result{Ordinal: ord, Distance: d}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Ordinal < results[j].Ordinal
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Vector returns a copy of the vector at ordinal, or an error when the
// ordinal is out of range.
func (idx *Index) Vector(ordinal int) ([]float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if ordinal < 0 || ordinal >= len(idx.vectors) {
		return nil, fmt.Errorf("vector: ordinal %d out of range [0, %d)", ordinal, len(idx.vectors))
	}
	out := make([]float32, idx.dimensions)
	copy(out, idx.vectors[ordinal])
	return out, nil
}

// Dimensions returns the vector dimension of the index.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Size returns the number of vectors in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}
