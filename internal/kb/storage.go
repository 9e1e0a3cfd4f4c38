package kb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// On-disk format for the embeddings file: dimensions (uint32), count (uint32),
// then count*dimensions float32 values, all little-endian. The chunk texts
// live in a parallel JSON array file. The two files are a unit: they are
// written together and loaded together, and any dimension or length mismatch
// between them is a fatal load error.

// Save writes the knowledge base to the embeddings/chunks file pair,
// creating parent directories as needed.
func Save(k *KnowledgeBase, embeddingsPath, chunksPath string) error {
	for _, p := range []string{embeddingsPath, chunksPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	f, err := os.Create(embeddingsPath)
	if err != nil {
		return fmt.Errorf("create embeddings file: %w", err)
	}
	defer f.Close()
	dim := k.Index.Dimensions()
	if err := binary.Write(f, binary.LittleEndian, uint32(dim)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(k.Index.Size())); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	buf := make([]byte, dim*4)
	for ord := 0; ord < k.Index.Size(); ord++ {
		vec, err := k.Index.Vector(ord)
		if err != nil {
			return fmt.Errorf("read vector %d: %w", ord, err)
		}
		for j, v := range vec {
			binary.LittleEndian.PutUint32(buf[j*4:(j+1)*4], math.Float32bits(v))
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write vector %d: %w", ord, err)
		}
	}

	texts := make([]string, len(k.Chunks))
	for i, ch := range k.Chunks {
		texts[i] = ch.Text
	}
	data, err := json.Marshal(texts)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	if err := os.WriteFile(chunksPath, data, 0644); err != nil {
		return fmt.Errorf("write chunks file: %w", err)
	}
	return nil
}

// Load reads the embeddings/chunks file pair back into a knowledge base.
// dimensions is the expected embedding dimension; a file with a different
// dimension, or a count that disagrees with the chunks file, fails the load.
func Load(embeddingsPath, chunksPath string, dimensions int) (*KnowledgeBase, error) {
	f, err := os.Open(embeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("open embeddings file: %w", err)
	}
	defer f.Close()
	var dim, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != dimensions {
		return nil, fmt.Errorf("embeddings file has dimension %d, expected %d", dim, dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	embeddings := make([][]float32, 0, count)
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4 : (j+1)*4]))
		}
		embeddings = append(embeddings, vec)
	}

	data, err := os.ReadFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("read chunks file: %w", err)
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("parse chunks file: %w", err)
	}
	if len(texts) != len(embeddings) {
		return nil, fmt.Errorf("chunks file has %d entries but embeddings file has %d", len(texts), len(embeddings))
	}
	return New(texts, embeddings, dimensions)
}

// Exists reports whether both files of the persisted pair are present.
// A lone file is not a usable knowledge base.
func Exists(embeddingsPath, chunksPath string) bool {
	for _, p := range []string{embeddingsPath, chunksPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
