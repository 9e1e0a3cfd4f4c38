package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/satei/internal/extract"
	"github.com/hyperjump/satei/internal/llm"
)

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	chunker, err := NewChunker(1000, 200)
	if err != nil {
		t.Fatal(err)
	}
	return NewIngestor(extract.NewExtractor(), llm.NewMockEmbedder(8), chunker)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildFromCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_policy.txt", "Knee surgery is covered after a 90 day waiting period.")
	writeFile(t, dir, "b_policy.md", "Dental procedures are excluded from coverage.")

	ing := newTestIngestor(t)
	built, err := ing.BuildFromCorpus(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if built.Size() != 2 {
		t.Fatalf("size = %d, want 2 (one chunk per short file)", built.Size())
	}
	// Files iterate in name order, so ordinal 0 is a_policy's chunk.
	if !strings.Contains(built.Chunks[0].Text, "Knee surgery") {
		t.Errorf("chunk 0 = %q", built.Chunks[0].Text)
	}
	if !strings.Contains(built.Chunks[1].Text, "Dental") {
		t.Errorf("chunk 1 = %q", built.Chunks[1].Text)
	}
}

func TestBuildFromCorpus_skipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "The policy covers hospitalization.")
	writeFile(t, dir, "photo.jpeg", "\xff\xd8\xff")        // unsupported extension
	writeFile(t, dir, "broken.pdf", "not really a pdf")    // extraction fails
	writeFile(t, dir, "blank.txt", "   \n\t ")             // no usable text

	ing := newTestIngestor(t)
	built, err := ing.BuildFromCorpus(context.Background(), dir)
	if err != nil {
		t.Fatalf("one bad file must not abort the build: %v", err)
	}
	if built.Size() != 1 {
		t.Errorf("size = %d, want 1", built.Size())
	}
}

func TestBuildFromCorpus_emptyDirIsEmptyCorpus(t *testing.T) {
	ing := newTestIngestor(t)
	_, err := ing.BuildFromCorpus(context.Background(), t.TempDir())
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("want ErrEmptyCorpus, got %v", err)
	}
}

func TestBuildFromCorpus_missingDir(t *testing.T) {
	ing := newTestIngestor(t)
	if _, err := ing.BuildFromCorpus(context.Background(), "/nonexistent/corpus"); err == nil {
		t.Error("missing corpus dir should error")
	}
}

func TestBuildFromCorpus_chunksNeverSpanFiles(t *testing.T) {
	dir := t.TempDir()
	// Each file is over one window, so each contributes multiple chunks.
	writeFile(t, dir, "one.txt", strings.Repeat("a", 1500))
	writeFile(t, dir, "two.txt", strings.Repeat("b", 1500))

	ing := newTestIngestor(t)
	built, err := ing.BuildFromCorpus(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range built.Chunks {
		if strings.Contains(ch.Text, "a") && strings.Contains(ch.Text, "b") {
			t.Errorf("chunk %d mixes content from two files", ch.Ordinal)
		}
	}
}

func TestBuildFromFile_recognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "upload.txt", "Maternity cover begins after 24 months.")
	ing := newTestIngestor(t)
	built, err := ing.BuildFromFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if built.Size() != 1 {
		t.Errorf("size = %d, want 1", built.Size())
	}
}

func TestBuildFromFile_unrecognizedExtensionFallsBack(t *testing.T) {
	dir := t.TempDir()
	// Plain text content behind an unknown extension: the pdf and docx
	// probes fail, the txt probe succeeds.
	path := writeFile(t, dir, "upload.dat", "Pre-existing conditions are excluded for 36 months.")
	ing := newTestIngestor(t)
	built, err := ing.BuildFromFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(built.Chunks[0].Text, "Pre-existing") {
		t.Errorf("chunk 0 = %q", built.Chunks[0].Text)
	}
}

func TestBuildFromFile_emptyUploadIsEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "")
	ing := newTestIngestor(t)
	_, err := ing.BuildFromFile(context.Background(), path)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("want ErrEmptyCorpus, got %v", err)
	}
}

func TestBuildFromFile_missingFileIsExtractionError(t *testing.T) {
	ing := newTestIngestor(t)
	_, err := ing.BuildFromFile(context.Background(), "/nonexistent/upload.pdf")
	if !errors.Is(err, extract.ErrExtraction) {
		t.Errorf("want extraction error, got %v", err)
	}
}

type failingEmbedder struct{ dims int }

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string, role llm.Role) ([][]float32, error) {
	return nil, llm.ErrEmbeddingService
}
func (f *failingEmbedder) Dimensions() int { return f.dims }

func TestBuild_embeddingFailureFailsWholeBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "policy.txt", "Room rent is capped at 1% of sum insured.")
	chunker, _ := NewChunker(1000, 200)
	ing := NewIngestor(extract.NewExtractor(), &failingEmbedder{dims: 8}, chunker)
	_, err := ing.BuildFromCorpus(context.Background(), dir)
	if !errors.Is(err, llm.ErrEmbeddingService) {
		t.Errorf("want embedding service error, got %v", err)
	}
}

type wrongDimEmbedder struct{}

func (w *wrongDimEmbedder) EmbedBatch(ctx context.Context, texts []string, role llm.Role) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3} // shorter than declared
	}
	return out, nil
}
func (w *wrongDimEmbedder) Dimensions() int { return 8 }

func TestBuild_dimensionMismatchRejectedBeforeInsertion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "policy.txt", "Ambulance charges are covered up to 2000.")
	chunker, _ := NewChunker(1000, 200)
	ing := NewIngestor(extract.NewExtractor(), &wrongDimEmbedder{}, chunker)
	if _, err := ing.BuildFromCorpus(context.Background(), dir); err == nil {
		t.Error("dimension mismatch should fail the build")
	}
}
