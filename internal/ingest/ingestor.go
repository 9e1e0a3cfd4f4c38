package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/satei/internal/extract"
	"github.com/hyperjump/satei/internal/kb"
	"github.com/hyperjump/satei/internal/llm"
	"go.uber.org/zap"
)

// ErrEmptyCorpus means ingestion produced zero usable chunks: the documents
// were empty, unreadable, or image-only. Surfaced distinctly from extraction
// failure because it usually means "right file, wrong content type".
var ErrEmptyCorpus = errors.New("no usable text chunks in corpus")

// Ingestor drives extraction, chunking, and embedding to produce a
// knowledge base. It never persists anything itself; persistent-mode callers
// save the result via the kb package.
type Ingestor struct {
	extractor *extract.Extractor
	embedder  llm.Embedder
	chunker   *Chunker
	logger    *zap.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets a logger for per-file progress and skip warnings.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(ing *Ingestor) { ing.logger = l }
}

// NewIngestor creates an ingestor with the given dependencies.
func NewIngestor(extractor *extract.Extractor, embedder llm.Embedder, chunker *Chunker, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		extractor: extractor,
		embedder:  embedder,
		chunker:   chunker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// BuildFromCorpus builds a knowledge base from every supported file in dir.
// Files are processed in name order. Unsupported extensions and files that
// fail extraction are skipped with a warning; one bad file never aborts the
// build. Each file is chunked independently, so no chunk spans files, and
// chunk ordinals follow file order. Zero resulting chunks is ErrEmptyCorpus.
func (ing *Ingestor) BuildFromCorpus(ctx context.Context, dir string) (*kb.KnowledgeBase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}
	var texts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(path))
		if !ing.extractor.Recognized(ext) {
			ing.logger.Warn("skipping unsupported file", zap.String("path", path), zap.String("ext", ext))
			continue
		}
		text, err := ing.extractor.Extract(path)
		if err != nil {
			ing.logger.Warn("skipping file after extraction failure", zap.String("path", path), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			ing.logger.Warn("skipping file with no text", zap.String("path", path))
			continue
		}
		chunks := ing.chunker.Chunk(text)
		texts = append(texts, chunks...)
		ing.logger.Info("processed corpus file", zap.String("path", path), zap.Int("chunks", len(chunks)))
	}
	return ing.embed(ctx, texts)
}

// BuildFromFile builds a knowledge base from a single file, typically an
// upload. A recognized extension selects its extractor first; when the
// extension is unrecognized, or the labeled extractor fails or yields empty
// text, each fallback format is probed in order, because uploads are often
// mislabeled. Exhausting the probes with an error in hand is an extraction
// failure; exhausting them over genuinely empty documents is ErrEmptyCorpus.
func (ing *Ingestor) BuildFromFile(ctx context.Context, path string) (*kb.KnowledgeBase, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var text string
	var lastErr error
	cleanEmpty := false // some extractor succeeded but the document held no text

	if ing.extractor.Recognized(ext) {
		text, lastErr = ing.extractor.Extract(path)
		if lastErr == nil && strings.TrimSpace(text) == "" {
			cleanEmpty = true
		}
	}
	if strings.TrimSpace(text) == "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read upload: %v", extract.ErrExtraction, err)
		}
		for _, probe := range ing.extractor.FallbackOrder() {
			if probe == ext && lastErr != nil {
				continue
			}
			candidate, err := ing.extractor.ExtractBytes(content, probe)
			if err != nil {
				lastErr = err
				continue
			}
			if strings.TrimSpace(candidate) == "" {
				cleanEmpty = true
				continue
			}
			text = candidate
			ing.logger.Info("fallback extractor succeeded", zap.String("path", path), zap.String("format", probe))
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		if cleanEmpty {
			return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, filepath.Base(path))
		}
		return nil, fmt.Errorf("%w: all formats exhausted for %s: %v", extract.ErrExtraction, filepath.Base(path), lastErr)
	}
	return ing.embed(ctx, ing.chunker.Chunk(text))
}

// embed batch-embeds all chunk texts in one service call and assembles the
// knowledge base. Any embedding failure fails the whole build; no partial
// knowledge base is ever returned.
func (ing *Ingestor) embed(ctx context.Context, texts []string) (*kb.KnowledgeBase, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyCorpus
	}
	embeddings, err := ing.embedder.EmbedBatch(ctx, texts, llm.RoleDocument)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	dims := ing.embedder.Dimensions()
	for i, emb := range embeddings {
		if len(emb) != dims {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(emb), dims)
		}
	}
	built, err := kb.New(texts, embeddings, dims)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}
	ing.logger.Info("knowledge base built", zap.Int("chunks", built.Size()), zap.Int("dimensions", dims))
	return built, nil
}
