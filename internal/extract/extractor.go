// Package extract provides text extraction from policy document formats.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrExtraction is the class of all extraction failures. Callers use
// errors.Is(err, ErrExtraction) to distinguish "could not get text out of
// this file" from other pipeline errors.
var ErrExtraction = errors.New("extraction failed")

func extractionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExtraction, fmt.Sprintf(format, args...))
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// recognizedExts maps extensions with a dedicated extractor.
var recognizedExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".odt":  true,
	".rtf":  true,
	".xlsx": true,
	".txt":  true,
	".md":   true,
}

// Recognized reports whether ext (with leading dot, any case) has a
// dedicated extractor. Unrecognized files go through the fallback probe.
func (e *Extractor) Recognized(ext string) bool {
	return recognizedExts[strings.ToLower(ext)]
}

// FallbackOrder is the fixed probe order for files whose extension is
// unrecognized or whose labeled extractor yields nothing. Uploads are often
// mislabeled, so each format is tried until one produces non-empty text.
func (e *Extractor) FallbackOrder() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// Extract reads the file at path and returns its text content, dispatching
// on the file extension.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", extractionError("read file: %v", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".odt", ".rtf":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		// .txt, .md, and anything unknown: treat as plain text.
		return extractPlain(content)
	}
}
