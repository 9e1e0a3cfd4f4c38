package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("the policy covers knee surgery"), ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if text != "the policy covers knee surgery" {
		t.Errorf("got %q", text)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte{'o', 'k', 0xff, '!'}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if text == "" {
		t.Error("invalid UTF-8 should be sanitized, not dropped")
	}
}

func TestExtractBytes_unknownExtensionFallsThroughToPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("plain content"), ".policy")
	if err != nil {
		t.Fatal(err)
	}
	if text != "plain content" {
		t.Errorf("got %q", text)
	}
}

func TestExtractBytes_docx(t *testing.T) {
	e := NewExtractor()
	doc := buildDOCX(t, `<w:document><w:body>`+
		`<w:p w:rsidR="00A"><w:r><w:t>Waiting period</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">is 90 days.</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	text, err := e.ExtractBytes(doc, ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Waiting period is 90 days." {
		t.Errorf("got %q", text)
	}
}

func TestExtractBytes_docxNotAZip(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("definitely not a zip"), ".docx")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error should be in the extraction class: %v", err)
	}
}

func TestExtractBytes_pdfGarbage(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("%PDF-garbage"), ".pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error should be in the extraction class: %v", err)
	}
}

func TestExtract_readsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.md")
	if err := os.WriteFile(path, []byte("# Coverage\nAll hospitals."), 0644); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	text, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "# Coverage\nAll hospitals." {
		t.Errorf("got %q", text)
	}
}

func TestExtract_missingFile(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("/nonexistent/policy.pdf"); !errors.Is(err, ErrExtraction) {
		t.Errorf("missing file should be an extraction error: %v", err)
	}
}

func TestRecognized(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".pdf", ".docx", ".txt", ".xlsx", ".PDF"} {
		if !e.Recognized(ext) {
			t.Errorf("%s should be recognized", ext)
		}
	}
	for _, ext := range []string{"", ".bin", ".jpeg"} {
		if e.Recognized(ext) {
			t.Errorf("%s should not be recognized", ext)
		}
	}
}

func TestFallbackOrder(t *testing.T) {
	e := NewExtractor()
	order := e.FallbackOrder()
	want := []string{".pdf", ".docx", ".txt"}
	if len(order) != len(want) {
		t.Fatalf("got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("fallback order = %v, want %v", order, want)
		}
	}
}
