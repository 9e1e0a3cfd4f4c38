package extract

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
)

// DOCX is a ZIP containing word/document.xml (OOXML). All <w:t>...</w:t>
// text nodes are extracted so content survives regardless of paragraph and
// run attributes; matching whole <w:p> elements misses real-world documents
// that carry attributes on every paragraph.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

const docxDocumentXMLPath = "word/document.xml"

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", extractionError("DOCX: not a zip: %v", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", extractionError("DOCX: open %s: %v", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", extractionError("DOCX: read %s: %v", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", extractionError("DOCX: %s not found", docxDocumentXMLPath)
	}
	parts := wtTag.FindAllSubmatch(docXML, -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(bytes.TrimSpace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}
