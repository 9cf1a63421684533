// Package pdftext extracts plain text from PDF documents (labels and INCI
// sheets uploaded by users).
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract returns the concatenated text of all pages, trimmed. Extraction is
// best-effort: scanned PDFs without a text layer yield an empty string, and
// the caller falls back to sending the file to the AI as an image.
func Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page should not discard text from the others.
			continue
		}
		sb.WriteString(text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// IsPDF reports whether the payload looks like a PDF document.
func IsPDF(mimeType string) bool {
	return mimeType == "application/pdf"
}
