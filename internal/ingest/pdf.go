package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
)

// loadPDF extracts text from a PDF file, one Page per PDF page so chunk
// page numbers match the source document. Pages that fail text
// extraction are skipped; a PDF with no extractable text at all is an
// error.
func loadPDF(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, ragerr.New(ragerr.ErrCodeInvalidInput,
			fmt.Sprintf("failed to open PDF %s", path), err)
	}
	defer f.Close()

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ragerr.New(ragerr.ErrCodeInvalidInput,
			fmt.Sprintf("no extractable text in %s", path), nil).
			WithSuggestion("scanned PDFs need OCR before indexing")
	}

	return pages, nil
}
