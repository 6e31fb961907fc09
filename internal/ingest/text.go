package ingest

import (
	"os"
	"strings"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
)

// loadText reads a plain text or markdown file as a single page.
func loadText(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.ErrCodeFilePermission, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	return []Page{{Number: 1, Text: text}}, nil
}
