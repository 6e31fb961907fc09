package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ragerr "github.com/ctxrag/ctxrag/internal/errors"
	"github.com/ctxrag/ctxrag/internal/store"
)

// MaxDocumentBytes caps single-file size. Larger files are rejected
// rather than silently truncated.
const MaxDocumentBytes = 50 << 20

// Loader reads documents from disk and produces chunks.
type Loader struct {
	chunker *Chunker
	logger  *slog.Logger
}

// NewLoader creates a loader with the given chunking parameters.
func NewLoader(chunkSize, chunkOverlap int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		chunker: NewChunker(chunkSize, chunkOverlap),
		logger:  logger,
	}
}

// supportedExtensions maps file extensions to their loaders.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// LoadPath loads a file or walks a directory, returning the chunks of
// every supported document found. Unsupported files in a directory are
// skipped; naming one directly is an error.
func (l *Loader) LoadPath(path string) ([]store.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ragerr.New(ragerr.ErrCodeFileNotFound,
				fmt.Sprintf("path not found: %s", path), err)
		}
		return nil, ragerr.Wrap(ragerr.ErrCodeFilePermission, err)
	}

	if !info.IsDir() {
		return l.loadFile(path, info.Size())
	}

	var chunks []store.Chunk
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories, including the artifact dir
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		fileChunks, err := l.loadFile(p, fi.Size())
		if err != nil {
			// One unreadable document should not abort the whole walk
			l.logger.Warn("skipping document", "path", p, "error", err)
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if walkErr != nil {
		return nil, ragerr.Wrap(ragerr.ErrCodeFilePermission, walkErr)
	}

	return chunks, nil
}

// loadFile dispatches on extension and chunks the result.
func (l *Loader) loadFile(path string, size int64) ([]store.Chunk, error) {
	if size > MaxDocumentBytes {
		return nil, ragerr.New(ragerr.ErrCodeDocumentTooLarge,
			fmt.Sprintf("%s is %d bytes (limit %d)", path, size, MaxDocumentBytes), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var pages []Page
	var err error
	switch ext {
	case ".txt", ".md":
		pages, err = loadText(path)
	case ".pdf":
		pages, err = loadPDF(path)
	default:
		return nil, ragerr.New(ragerr.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported file type: %s", ext), nil).
			WithSuggestion("supported types: .txt, .md, .pdf")
	}
	if err != nil {
		return nil, err
	}

	docID := documentID(path)
	title := documentTitle(path)
	chunks := l.chunker.ChunkDocument(docID, title, pages)

	l.logger.Debug("document loaded",
		"path", path, "pages", len(pages), "chunks", len(chunks))

	return chunks, nil
}

var idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// documentID derives a stable identifier from the file name.
func documentID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := idSanitizer.ReplaceAllString(strings.ToLower(base), "_")
	return strings.Trim(id, "_")
}

// documentTitle derives a display title from the file name.
func documentTitle(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
