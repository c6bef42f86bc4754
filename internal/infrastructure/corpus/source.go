// Package corpus provides the file-backed knowledge corpus: the read path
// used per query and the administrative backup/export/import operations.
package corpus

import (
	"context"
	"log/slog"
	"os"
)

// FileSource reads the corpus from a flat text file. The file is owned by
// the collection pipeline and may be replaced between reads; every call
// therefore reads the whole file fresh. A missing or unreadable file is an
// empty knowledge base, not an error.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) RawText(_ context.Context) string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("corpus_read_failed", "path", s.path, "error", err)
		}
		return ""
	}
	return string(raw)
}

// Path returns the backing file location.
func (s *FileSource) Path() string {
	return s.path
}
