package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

const (
	backupPrefix = "knowledge_backup_"
	backupSuffix = ".txt"
	timeLayout   = "20060102_150405"
)

// Admin implements the administrative corpus operations. All writes go
// through a temp file and rename so an in-flight reader observes either
// the old or the new corpus, never a partial one.
type Admin struct {
	corpusPath string
	backupDir  string
}

func NewAdmin(corpusPath, backupDir string) (*Admin, error) {
	if backupDir == "" {
		backupDir = filepath.Dir(corpusPath)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Admin{corpusPath: corpusPath, backupDir: backupDir}, nil
}

// Backup copies the current corpus into a timestamped snapshot and returns
// its path. A missing corpus file yields an empty path, not an error.
func (a *Admin) Backup() (string, error) {
	raw, err := os.ReadFile(a.corpusPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read corpus: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format(timeLayout) + backupSuffix
	path := filepath.Join(a.backupDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}

// RotateBackups keeps the `keep` most recent snapshots, deleting the rest.
func (a *Admin) RotateBackups(keep int) error {
	if keep <= 0 {
		keep = 5
	}

	entries, err := os.ReadDir(a.backupDir)
	if err != nil {
		return fmt.Errorf("list backup dir: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			backups = append(backups, name)
		}
	}
	// Timestamps embedded in the names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	for _, name := range backups[min(keep, len(backups)):] {
		if err := os.Remove(filepath.Join(a.backupDir, name)); err != nil {
			return fmt.Errorf("remove old backup %s: %w", name, err)
		}
	}
	return nil
}

// Restore replaces the corpus with the most recent snapshot.
func (a *Admin) Restore() error {
	entries, err := os.ReadDir(a.backupDir)
	if err != nil {
		return fmt.Errorf("list backup dir: %w", err)
	}

	latest := ""
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return fmt.Errorf("restore: %w", os.ErrNotExist)
	}

	raw, err := os.ReadFile(filepath.Join(a.backupDir, latest))
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	return a.replaceCorpus(raw)
}

// ExportText returns the corpus verbatim. Exporting and re-importing the
// result reproduces identical segment boundaries.
func (a *Admin) ExportText() (string, error) {
	raw, err := os.ReadFile(a.corpusPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read corpus: %w", err)
	}
	return string(raw), nil
}

type exportArticle struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type exportDocument struct {
	ExportTime   string          `json:"export_time"`
	ArticleCount int             `json:"article_count"`
	Articles     []exportArticle `json:"articles"`
}

// ExportJSON returns the corpus as a structured document.
func (a *Admin) ExportJSON() ([]byte, error) {
	raw, err := a.ExportText()
	if err != nil {
		return nil, err
	}

	articles := domain.ParseCorpus(raw)
	doc := exportDocument{
		ExportTime:   time.Now().UTC().Format(time.RFC3339),
		ArticleCount: len(articles),
		Articles:     make([]exportArticle, 0, len(articles)),
	}
	for i, article := range articles {
		doc.Articles = append(doc.Articles, exportArticle{
			ID:      i + 1,
			Title:   article.ExtractTitle(),
			Content: article.RawText,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import replaces the corpus from a flat-text or JSON payload, taking a
// snapshot of the current corpus first.
func (a *Admin) Import(payload []byte, format string) error {
	if _, err := a.Backup(); err != nil {
		return fmt.Errorf("pre-import backup: %w", err)
	}

	switch format {
	case "json":
		var doc exportDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "import corpus", err)
		}
		return a.replaceCorpus([]byte(renderCorpus(doc)))
	case "", "txt":
		return a.replaceCorpus(payload)
	default:
		return domain.WrapError(domain.ErrInvalidInput, "import corpus", fmt.Errorf("unsupported format %q", format))
	}
}

func renderCorpus(doc exportDocument) string {
	var b strings.Builder
	b.WriteString("=== KNOWLEDGE BASE - IMPORTED " + time.Now().UTC().Format("2006-01-02 15:04:05") + " ===\n")
	b.WriteString(domain.Delimiter + "\n")
	for _, article := range doc.Articles {
		b.WriteString(article.Content)
		b.WriteString("\n" + domain.Delimiter + "\n")
	}
	return b.String()
}

func (a *Admin) replaceCorpus(raw []byte) error {
	tmp := a.corpusPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write corpus temp file: %w", err)
	}
	if err := os.Rename(tmp, a.corpusPath); err != nil {
		return fmt.Errorf("replace corpus: %w", err)
	}
	return nil
}
