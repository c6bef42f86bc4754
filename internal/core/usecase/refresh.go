package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
	"github.com/dkovalev/operator-kb-assistant/internal/core/ports"
)

// RefreshUseCase reacts to corpus replacements announced by the collection
// pipeline: snapshot the fresh file, rotate old snapshots and report the
// new corpus shape. The retrieval path needs none of this; it always reads
// the file as-is.
type RefreshUseCase struct {
	corpus      ports.CorpusSource
	admin       ports.CorpusAdmin
	keepBackups int
	logger      *slog.Logger

	onStats func(domain.CorpusStats)
}

func NewRefreshUseCase(
	corpus ports.CorpusSource,
	admin ports.CorpusAdmin,
	keepBackups int,
	logger *slog.Logger,
	onStats func(domain.CorpusStats),
) *RefreshUseCase {
	if keepBackups <= 0 {
		keepBackups = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshUseCase{
		corpus:      corpus,
		admin:       admin,
		keepBackups: keepBackups,
		logger:      logger,
		onStats:     onStats,
	}
}

func (uc *RefreshUseCase) Refresh(ctx context.Context, reason string) error {
	backupPath, err := uc.admin.Backup()
	if err != nil {
		return fmt.Errorf("backup corpus: %w", err)
	}
	if err := uc.admin.RotateBackups(uc.keepBackups); err != nil {
		return fmt.Errorf("rotate backups: %w", err)
	}

	stats := domain.ComputeCorpusStats(uc.corpus.RawText(ctx))
	if uc.onStats != nil {
		uc.onStats(stats)
	}

	uc.logger.Info("corpus_refreshed",
		"reason", reason,
		"backup", backupPath,
		"articles", stats.ArticleCount,
		"words", stats.TotalWords,
		"last_update", stats.LastUpdate,
	)
	return nil
}
