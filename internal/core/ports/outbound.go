package ports

import (
	"context"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

// CorpusSource reads the backing corpus text. Implementations must fail
// softly: a missing or unreadable backing store yields an empty string,
// never an error. Callers re-parse on every read because the collection
// pipeline may replace the file between calls.
type CorpusSource interface {
	RawText(ctx context.Context) string
}

// FallbackGenerator asks the external generative service for an answer
// when the corpus has no candidate.
type FallbackGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CorpusAdmin performs the administrative corpus operations: backups,
// export, import. Never invoked from the retrieval path.
type CorpusAdmin interface {
	Backup() (string, error)
	RotateBackups(keep int) error
	Restore() error
	ExportText() (string, error)
	ExportJSON() ([]byte, error)
	Import(payload []byte, format string) error
}

// FeedbackStore persists users, feedback verdicts and daily statistics.
type FeedbackStore interface {
	UpsertUser(ctx context.Context, user domain.User) error
	SaveFeedback(ctx context.Context, fb domain.Feedback) error
	Counters(ctx context.Context) (domain.AccuracyCounters, error)
	DailyStats(ctx context.Context, days int) ([]domain.DailyStat, error)
}

// EventQueue publishes and consumes corpus update notifications. The
// collection pipeline is the usual publisher; the worker is the consumer.
type EventQueue interface {
	PublishCorpusUpdated(ctx context.Context, reason string) error
	SubscribeCorpusUpdated(ctx context.Context, handler func(context.Context, string) error) error
}
