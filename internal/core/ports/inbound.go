package ports

import (
	"context"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

// AnswerService is the inbound contract for question answering.
type AnswerService interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// CoverageService is the inbound contract for the offline diagnostics.
type CoverageService interface {
	AnalyzeCoverage(ctx context.Context) map[string]domain.TopicCoverage
	FindGaps(ctx context.Context, questions []string) []string
}

// CorpusRefresher reacts to corpus file replacements produced by the
// external collection pipeline.
type CorpusRefresher interface {
	Refresh(ctx context.Context, reason string) error
}
