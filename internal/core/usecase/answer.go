package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
	"github.com/dkovalev/operator-kb-assistant/internal/core/ports"
)

const defaultFallbackTimeout = 30 * time.Second

// notFoundAnswer is the fixed escalation message for queries nothing can
// answer, corpus and generator alike.
const notFoundAnswer = "No answer found in the knowledge base. Please escalate the question to a senior operator."

// AnswerUseCase turns a question into a well-formed answer triple. The
// corpus is re-read and re-ranked on every call; the external generator is
// consulted only when no article scores above zero, and its failures are
// absorbed into the fixed not-found answer.
type AnswerUseCase struct {
	corpus          ports.CorpusSource
	generator       ports.FallbackGenerator
	fallbackTimeout time.Duration
}

func NewAnswerUseCase(
	corpus ports.CorpusSource,
	generator ports.FallbackGenerator,
	fallbackTimeout time.Duration,
) *AnswerUseCase {
	if fallbackTimeout <= 0 {
		fallbackTimeout = defaultFallbackTimeout
	}
	return &AnswerUseCase{
		corpus:          corpus,
		generator:       generator,
		fallbackTimeout: fallbackTimeout,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("empty question"))
	}

	articles := domain.ParseCorpus(uc.corpus.RawText(ctx))
	ranked := RankArticles(articles, question)
	if len(ranked) > 0 {
		extracted := ranked[0].Article.Extract()
		return &domain.Answer{
			Text:   extracted.Content,
			Script: extracted.Script,
			Source: extracted.Title,
			Title:  extracted.Title,
		}, nil
	}

	fallbackCtx, cancel := context.WithTimeout(ctx, uc.fallbackTimeout)
	defer cancel()

	generated, err := uc.generator.Generate(fallbackCtx, question)
	if err != nil || strings.TrimSpace(generated) == "" {
		return &domain.Answer{
			Text:   notFoundAnswer,
			Source: domain.SourceNotFound,
		}, nil
	}

	return &domain.Answer{
		Text:   generated,
		Source: domain.SourceGenerated,
	}, nil
}
