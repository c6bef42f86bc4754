package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
	"github.com/dkovalev/operator-kb-assistant/internal/core/ports"
)

// Coverage thresholds over keyword match counts.
const (
	coverageHighAbove   = 10
	coverageMediumAbove = 3
)

// Gap-analysis ignores question tokens of this rune length or shorter.
const minGapTokenRunes = 4

// CoverageAnalyzer is the offline diagnostic over the corpus: keyword
// coverage per topic and unanswered-question gaps. Read-only.
type CoverageAnalyzer struct {
	corpus ports.CorpusSource
	topics map[string][]string
}

func NewCoverageAnalyzer(corpus ports.CorpusSource, topics map[string][]string) *CoverageAnalyzer {
	if len(topics) == 0 {
		topics = DefaultTopics()
	}
	return &CoverageAnalyzer{corpus: corpus, topics: topics}
}

// DefaultTopics is the built-in topic-to-keywords table, used when no
// topics file is configured.
func DefaultTopics() map[string][]string {
	return map[string][]string{
		"Meter readings":    {"readings", "meter", "submit readings"},
		"Payment":           {"payment", "invoice", "receipt"},
		"Debt":              {"debt", "arrears", "overdue"},
		"Technical support": {"technical support", "account portal", "outage", "error"},
		"Contracts":         {"contract", "personal account", "re-registration"},
		"Tariffs":           {"tariff", "cost", "price", "accrual"},
		"Service quality":   {"quality", "complaint", "recalculation"},
	}
}

// AnalyzeCoverage counts keyword hits per topic and classifies each topic
// against the fixed thresholds.
func (c *CoverageAnalyzer) AnalyzeCoverage(ctx context.Context) map[string]domain.TopicCoverage {
	corpusLower := strings.ToLower(c.corpus.RawText(ctx))

	out := make(map[string]domain.TopicCoverage, len(c.topics))
	for topic, keywords := range c.topics {
		count := 0
		for _, keyword := range keywords {
			count += strings.Count(corpusLower, strings.ToLower(keyword))
		}
		out[topic] = domain.TopicCoverage{
			MatchCount: count,
			Level:      coverageLevel(count),
		}
	}
	return out
}

// FindGaps returns the questions whose tokens all miss the corpus. A
// question counts as covered as soon as any sufficiently long token of it
// appears anywhere in the lower-cased corpus text.
func (c *CoverageAnalyzer) FindGaps(ctx context.Context, questions []string) []string {
	corpusLower := strings.ToLower(c.corpus.RawText(ctx))

	gaps := make([]string, 0, len(questions))
	for _, question := range questions {
		if strings.TrimSpace(question) == "" {
			continue
		}
		if !questionCovered(corpusLower, question) {
			gaps = append(gaps, question)
		}
	}
	return gaps
}

func questionCovered(corpusLower, question string) bool {
	for _, token := range strings.Fields(strings.ToLower(question)) {
		if utf8.RuneCountInString(token) <= minGapTokenRunes {
			continue
		}
		if strings.Contains(corpusLower, token) {
			return true
		}
	}
	return false
}

func coverageLevel(count int) string {
	switch {
	case count > coverageHighAbove:
		return domain.CoverageHigh
	case count > coverageMediumAbove:
		return domain.CoverageMedium
	default:
		return domain.CoverageLow
	}
}
