package usecase

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

// Query words of this rune length or shorter are treated as noise.
const minScoredWordRunes = 3

// exactPhraseBonus rewards articles that contain the full query verbatim.
const exactPhraseBonus = 100

// ScoreArticle computes the relevance of an article for a query. The
// formula is frequency weighted by word length, with a flat bonus for a
// verbatim phrase hit. Substring counts are non-overlapping; legacy
// rankings depend on this exact behavior, do not tune it.
func ScoreArticle(article domain.Article, query string) int {
	articleLower := strings.ToLower(article.RawText)

	score := 0
	for word := range queryWordSet(query) {
		length := utf8.RuneCountInString(word)
		if length <= minScoredWordRunes {
			continue
		}
		score += strings.Count(articleLower, word) * length
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower != "" && strings.Contains(articleLower, queryLower) {
		score += exactPhraseBonus
	}
	return score
}

// RankArticles orders the corpus by relevance, highest first. Zero-score
// articles are dropped; ties keep their original corpus order.
func RankArticles(articles []domain.Article, query string) []domain.ScoredMatch {
	matches := make([]domain.ScoredMatch, 0, len(articles))
	for _, article := range articles {
		score := ScoreArticle(article, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, domain.ScoredMatch{Article: article, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func queryWordSet(query string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(query))
	out := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		out[field] = struct{}{}
	}
	return out
}
