package domain

import (
	"strings"
	"unicode/utf8"
)

// lastUpdateMarker tags the header line the collection pipeline writes on
// each refresh, e.g. "KNOWLEDGE BASE - UPDATED 2026-02-10 14:30:00".
const lastUpdateMarker = "UPDATED "

// ParseCorpus splits raw corpus text into its ordered article sequence.
// Segments are trimmed and whitespace-only segments dropped; corpus order
// is preserved. Titles are not derived here, extraction is on demand.
func ParseCorpus(raw string) []Article {
	if raw == "" {
		return nil
	}

	segments := strings.Split(raw, Delimiter)
	articles := make([]Article, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		articles = append(articles, Article{RawText: segment})
	}
	return articles
}

// ComputeCorpusStats derives the corpus summary from its raw text.
func ComputeCorpusStats(raw string) CorpusStats {
	stats := CorpusStats{
		ArticleCount: len(ParseCorpus(raw)),
		TotalWords:   len(strings.Fields(raw)),
		TotalChars:   utf8.RuneCountInString(raw),
		LastUpdate:   "unknown",
	}

	for _, line := range strings.Split(raw, "\n") {
		if idx := strings.Index(line, lastUpdateMarker); idx >= 0 {
			if value := strings.TrimSpace(line[idx+len(lastUpdateMarker):]); value != "" {
				stats.LastUpdate = strings.TrimSuffix(value, "===")
				stats.LastUpdate = strings.TrimSpace(stats.LastUpdate)
				break
			}
		}
	}
	return stats
}
