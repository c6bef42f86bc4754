package domain

// Delimiter is the segment boundary line of the corpus file. Legacy corpus
// files depend on this exact byte sequence, so it must never change.
const Delimiter = "=================================================="

// Article is one delimiter-bounded segment of the knowledge corpus.
// It keeps the raw segment text so that field extraction can be re-run
// at any point without touching the backing file.
type Article struct {
	RawText string `json:"raw_text"`
}

// ScoredMatch pairs an article with its relevance score for one query.
// Scores are query-dependent and are never cached across queries.
type ScoredMatch struct {
	Article Article `json:"article"`
	Score   int     `json:"score"`
}

// ExtractedAnswer is the operator-facing unit produced from one article.
type ExtractedAnswer struct {
	Content string `json:"content"`
	Script  string `json:"script,omitempty"`
	Title   string `json:"title"`
}

// CorpusStats summarizes the backing corpus file.
type CorpusStats struct {
	ArticleCount int    `json:"article_count"`
	TotalWords   int    `json:"total_words"`
	TotalChars   int    `json:"total_chars"`
	LastUpdate   string `json:"last_update"`
}
