package domain

// Answer sources for responses that did not come from a corpus article.
// Article-backed answers carry the article title as their source.
const (
	SourceGenerated = "generated"
	SourceNotFound  = "not-found"
)

// Answer is the triple every query resolves to. The synthesizer guarantees
// a well-formed Answer for every failure mode, so transport layers never
// see retrieval or fallback errors.
type Answer struct {
	Text   string `json:"answer"`
	Script string `json:"script,omitempty"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// TopicCoverage classifies how well one topic is represented in the corpus.
type TopicCoverage struct {
	MatchCount int    `json:"match_count"`
	Level      string `json:"level"`
}

// Coverage levels against fixed match-count thresholds.
const (
	CoverageHigh   = "high"
	CoverageMedium = "medium"
	CoverageLow    = "low"
)
