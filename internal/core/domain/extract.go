package domain

import "strings"

// Corpus segments follow a loose convention: "ARTICLE <n>: <title>" and
// "Title:" header lines, a "CONTENT:" marker, an optional operator-script
// marker, and "---" section terminators. None of it is guaranteed, so every
// extractor degrades to a stated fallback instead of failing.
const (
	titleMarker          = "ARTICLE"
	titleFallbackMarker  = "Title:"
	untitledArticle      = "untitled article"
	contentMarker        = "CONTENT:"
	contentMarkerLegacy  = "General information"
	sectionTerminator    = "---"
	maxContentLines      = 15
	maxScriptLines       = 10
	scriptFallbackWindow = 5
	meaningfulLineRunes  = 10
	maxMeaningfulLines   = 10
	rawPreviewRunes      = 500
)

var scriptMarkers = []string{"💬", "What to say", "script", "operator speech"}

var scriptFallbackMarkers = []string{"Operator actions", "Consultation"}

// boilerplate line prefixes skipped inside a marked content section.
var boilerplatePrefixes = []string{"URL:", "Search"}

// ExtractTitle returns the article title from its header lines, or the
// fixed sentinel when no header marker is present.
func (a Article) ExtractTitle() string {
	for _, line := range strings.Split(a.RawText, "\n") {
		if strings.Contains(line, titleMarker) && strings.Contains(line, ":") {
			return afterFirstColon(line)
		}
		if strings.Contains(line, titleFallbackMarker) {
			return afterFirstColon(line)
		}
	}
	return untitledArticle
}

// ExtractContent returns the main content section. Without a content
// marker it falls back to the first meaningful lines, and as a last
// resort to a truncated raw preview. Never empty for a non-empty article.
func (a Article) ExtractContent() string {
	lines := strings.Split(a.RawText, "\n")

	collected := make([]string, 0, maxContentLines)
	inContent := false
	for _, line := range lines {
		if strings.Contains(line, contentMarker) || strings.Contains(line, contentMarkerLegacy) {
			inContent = true
			continue
		}
		if !inContent || strings.TrimSpace(line) == "" {
			continue
		}
		if isSectionEnd(line) {
			break
		}
		if hasBoilerplatePrefix(line) {
			continue
		}
		collected = append(collected, strings.TrimSpace(line))
	}
	if len(collected) > 0 {
		if len(collected) > maxContentLines {
			collected = collected[:maxContentLines]
		}
		return strings.Join(collected, "\n")
	}

	meaningful := make([]string, 0, maxMeaningfulLines)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len([]rune(trimmed)) > meaningfulLineRunes && !strings.HasPrefix(line, "===") {
			meaningful = append(meaningful, trimmed)
		}
		if len(meaningful) >= maxMeaningfulLines {
			break
		}
	}
	if len(meaningful) > 0 {
		return strings.Join(meaningful, "\n")
	}

	runes := []rune(a.RawText)
	if len(runes) > rawPreviewRunes {
		runes = runes[:rawPreviewRunes]
	}
	return string(runes) + "..."
}

// ExtractScript returns the literal operator-facing script, or "" when the
// article carries no script markers. Absence is not an error.
func (a Article) ExtractScript() string {
	lines := strings.Split(a.RawText, "\n")

	collected := make([]string, 0, maxScriptLines)
	inScript := false
	for _, line := range lines {
		if containsAny(line, scriptMarkers) {
			inScript = true
			continue
		}
		if !inScript || strings.TrimSpace(line) == "" {
			continue
		}
		if isSectionEnd(line) {
			break
		}
		collected = append(collected, strings.TrimSpace(line))
	}
	if len(collected) > 0 {
		if len(collected) > maxScriptLines {
			collected = collected[:maxScriptLines]
		}
		return strings.Join(collected, "\n")
	}

	// No dedicated script section: take the short window after a
	// recommendation heading instead.
	for i, line := range lines {
		if !containsAny(line, scriptFallbackMarkers) {
			continue
		}
		window := make([]string, 0, scriptFallbackWindow)
		for j := i + 1; j < len(lines) && j <= i+scriptFallbackWindow; j++ {
			if strings.TrimSpace(lines[j]) == "" || strings.HasPrefix(lines[j], sectionTerminator) {
				continue
			}
			window = append(window, strings.TrimSpace(lines[j]))
		}
		if len(window) > 0 {
			return strings.Join(window, "\n")
		}
	}
	return ""
}

// Extract runs all three extractors over the article.
func (a Article) Extract() ExtractedAnswer {
	return ExtractedAnswer{
		Content: a.ExtractContent(),
		Script:  a.ExtractScript(),
		Title:   a.ExtractTitle(),
	}
}

func afterFirstColon(line string) string {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(rest)
}

func isSectionEnd(line string) bool {
	return strings.HasPrefix(line, sectionTerminator) || strings.Contains(line, "========")
}

func hasBoilerplatePrefix(line string) bool {
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func containsAny(line string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
