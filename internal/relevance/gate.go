package relevance

import (
	"strings"

	"github.com/callsight/insights/internal/types"
)

// Transcript excerpting is the most expensive part of context assembly,
// so it only runs when the query plausibly needs call evidence rather
// than aggregate numbers.

var transcriptKeywords = []string{
	"transcript", "said", "say", "told", "conversation", "quote",
	"mention", "complaint", "complain", "example", "excerpt",
	"verbatim", "training", "coaching",
}

var statsKeywords = []string{
	"average", "total", "percentage", "percent", "count", "how many",
	"rate", "distribution", "breakdown", "histogram",
}

// NeedsTranscripts reports whether a query warrants transcript evidence.
// A query qualifies via a transcript keyword or an allowlisted kind, but
// purely statistical questions stay aggregate-only unless a transcript
// keyword is explicitly present.
func NeedsTranscripts(query string, kind types.QueryKind) bool {
	q := strings.ToLower(query)

	hasTranscriptKeyword := containsAny(q, transcriptKeywords)
	allowedKind := kind == types.QuerySummary || kind == types.QueryCategory

	if !hasTranscriptKeyword && !allowedKind {
		return false
	}
	if !hasTranscriptKeyword && containsAny(q, statsKeywords) {
		return false
	}
	return true
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
