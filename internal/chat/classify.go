// Package chat implements the query pipeline: fetch records, classify
// the question, aggregate, assemble a bounded prompt context, and ask
// the LLM gateway for a narrative answer.
package chat

import (
	"strings"

	"github.com/callsight/insights/internal/types"
)

// kindKeywords maps query vocabulary to a query kind. Checked in order;
// first hit wins, so more specific vocabularies come first.
var kindKeywords = []struct {
	kind  types.QueryKind
	words []string
}{
	{types.QueryDisposition, []string{"disposition", "outcome", "resolved", "resolution", "escalated to", "callback"}},
	{types.QueryQueue, []string{"queue", "waiting", "wait time", "on hold", "hold time"}},
	{types.QuerySentiment, []string{"sentiment", "mood", "feeling", "satisf", "unhappy", "angry", "frustrat", "complain"}},
	{types.QueryAgent, []string{"agent", "representative", "rep ", "performer", "performance", "who handled"}},
	{types.QueryTiming, []string{"duration", "how long", "longest", "shortest", "peak", "busiest", "hour", "time of day"}},
	{types.QueryCategory, []string{"category", "categories", "topic", "reason for", "calling about"}},
	{types.QuerySummary, []string{"summary", "summarise", "summarize", "overview", "report", "recap"}},
}

// ClassifyQuery infers a query kind from free text. Used when the
// client did not supply an explicit type.
func ClassifyQuery(query string) types.QueryKind {
	lower := strings.ToLower(query)
	for _, kk := range kindKeywords {
		for _, w := range kk.words {
			if strings.Contains(lower, w) {
				return kk.kind
			}
		}
	}
	return types.QueryGeneral
}

// resolveKind prefers the client-supplied type, falling back to text
// classification.
func resolveKind(explicit, query string) types.QueryKind {
	if explicit != "" {
		return types.ParseQueryKind(explicit)
	}
	return ClassifyQuery(query)
}
