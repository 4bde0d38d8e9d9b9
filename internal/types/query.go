package types

// QueryKind classifies what a chat query is asking about. It drives
// aggregation scope (disposition queries are never sampled), prompt
// section selection, and model choice.
type QueryKind string

const (
	QueryDisposition QueryKind = "disposition"
	QueryAgent       QueryKind = "agent"
	QuerySentiment   QueryKind = "sentiment"
	QueryTiming      QueryKind = "timing"
	QueryQueue       QueryKind = "queue"
	QueryCategory    QueryKind = "category"
	QuerySummary     QueryKind = "summary"
	QueryGeneral     QueryKind = "general"
)

// ParseQueryKind maps a client-supplied type string to a QueryKind,
// defaulting to general for anything unrecognized.
func ParseQueryKind(s string) QueryKind {
	switch QueryKind(s) {
	case QueryDisposition, QueryAgent, QuerySentiment, QueryTiming,
		QueryQueue, QueryCategory, QuerySummary, QueryGeneral:
		return QueryKind(s)
	}
	return QueryGeneral
}

// RecordFilter narrows which call records a query runs over.
type RecordFilter struct {
	AgentID     string `json:"agentId,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	DateKey     string `json:"dateKey,omitempty"` // YYYY-MM-DD
	Limit       int    `json:"limit,omitempty"`
}
