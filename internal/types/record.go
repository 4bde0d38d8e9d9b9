package types

import "time"

// Canonical sentiment labels. Decoding is case-insensitive; everything
// downstream of the fetcher compares against these uppercase forms only.
const (
	SentimentPositive = "POSITIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentNegative = "NEGATIVE"
	SentimentUnknown  = "UNKNOWN"
)

// RawCallRecord is a call record exactly as the store returns it.
// Duration-like fields and Sentiment are `any` because historic writers
// persisted them inconsistently: a plain number, a JSON-encoded string,
// or a nested object ({minutes, seconds} / {speaker, sentiment, confidence}).
// These raw shapes must never leave the records package.
type RawCallRecord struct {
	DateKey     string `json:"dateKey" dynamodbav:"DateKey"`  // YYYY-MM-DD (partition key)
	CallID      string `json:"callId" dynamodbav:"CallID"`    // sort key
	AgentID     string `json:"agentId,omitempty" dynamodbav:"AgentID"`
	Queue       string `json:"queue,omitempty" dynamodbav:"Queue"`
	StartedAt   string `json:"startedAt,omitempty" dynamodbav:"StartedAt"` // RFC3339
	Duration    any    `json:"duration,omitempty" dynamodbav:"Duration"`   // seconds, ambiguous encoding
	HoldTime    any    `json:"holdTime,omitempty" dynamodbav:"HoldTime"`
	QueueWait   any    `json:"queueWait,omitempty" dynamodbav:"QueueWait"`
	Disposition string `json:"disposition,omitempty" dynamodbav:"Disposition"`
	Transcript  string `json:"transcript,omitempty" dynamodbav:"Transcript"`
	Summary     string `json:"summary,omitempty" dynamodbav:"Summary"`
	Sentiment   any    `json:"sentiment,omitempty" dynamodbav:"Sentiment"`
	Category    string `json:"category,omitempty" dynamodbav:"Category"`
	CustomerID  string `json:"customerId,omitempty" dynamodbav:"CustomerID"`
}

// SentimentEntry is one speaker's sentiment assessment within a call.
type SentimentEntry struct {
	Speaker    string  `json:"speaker"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// CallRecord is the normalized form every component downstream of the
// fetcher operates on. Duration-like fields are whole seconds; nil means
// the stored value could not be decoded and must be excluded from
// averages rather than counted as zero.
type CallRecord struct {
	DateKey          string           `json:"dateKey"`
	CallID           string           `json:"callId"`
	AgentID          string           `json:"agentId,omitempty"`
	Queue            string           `json:"queue,omitempty"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	DurationSec      *int             `json:"durationSec,omitempty"`
	HoldSec          *int             `json:"holdSec,omitempty"`
	QueueWaitSec     *int             `json:"queueWaitSec,omitempty"`
	Disposition      string           `json:"disposition,omitempty"`
	Transcript       string           `json:"transcript,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	Sentiment        string           `json:"sentiment"`
	SentimentEntries []SentimentEntry `json:"sentimentEntries,omitempty"`
	Category         string           `json:"category,omitempty"`
	CustomerID       string           `json:"customerId,omitempty"`
}

// TranscriptExcerpt is a scored excerpt selected for prompt inclusion.
type TranscriptExcerpt struct {
	CallID      string `json:"callId"`
	AgentID     string `json:"agentId,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	Sentiment   string `json:"sentiment"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
}
