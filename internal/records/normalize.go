package records

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/callsight/insights/internal/types"
)

// This file is the only place that understands the store's historic
// field encodings. Everything downstream sees canonical seconds and
// canonical sentiment labels.

// NormalizeDuration decodes a duration-like value into whole seconds.
// Accepted shapes: a plain number, an object {minutes?, seconds}, or a
// JSON-encoded string of either. Returns nil when the value cannot be
// decoded or is negative; callers must exclude nil from averages rather
// than treat it as zero.
func NormalizeDuration(v any) *int {
	switch d := v.(type) {
	case nil:
		return nil
	case float64:
		return secondsFromNumber(d)
	case int:
		return secondsFromNumber(float64(d))
	case int64:
		return secondsFromNumber(float64(d))
	case string:
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			return nil
		}
		// JSON-encoded object or number
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			if _, isString := decoded.(string); !isString {
				return NormalizeDuration(decoded)
			}
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return secondsFromNumber(n)
		}
		return nil
	case map[string]any:
		return secondsFromObject(d)
	default:
		return nil
	}
}

func secondsFromNumber(n float64) *int {
	if n < 0 {
		return nil
	}
	s := int(n)
	return &s
}

// secondsFromObject decodes {minutes?, seconds}. seconds is required;
// minutes defaults to 0.
func secondsFromObject(m map[string]any) *int {
	secRaw, ok := m["seconds"]
	if !ok {
		return nil
	}
	seconds, ok := numberValue(secRaw)
	if !ok || seconds < 0 {
		return nil
	}

	minutes := 0.0
	if minRaw, ok := m["minutes"]; ok {
		minutes, ok = numberValue(minRaw)
		if !ok || minutes < 0 {
			return nil
		}
	}

	total := int(minutes)*60 + int(seconds)
	return &total
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// NormalizeSentiment decodes a sentiment value into a canonical label
// and, when per-speaker entries exist, the decoded entries. Accepted
// shapes: a label string, an object with a "sentiment" key, an array of
// {speaker, sentiment, confidence}, or a JSON-encoded string of any of
// those.
func NormalizeSentiment(v any) (string, []types.SentimentEntry) {
	switch s := v.(type) {
	case nil:
		return types.SentimentUnknown, nil
	case string:
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return types.SentimentUnknown, nil
		}
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return NormalizeSentiment(decoded)
			}
		}
		return canonicalSentiment(trimmed), nil
	case []any:
		entries := sentimentEntries(s)
		if len(entries) == 0 {
			return types.SentimentUnknown, nil
		}
		return canonicalSentiment(entries[0].Sentiment), entries
	case map[string]any:
		label, ok := s["sentiment"].(string)
		if !ok {
			return types.SentimentUnknown, nil
		}
		if speaker, hasSpeaker := s["speaker"].(string); hasSpeaker {
			entry := types.SentimentEntry{
				Speaker:   speaker,
				Sentiment: canonicalSentiment(label),
			}
			if conf, ok := numberValue(s["confidence"]); ok {
				entry.Confidence = conf
			}
			return entry.Sentiment, []types.SentimentEntry{entry}
		}
		return canonicalSentiment(label), nil
	default:
		return types.SentimentUnknown, nil
	}
}

func sentimentEntries(arr []any) []types.SentimentEntry {
	entries := make([]types.SentimentEntry, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label, ok := m["sentiment"].(string)
		if !ok {
			continue
		}
		entry := types.SentimentEntry{Sentiment: canonicalSentiment(label)}
		if speaker, ok := m["speaker"].(string); ok {
			entry.Speaker = speaker
		}
		if conf, ok := numberValue(m["confidence"]); ok {
			entry.Confidence = conf
		}
		entries = append(entries, entry)
	}
	return entries
}

// canonicalSentiment uppercases a label after case-insensitive matching
// against the known set. Unfamiliar labels keep their uppercased form so
// they aggregate under their own bucket instead of disappearing.
func canonicalSentiment(label string) string {
	upper := strings.ToUpper(strings.TrimSpace(label))
	switch upper {
	case "":
		return types.SentimentUnknown
	case types.SentimentPositive, types.SentimentNeutral, types.SentimentNegative:
		return upper
	case "UNKNOWN":
		return types.SentimentUnknown
	}
	return upper
}

// Normalize converts a raw store record into its canonical form.
func Normalize(raw types.RawCallRecord) types.CallRecord {
	rec := types.CallRecord{
		DateKey:      raw.DateKey,
		CallID:       raw.CallID,
		AgentID:      raw.AgentID,
		Queue:        raw.Queue,
		DurationSec:  NormalizeDuration(raw.Duration),
		HoldSec:      NormalizeDuration(raw.HoldTime),
		QueueWaitSec: NormalizeDuration(raw.QueueWait),
		Disposition:  raw.Disposition,
		Transcript:   raw.Transcript,
		Summary:      raw.Summary,
		Category:     raw.Category,
		CustomerID:   raw.CustomerID,
	}

	rec.Sentiment, rec.SentimentEntries = NormalizeSentiment(raw.Sentiment)

	if raw.StartedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.StartedAt); err == nil {
			rec.StartedAt = &ts
		}
	}

	return rec
}
