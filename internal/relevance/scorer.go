// Package relevance ranks call records and transcript segments by
// lexical relevance to a free-text query. It is a heuristic ranking,
// not a probabilistic model: weights are fixed and scores are only
// meaningful relative to each other within one query.
package relevance

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/callsight/insights/internal/types"
)

const (
	weightTranscriptHit = 3
	weightSummaryHit    = 2
	weightSentiment     = 10
	weightDisposition   = 8
	weightCategory      = 6
	weightLongCall      = 5
	weightComplaint     = 8

	weightSegmentHit     = 5
	weightSegmentPattern = 3

	longCallSeconds = 300
	minSentenceLen  = 10
	maxSegmentChars = 300
)

// Curated language patterns that make a sentence worth quoting even
// with few keyword hits: complaints, gratitude, apologies, escalations.
var emphasisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(complain\w*|frustrat\w*|unacceptable|ridiculous|angry|upset|terrible)`),
	regexp.MustCompile(`(?i)\b(thank\w*|appreciate\w*|excellent|wonderful|fantastic)`),
	regexp.MustCompile(`(?i)\b(sorry|apolog\w*|regret\w*)`),
	regexp.MustCompile(`(?i)\b(supervisor|manager|escalat\w*|cancel\w*|refund\w*)`),
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// Keywords extracts lowercase query tokens longer than two characters.
func Keywords(query string) []string {
	var out []string
	for _, tok := range tokenSplit.Split(strings.ToLower(query), -1) {
		if len(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// ScoreRecord rates how relevant one record is to the query. The score
// is monotonic in keyword matches: an additional match never lowers it.
func ScoreRecord(rec types.CallRecord, query string) int {
	keywords := Keywords(query)
	transcript := strings.ToLower(rec.Transcript)
	summary := strings.ToLower(rec.Summary)
	q := strings.ToLower(query)

	score := 0
	for _, kw := range keywords {
		score += strings.Count(transcript, kw) * weightTranscriptHit
		score += strings.Count(summary, kw) * weightSummaryHit
	}

	if rec.Sentiment != "" && rec.Sentiment != types.SentimentUnknown &&
		strings.Contains(q, strings.ToLower(rec.Sentiment)) {
		score += weightSentiment
	}
	if rec.Disposition != "" && strings.Contains(q, strings.ToLower(rec.Disposition)) {
		score += weightDisposition
	}
	if rec.Category != "" && strings.Contains(q, strings.ToLower(rec.Category)) {
		score += weightCategory
	}
	if (strings.Contains(q, "quality") || strings.Contains(q, "training")) &&
		rec.DurationSec != nil && *rec.DurationSec > longCallSeconds {
		score += weightLongCall
	}
	if (strings.Contains(q, "complaint") || strings.Contains(q, "problem")) &&
		rec.Sentiment == types.SentimentNegative {
		score += weightComplaint
	}

	return score
}

// TopRecords returns up to n records with a positive relevance score,
// highest first, ties keeping input order.
func TopRecords(records []types.CallRecord, query string, n int) []types.CallRecord {
	type scored struct {
		rec   types.CallRecord
		score int
	}
	var candidates []scored
	for _, rec := range records {
		if s := ScoreRecord(rec, query); s > 0 {
			candidates = append(candidates, scored{rec, s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]types.CallRecord, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}

// ExtractSegments selects the most relevant transcript sentences,
// expands each with one neighboring sentence per side for readability,
// and caps segment length. Returns up to maxSegments, best first.
func ExtractSegments(transcript, query string, maxSegments int) []string {
	sentences := splitSentences(transcript)
	if len(sentences) == 0 || maxSegments <= 0 {
		return nil
	}

	keywords := Keywords(query)

	type scored struct {
		idx   int
		score int
	}
	var candidates []scored
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw) * weightSegmentHit
		}
		for _, pattern := range emphasisPatterns {
			if pattern.MatchString(sentence) {
				score += weightSegmentPattern
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{i, score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxSegments {
		candidates = candidates[:maxSegments]
	}

	segments := make([]string, 0, len(candidates))
	for _, c := range candidates {
		start := c.idx - 1
		if start < 0 {
			start = 0
		}
		end := c.idx + 1
		if end >= len(sentences) {
			end = len(sentences) - 1
		}
		segment := strings.Join(sentences[start:end+1], " ")
		if len(segment) > maxSegmentChars {
			segment = cutSegment(segment, maxSegmentChars) + "..."
		}
		segments = append(segments, segment)
	}
	return segments
}

// cutSegment trims s to at most n bytes without splitting a UTF-8
// rune. Caller guarantees n < len(s).
func cutSegment(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// splitSentences breaks a transcript on sentence terminators, dropping
// fragments too short to carry meaning.
func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var out []string
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if len(trimmed) >= minSentenceLen {
			out = append(out, trimmed)
		}
	}
	return out
}
