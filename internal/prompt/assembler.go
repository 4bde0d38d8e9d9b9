// Package prompt assembles aggregated metrics and transcript excerpts
// into a bounded-size textual context for the LLM.
package prompt

import (
	"fmt"
	"strings"

	"github.com/callsight/insights/internal/relevance"
	"github.com/callsight/insights/internal/types"
)

const (
	maxAgentsListed    = 20
	maxQueuesListed    = 10
	maxHoursListed     = 10
	maxExcerptCalls    = 3
	maxSegmentsPerCall = 3

	// TruncationNotice is appended when the assembled context had to be
	// hard-truncated to fit the token budget.
	TruncationNotice = "\n[context truncated to fit within limits]"
)

// Assembly is the result of context assembly. RawTokens is the
// estimate before hard truncation; viability checks against a ceiling
// must use it, since EstimatedTokens never exceeds the budget.
type Assembly struct {
	Context             string
	Excerpts            []types.TranscriptExcerpt
	EstimatedTokens     int
	RawTokens           int
	Truncated           bool
	TranscriptsIncluded bool
}

// Assemble builds the prompt context: a fixed overview, a query-kind
// specific metric block, and (budget and gate permitting) transcript
// excerpts from the most relevant calls. The hard truncation check runs
// last so structured sections are never silently corrupted mid-build;
// the payload is prose, so a plain text cut is acceptable.
func Assemble(query string, kind types.QueryKind, summary *types.Summary, records []types.CallRecord, budget int) Assembly {
	var b strings.Builder

	writeOverview(&b, summary)
	writeKindBlock(&b, kind, summary)

	result := Assembly{}

	if relevance.NeedsTranscripts(query, kind) {
		remaining := budget - EstimateTokens(b.String())
		if remaining > 0 {
			result.Excerpts = appendExcerpts(&b, query, records, remaining)
			result.TranscriptsIncluded = len(result.Excerpts) > 0
		}
	}

	context := b.String()
	result.RawTokens = EstimateTokens(context)
	if result.RawTokens > budget {
		context = truncate(context, budget)
		result.Truncated = true
	}

	result.Context = context
	result.EstimatedTokens = EstimateTokens(context)
	return result
}

func writeOverview(b *strings.Builder, s *types.Summary) {
	fmt.Fprintf(b, "CALL DATA OVERVIEW\n")
	fmt.Fprintf(b, "Total calls: %d\n", s.TotalRecords)
	if s.Sampled() {
		fmt.Fprintf(b, "Analysis based on a sample of %d of %d calls (%.0f%%); treat conclusions as estimates.\n",
			s.SampleSize, s.TotalRecords, s.SamplingRatio*100)
	}
	fmt.Fprintf(b, "Average duration: %.0fs\n", s.AvgDurationSec)
	fmt.Fprintf(b, "Average hold time: %.0fs\n", s.AvgHoldSec)
}

func writeKindBlock(b *strings.Builder, kind types.QueryKind, s *types.Summary) {
	switch kind {
	case types.QueryDisposition:
		writeDispositions(b, s)
	case types.QueryAgent:
		writeAgents(b, s)
	case types.QuerySentiment:
		writeSentiments(b, s)
	case types.QueryTiming:
		writeTiming(b, s)
	case types.QueryQueue:
		writeQueues(b, s)
	default:
		// summary / category / general queries get the broad picture
		writeDispositions(b, s)
		writeSentiments(b, s)
		writeAgents(b, s)
	}
}

func writeDispositions(b *strings.Builder, s *types.Summary) {
	if len(s.DispositionOrder) == 0 {
		return
	}
	b.WriteString("\nDISPOSITION BREAKDOWN\n")
	for _, label := range s.DispositionOrder {
		stat := s.Dispositions[label]
		fmt.Fprintf(b, "- %s: %d calls (%.1f%%)\n", label, stat.Count, stat.Percentage)
	}
}

func writeSentiments(b *strings.Builder, s *types.Summary) {
	if len(s.SentimentOrder) == 0 {
		return
	}
	b.WriteString("\nSENTIMENT BREAKDOWN\n")
	for _, label := range s.SentimentOrder {
		stat := s.Sentiments[label]
		fmt.Fprintf(b, "- %s: %d calls (%.1f%%)\n", label, stat.Count, stat.Percentage)
	}
}

func writeAgents(b *strings.Builder, s *types.Summary) {
	if len(s.AgentOrder) == 0 {
		return
	}
	b.WriteString("\nAGENT PERFORMANCE\n")
	listed := s.AgentOrder
	if len(listed) > maxAgentsListed {
		listed = listed[:maxAgentsListed]
		fmt.Fprintf(b, "(showing %d of %d agents)\n", maxAgentsListed, len(s.AgentOrder))
	}
	for _, id := range listed {
		a := s.Agents[id]
		fmt.Fprintf(b, "- %s: %d calls, avg duration %.0fs, avg hold %.0fs, sentiment %.2f, top dispositions: %s\n",
			id, a.TotalCalls, a.AvgDurationSec, a.AvgHoldSec, a.SentimentScore,
			strings.Join(a.TopDispositions, ", "))
	}
}

func writeQueues(b *strings.Builder, s *types.Summary) {
	if len(s.QueueOrder) == 0 {
		return
	}
	b.WriteString("\nQUEUE ANALYSIS\n")
	listed := s.QueueOrder
	if len(listed) > maxQueuesListed {
		listed = listed[:maxQueuesListed]
	}
	for _, name := range listed {
		q := s.Queues[name]
		fmt.Fprintf(b, "- %s: %d calls, avg duration %.0fs, avg wait %.0fs, top dispositions: %s\n",
			name, q.TotalCalls, q.AvgDurationSec, q.AvgWaitSec,
			strings.Join(q.TopDispositions, ", "))
	}
}

func writeTiming(b *strings.Builder, s *types.Summary) {
	b.WriteString("\nCALL TIMING PATTERNS\n")
	type hourCount struct {
		hour  int
		count int
	}
	var busy []hourCount
	for hour, count := range s.HourCounts {
		if count > 0 {
			busy = append(busy, hourCount{hour, count})
		}
	}
	// Busiest hours first; equal counts keep hour order.
	for i := 1; i < len(busy); i++ {
		for j := i; j > 0 && busy[j].count > busy[j-1].count; j-- {
			busy[j], busy[j-1] = busy[j-1], busy[j]
		}
	}
	if len(busy) > maxHoursListed {
		busy = busy[:maxHoursListed]
	}
	for _, h := range busy {
		fmt.Fprintf(b, "- %02d:00: %d calls\n", h.hour, h.count)
	}
	for _, day := range s.DayOrder {
		fmt.Fprintf(b, "- %s: %d calls\n", day, s.DayCounts[day])
	}
}

// appendExcerpts adds transcript excerpts from the top-scoring records
// while the remaining budget allows, returning what was included.
func appendExcerpts(b *strings.Builder, query string, records []types.CallRecord, remaining int) []types.TranscriptExcerpt {
	top := relevance.TopRecords(records, query, maxExcerptCalls)
	if len(top) == 0 {
		return nil
	}

	var excerpts []types.TranscriptExcerpt
	header := "\nRELEVANT CALL EXCERPTS\n"
	used := 0

	for _, rec := range top {
		segments := relevance.ExtractSegments(rec.Transcript, query, maxSegmentsPerCall)
		if len(segments) == 0 {
			continue
		}

		excerpt := types.TranscriptExcerpt{
			CallID:      rec.CallID,
			AgentID:     rec.AgentID,
			Disposition: rec.Disposition,
			Sentiment:   rec.Sentiment,
			Text:        strings.Join(segments, " ... "),
			Score:       relevance.ScoreRecord(rec, query),
		}

		block := fmt.Sprintf("--- Call %s (agent: %s, disposition: %s, sentiment: %s) ---\n%s\n",
			excerpt.CallID, valueOr(excerpt.AgentID, "unknown"),
			valueOr(excerpt.Disposition, "unknown"), excerpt.Sentiment, excerpt.Text)

		cost := EstimateTokens(block)
		if used == 0 {
			cost += EstimateTokens(header)
		}
		if used+cost > remaining {
			break
		}

		if used == 0 {
			b.WriteString(header)
		}
		b.WriteString(block)
		used += cost
		excerpts = append(excerpts, excerpt)
	}

	return excerpts
}

// truncate cuts the context so its token estimate fits the budget, with
// a notice when there is room for one.
func truncate(context string, budget int) string {
	maxChars := budget * 4
	if maxChars <= len(TruncationNotice) {
		return CutRunes(context, maxChars)
	}
	return CutRunes(context, maxChars-len(TruncationNotice)) + TruncationNotice
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
