package aggregate

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/callsight/insights/internal/types"
)

func rec(agent, queue, disposition, sentiment string, durationSec *int) types.CallRecord {
	return types.CallRecord{
		DateKey:     "2026-03-01",
		CallID:      "call",
		AgentID:     agent,
		Queue:       queue,
		Disposition: disposition,
		Sentiment:   sentiment,
		DurationSec: durationSec,
	}
}

func secs(v int) *int { return &v }

func TestAggregateDispositionCounts(t *testing.T) {
	records := []types.CallRecord{
		rec("a1", "q1", "Resolved", types.SentimentPositive, secs(100)),
		rec("a1", "q1", "Resolved", types.SentimentNeutral, secs(200)),
		rec("a2", "q2", "Escalated", types.SentimentNegative, secs(300)),
	}

	summary := Aggregate(records)

	resolved := summary.Dispositions["Resolved"]
	escalated := summary.Dispositions["Escalated"]

	if resolved.Count != 2 || escalated.Count != 1 {
		t.Errorf("expected counts 2/1, got %d/%d", resolved.Count, escalated.Count)
	}
	if resolved.Percentage != 66.7 {
		t.Errorf("expected 66.7%%, got %v", resolved.Percentage)
	}
	if escalated.Percentage != 33.3 {
		t.Errorf("expected 33.3%%, got %v", escalated.Percentage)
	}
}

func TestAggregateCountsSumToTotal(t *testing.T) {
	var records []types.CallRecord
	dispositions := []string{"Resolved", "Escalated", "", "Callback", "Resolved"}
	for i := 0; i < 100; i++ {
		records = append(records, rec(
			fmt.Sprintf("agent-%d", i%7),
			"queue",
			dispositions[i%len(dispositions)],
			types.SentimentNeutral,
			secs(i),
		))
	}

	summary := Aggregate(records)

	total := 0
	for _, stat := range summary.Dispositions {
		total += stat.Count
	}
	if total != len(records) {
		t.Errorf("disposition counts sum to %d, want %d", total, len(records))
	}

	// Empty dispositions land in the Unknown bucket rather than vanishing.
	if summary.Dispositions[UnknownLabel].Count == 0 {
		t.Error("expected Unknown bucket for empty dispositions")
	}
}

func TestAggregateExcludesUnknownDurationsFromAverages(t *testing.T) {
	records := []types.CallRecord{
		rec("a1", "", "Resolved", types.SentimentNeutral, secs(100)),
		rec("a1", "", "Resolved", types.SentimentNeutral, secs(200)),
		rec("a1", "", "Resolved", types.SentimentNeutral, nil), // undecodable
	}

	summary := Aggregate(records)

	// Average is over the two known values, not deflated by the unknown.
	if summary.AvgDurationSec != 150 {
		t.Errorf("expected average 150, got %v", summary.AvgDurationSec)
	}
	if summary.Agents["a1"].TotalCalls != 3 {
		t.Errorf("unknown duration still counts as a call, got %d", summary.Agents["a1"].TotalCalls)
	}
	if summary.Agents["a1"].AvgDurationSec != 150 {
		t.Errorf("expected agent average 150, got %v", summary.Agents["a1"].AvgDurationSec)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	summary := Aggregate(nil)

	if summary.TotalRecords != 0 {
		t.Errorf("expected 0 records, got %d", summary.TotalRecords)
	}
	if summary.AvgDurationSec != 0 {
		t.Errorf("expected zero average on empty input, got %v", summary.AvgDurationSec)
	}
	if len(summary.Dispositions) != 0 {
		t.Errorf("expected no dispositions, got %d", len(summary.Dispositions))
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []types.CallRecord{
		rec("a1", "q1", "Resolved", types.SentimentPositive, secs(120)),
		rec("a2", "q1", "Escalated", types.SentimentNegative, secs(340)),
		rec("a1", "q2", "Callback", types.SentimentNeutral, nil),
	}

	first := Aggregate(records)
	second := Aggregate(records)

	if !reflect.DeepEqual(first, second) {
		t.Error("aggregate is not idempotent: two runs over the same input differ")
	}
}

func TestAggregateTopDispositionTieBreak(t *testing.T) {
	// Two dispositions with equal counts: first-encountered wins.
	records := []types.CallRecord{
		rec("a1", "", "Billing", types.SentimentNeutral, secs(10)),
		rec("a1", "", "Support", types.SentimentNeutral, secs(10)),
		rec("a1", "", "Billing", types.SentimentNeutral, secs(10)),
		rec("a1", "", "Support", types.SentimentNeutral, secs(10)),
		rec("a1", "", "Sales", types.SentimentNeutral, secs(10)),
	}

	summary := Aggregate(records)

	want := []string{"Billing", "Support", "Sales"}
	if !reflect.DeepEqual(summary.TopDispositions, want) {
		t.Errorf("expected %v, got %v", want, summary.TopDispositions)
	}
}

func TestAggregateAgentSentimentScore(t *testing.T) {
	records := []types.CallRecord{
		rec("a1", "", "Resolved", types.SentimentPositive, secs(10)),
		rec("a1", "", "Resolved", types.SentimentPositive, secs(10)),
		rec("a1", "", "Resolved", types.SentimentNegative, secs(10)),
		rec("a1", "", "Resolved", types.SentimentNeutral, secs(10)),
	}

	summary := Aggregate(records)

	// (2 positive - 1 negative) / 4 scored calls
	if summary.Agents["a1"].SentimentScore != 0.25 {
		t.Errorf("expected 0.25, got %v", summary.Agents["a1"].SentimentScore)
	}
}

func TestAggregateHourHistogram(t *testing.T) {
	at := func(hour int) *time.Time {
		ts := time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC)
		return &ts
	}
	records := []types.CallRecord{
		{DateKey: "2026-03-01", CallID: "1", StartedAt: at(9), Sentiment: types.SentimentNeutral},
		{DateKey: "2026-03-01", CallID: "2", StartedAt: at(9), Sentiment: types.SentimentNeutral},
		{DateKey: "2026-03-01", CallID: "3", StartedAt: at(17), Sentiment: types.SentimentNeutral},
	}

	summary := Aggregate(records)

	if summary.HourCounts[9] != 2 || summary.HourCounts[17] != 1 {
		t.Errorf("unexpected hour histogram: %v", summary.HourCounts)
	}
}

func TestSampleIdentityBelowCap(t *testing.T) {
	sampler := NewSeededSampler(1)
	records := []int{1, 2, 3, 4, 5}

	out := Sample(sampler, records, 10)

	if !reflect.DeepEqual(out, records) {
		t.Errorf("expected identity below cap, got %v", out)
	}
}

func TestSampleSizeAndOrder(t *testing.T) {
	sampler := NewSeededSampler(42)
	records := make([]int, 1000)
	for i := range records {
		records[i] = i
	}

	out := Sample(sampler, records, 100)

	if len(out) != 100 {
		t.Fatalf("expected exactly 100 samples, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Fatalf("sample does not preserve input order at %d: %d <= %d", i, out[i], out[i-1])
		}
	}
}

func TestAggregateSampledDispositionNeverSamples(t *testing.T) {
	var records []types.CallRecord
	for i := 0; i < 1000; i++ {
		records = append(records, rec("a1", "", "Resolved", types.SentimentNeutral, secs(10)))
	}

	summary := AggregateSampled(records, types.QueryDisposition, NewSeededSampler(1), 100)

	if summary.SampleSize != 1000 {
		t.Errorf("disposition queries must not sample, got sample size %d", summary.SampleSize)
	}
	if summary.Dispositions["Resolved"].Count != 1000 {
		t.Errorf("expected exact count 1000, got %d", summary.Dispositions["Resolved"].Count)
	}
}

func TestAggregateSampledCarriesRatio(t *testing.T) {
	var records []types.CallRecord
	for i := 0; i < 1000; i++ {
		records = append(records, rec("a1", "", "Resolved", types.SentimentNeutral, secs(10)))
	}

	summary := AggregateSampled(records, types.QueryAgent, NewSeededSampler(1), 250)

	if summary.SampleSize != 250 {
		t.Errorf("expected sample size 250, got %d", summary.SampleSize)
	}
	if summary.TotalRecords != 1000 {
		t.Errorf("expected total 1000, got %d", summary.TotalRecords)
	}
	if summary.SamplingRatio != 0.25 {
		t.Errorf("expected ratio 0.25, got %v", summary.SamplingRatio)
	}
	if !summary.Sampled() {
		t.Error("expected Sampled() to report true")
	}
}
