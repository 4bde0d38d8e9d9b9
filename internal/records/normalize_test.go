package records

import (
	"context"
	"testing"

	"github.com/callsight/insights/internal/storage"
	"github.com/callsight/insights/internal/types"
	"github.com/rs/zerolog"
)

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *int
	}{
		{"nil", nil, nil},
		{"plain number", float64(180), intPtr(180)},
		{"zero", float64(0), intPtr(0)},
		{"negative number", float64(-5), nil},
		{"object minutes and seconds", map[string]any{"minutes": float64(2), "seconds": float64(30)}, intPtr(150)},
		{"object seconds only", map[string]any{"seconds": float64(45)}, intPtr(45)},
		{"object missing seconds", map[string]any{"minutes": float64(2)}, nil},
		{"object negative seconds", map[string]any{"minutes": float64(1), "seconds": float64(-10)}, nil},
		{"json string object", `{"minutes":2,"seconds":30}`, intPtr(150)},
		{"json string number", "90", intPtr(90)},
		{"unparseable string", "a few minutes", nil},
		{"empty string", "", nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDuration(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("expected %v, got %v", fmtPtr(tt.want), fmtPtr(got))
			}
			if got != nil && *got != *tt.want {
				t.Errorf("expected %d, got %d", *tt.want, *got)
			}
			if got != nil && *got < 0 {
				t.Errorf("normalized duration must never be negative, got %d", *got)
			}
		})
	}
}

func TestNormalizeDurationObjectAndStringAgree(t *testing.T) {
	obj := NormalizeDuration(map[string]any{"minutes": float64(2), "seconds": float64(30)})
	str := NormalizeDuration(`{"minutes":2,"seconds":30}`)

	if obj == nil || str == nil {
		t.Fatal("expected both encodings to decode")
	}
	if *obj != 150 || *str != 150 {
		t.Errorf("expected 150 seconds from both encodings, got %d and %d", *obj, *str)
	}
}

func TestNormalizeSentiment(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantLabel string
	}{
		{"nil", nil, types.SentimentUnknown},
		{"plain string", "Positive", types.SentimentPositive},
		{"uppercase string", "NEGATIVE", types.SentimentNegative},
		{"mixed case", "nEuTrAl", types.SentimentNeutral},
		{"object", map[string]any{"sentiment": "negative"}, types.SentimentNegative},
		{"object without sentiment key", map[string]any{"mood": "bad"}, types.SentimentUnknown},
		{"array", []any{
			map[string]any{"speaker": "customer", "sentiment": "negative", "confidence": 0.9},
			map[string]any{"speaker": "agent", "sentiment": "neutral", "confidence": 0.8},
		}, types.SentimentNegative},
		{"empty array", []any{}, types.SentimentUnknown},
		{"json string array", `[{"speaker":"customer","sentiment":"positive","confidence":0.7}]`, types.SentimentPositive},
		{"json string object", `{"sentiment":"neutral"}`, types.SentimentNeutral},
		{"empty string", "", types.SentimentUnknown},
		{"number", float64(3), types.SentimentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, _ := NormalizeSentiment(tt.input)
			if label != tt.wantLabel {
				t.Errorf("expected %s, got %s", tt.wantLabel, label)
			}
		})
	}
}

func TestNormalizeSentimentEntries(t *testing.T) {
	label, entries := NormalizeSentiment([]any{
		map[string]any{"speaker": "customer", "sentiment": "negative", "confidence": 0.92},
		map[string]any{"speaker": "agent", "sentiment": "neutral", "confidence": 0.85},
	})

	if label != types.SentimentNegative {
		t.Errorf("expected NEGATIVE from first entry, got %s", label)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Speaker != "customer" || entries[0].Sentiment != types.SentimentNegative {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %f", entries[1].Confidence)
	}
}

func TestNormalize(t *testing.T) {
	raw := types.RawCallRecord{
		DateKey:     "2026-03-01",
		CallID:      "call-1",
		AgentID:     "agent-7",
		Queue:       "billing",
		StartedAt:   "2026-03-01T14:30:00Z",
		Duration:    `{"minutes":5,"seconds":12}`,
		HoldTime:    float64(45),
		QueueWait:   "not a duration",
		Disposition: "Resolved",
		Transcript:  "Customer called about a billing issue.",
		Sentiment:   "positive",
	}

	rec := Normalize(raw)

	if rec.DurationSec == nil || *rec.DurationSec != 312 {
		t.Errorf("expected duration 312, got %v", fmtPtr(rec.DurationSec))
	}
	if rec.HoldSec == nil || *rec.HoldSec != 45 {
		t.Errorf("expected hold 45, got %v", fmtPtr(rec.HoldSec))
	}
	if rec.QueueWaitSec != nil {
		t.Errorf("expected unknown queue wait, got %v", *rec.QueueWaitSec)
	}
	if rec.Sentiment != types.SentimentPositive {
		t.Errorf("expected POSITIVE, got %s", rec.Sentiment)
	}
	if rec.StartedAt == nil || rec.StartedAt.Hour() != 14 {
		t.Errorf("expected started at 14:30, got %v", rec.StartedAt)
	}
}

func TestFetcherNormalizesAtBoundary(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	_ = store.SaveRecord(ctx, types.RawCallRecord{
		DateKey:  "2026-03-01",
		CallID:   "call-1",
		AgentID:  "agent-1",
		Duration: map[string]any{"minutes": float64(1), "seconds": float64(30)},
	})
	_ = store.SaveRecord(ctx, types.RawCallRecord{
		DateKey:  "2026-03-01",
		CallID:   "call-2",
		AgentID:  "agent-2",
		Duration: "garbage",
	})

	fetcher := NewFetcher(store, zerolog.Nop())
	recs, err := fetcher.Fetch(ctx, types.RecordFilter{DateKey: "2026-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].DurationSec == nil || *recs[0].DurationSec != 90 {
		t.Errorf("expected 90 seconds, got %v", fmtPtr(recs[0].DurationSec))
	}
	if recs[1].DurationSec != nil {
		t.Errorf("expected unknown duration for garbage input, got %v", *recs[1].DurationSec)
	}
}

func intPtr(v int) *int { return &v }

func fmtPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
