package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/callsight/insights/internal/records"
	"github.com/callsight/insights/internal/storage"
	"github.com/callsight/insights/internal/types"
)

func seededCallsHandler(t *testing.T) *CallsHandler {
	t.Helper()
	store := storage.NewMemoryStore()
	raws := []types.RawCallRecord{
		{DateKey: "2026-03-01", CallID: "c1", AgentID: "a1", Disposition: "Resolved", Duration: float64(120), Sentiment: "positive"},
		{DateKey: "2026-03-01", CallID: "c2", AgentID: "a2", Disposition: "Escalated", Duration: "90", Sentiment: "negative"},
		{DateKey: "2026-03-02", CallID: "c3", AgentID: "a1", Disposition: "Resolved", Duration: map[string]any{"minutes": float64(2), "seconds": float64(30)}},
	}
	for _, raw := range raws {
		if err := store.SaveRecord(context.Background(), raw); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	return NewCallsHandler(records.NewFetcher(store, zerolog.Nop()), zerolog.Nop())
}

func getCalls(t *testing.T, h *CallsHandler, url string) (*httptest.ResponseRecorder, []types.CallRecord) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ListCalls(rec, req)

	var results []types.CallRecord
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
			t.Fatalf("invalid response JSON: %v", err)
		}
	}
	return rec, results
}

func TestListCalls(t *testing.T) {
	h := seededCallsHandler(t)

	rec, results := getCalls(t, h, "/api/calls")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(results) != 3 {
		t.Fatalf("got %d records, want 3", len(results))
	}

	// Records come back normalized: sentiment uppercased, durations in
	// whole seconds regardless of stored encoding.
	for _, r := range results {
		if r.CallID == "c1" {
			if r.Sentiment != types.SentimentPositive {
				t.Errorf("c1 sentiment = %q", r.Sentiment)
			}
			if r.DurationSec == nil || *r.DurationSec != 120 {
				t.Errorf("c1 duration = %v", r.DurationSec)
			}
		}
		if r.CallID == "c3" {
			if r.DurationSec == nil || *r.DurationSec != 150 {
				t.Errorf("c3 duration = %v", r.DurationSec)
			}
		}
	}
}

func TestListCallsFiltered(t *testing.T) {
	h := seededCallsHandler(t)

	rec, results := getCalls(t, h, "/api/calls?agentId=a1&date=2026-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(results) != 1 || results[0].CallID != "c1" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestListCallsBadLimit(t *testing.T) {
	h := seededCallsHandler(t)

	rec, _ := getCalls(t, h, "/api/calls?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec, _ = getCalls(t, h, "/api/calls?limit=-1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
