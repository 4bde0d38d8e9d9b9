package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", 5*time.Second, 2, testRetryConfig(), zerolog.Nop())
}

func completionJSON(content string, tokens int) string {
	return `{"choices":[{"message":{"content":"` + content + `"},"finish_reason":"stop"}],"usage":{"total_tokens":` + strconv.Itoa(tokens) + `}}`
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(completionJSON("summary of calls", 1234)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Complete(context.Background(), Request{
		Model: "gpt-4o-mini",
		Messages: []Message{
			{Role: "system", Content: "You are an analyst."},
			{Role: "user", Content: "Summarise."},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Content != "summary of calls" {
		t.Errorf("content = %q", result.Content)
	}
	if result.TokensUsed != 1234 {
		t.Errorf("tokens = %d, want 1234", result.TokensUsed)
	}
	if result.FinishReason != "stop" {
		t.Errorf("finish reason = %q", result.FinishReason)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Model != "gpt-4o-mini" || len(gotBody.Messages) != 2 {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.Temperature == nil || *gotBody.Temperature != 0.2 {
		t.Errorf("temperature not forwarded: %+v", gotBody.Temperature)
	}
	if gotBody.MaxTokens == nil || *gotBody.MaxTokens != 512 {
		t.Errorf("max_tokens not forwarded: %+v", gotBody.MaxTokens)
	}
}

func TestCompleteRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionJSON("recovered", 10)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Complete(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "recovered" {
		t.Errorf("content = %q", result.Content)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestCompleteFatalDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		cause     error
		transient bool
	}{
		{"rate limited", 429, "", ErrRateLimited, true},
		{"payload too large", 413, "", ErrContextTooLarge, false},
		{"context overflow as 400", 400, `{"error":{"code":"context_length_exceeded"}}`, ErrContextTooLarge, false},
		{"plain bad request", 400, `{"error":"invalid model"}`, nil, false},
		{"unauthorized", 401, "", ErrAuthentication, false},
		{"forbidden", 403, "", ErrAuthentication, false},
		{"bad gateway", 502, "", ErrUpstream, true},
		{"service unavailable", 503, "", ErrUpstream, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyHTTPError(tt.status, tt.body)
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
			if IsTransient(err) != tt.transient {
				t.Errorf("transient = %v, want %v", IsTransient(err), tt.transient)
			}
		})
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[],"usage":{"total_tokens":0}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil || IsTransient(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}
