// Package llm is the gateway to an OpenAI-compatible chat completion
// API: request shaping, bounded concurrency, retry with backoff, and a
// transient/fatal error taxonomy.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// maxResponseBytes caps how much of an upstream response body we read.
const maxResponseBytes = 1 << 20

// Message is one turn of a chat completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Result holds the parsed completion.
type Result struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Client talks to one OpenAI-compatible endpoint. Safe for concurrent
// use; in-flight calls are capped by the concurrency semaphore.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   RetryConfig
	sem     *semaphore.Weighted
	logger  zerolog.Logger
}

// NewClient builds a Client. concurrency caps simultaneous upstream
// calls across all callers.
func NewClient(baseURL, apiKey string, timeout time.Duration, concurrency int64, retry RetryConfig, logger zerolog.Logger) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
		sem:     semaphore.NewWeighted(concurrency),
		logger:  logger.With().Str("component", "llm").Logger(),
	}
}

// Complete performs one chat completion, retrying transient failures
// with exponential backoff. The returned error is a *TransientError or
// *FatalError wrapping one of the sentinel causes.
func (c *Client) Complete(ctx context.Context, req Request) (*Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring completion slot: %w", err)
	}
	defer c.sem.Release(1)

	requestID := uuid.NewString()
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retry.backoffDelay(attempt - 1)
			c.logger.Debug().
				Str("request_id", requestID).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying completion")
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}

		result, err := c.doRequest(ctx, requestID, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
		c.logger.Warn().
			Str("request_id", requestID).
			Int("attempt", attempt+1).
			Err(err).
			Msg("completion attempt failed")
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, requestID string, req Request) (*Result, error) {
	payload := completionRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}
	if req.Temperature > 0 {
		payload.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = &req.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("building request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: fmt.Errorf("%w: %v", ErrUpstream, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, string(respBody))
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &FatalError{Err: fmt.Errorf("response contained no choices")}
	}

	return &Result{
		Content:      parsed.Choices[0].Message.Content,
		TokensUsed:   parsed.Usage.TotalTokens,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}
