package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callsight/insights/internal/aggregate"
	"github.com/callsight/insights/internal/llm"
	"github.com/callsight/insights/internal/metrics"
	"github.com/callsight/insights/internal/prompt"
	"github.com/callsight/insights/internal/types"
)

// ErrEmptyQuery is returned when the request carries no query text.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrUnableToProcess is returned when every chunk of the chunked
// fallback failed.
var ErrUnableToProcess = errors.New("unable to process query")

const (
	maxChunks = 3

	maxCompletionSmall = 600
	maxCompletionLarge = 1500

	temperature = 0.2

	systemPrompt = "You are an analytics assistant for a call center. " +
		"Answer using only the data in the provided context. " +
		"Be concise, cite concrete numbers, and caveat conclusions when the context notes sampling or truncation."

	subsetAnnotation = " (analysing subset of data)"
	subsetNote       = "\n\nNote: this analysis is based on a subset of the available call data."
)

// Completer is the one seam to the hosted completion API. Satisfied by
// *llm.Client; replaced wholesale in tests.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// RecordSource supplies normalized call records for a filter.
type RecordSource interface {
	Fetch(ctx context.Context, filter types.RecordFilter) ([]types.CallRecord, error)
}

// Options tunes the pipeline.
type Options struct {
	ModelSmall       string
	ModelLarge       string
	TokenBudget      int
	HardTokenCeiling int
	MaxSample        int
	CacheTTL         time.Duration
}

// Service runs the chat query pipeline.
type Service struct {
	source  RecordSource
	llm     Completer
	sampler *aggregate.Sampler
	cache   *responseCache
	counter *prompt.Counter
	opts    Options
	logger  zerolog.Logger
}

// NewService builds a Service. counter is optional; when present it is
// used for exact prompt token counts in response metadata.
func NewService(source RecordSource, completer Completer, counter *prompt.Counter, opts Options, logger zerolog.Logger) *Service {
	if opts.MaxSample <= 0 {
		opts.MaxSample = aggregate.DefaultMaxSample
	}
	return &Service{
		source:  source,
		llm:     completer,
		sampler: aggregate.NewSampler(),
		cache:   newResponseCache(opts.CacheTTL),
		counter: counter,
		opts:    opts,
		logger:  logger.With().Str("component", "chat").Logger(),
	}
}

// Answer runs the full pipeline for one chat query. When the assembled
// payload would exceed the hard token ceiling, or the upstream rejects
// it as too large, non-disposition queries fall back to chunked
// analysis over record subsets.
func (s *Service) Answer(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	kind := resolveKind(req.QueryType, req.Query)

	var filter types.RecordFilter
	if req.Filters != nil {
		filter = *req.Filters
	}
	records, err := s.source.Fetch(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	metrics.RecordsAggregated.Observe(float64(len(records)))

	key := cacheKey{query: req.Query, kind: kind, recordCount: len(records)}
	if cached, ok := s.cache.get(key); ok {
		metrics.CacheHitsTotal.Inc()
		return &cached, nil
	}

	response, err := s.answer(ctx, req.Query, kind, records)
	if err != nil && errors.Is(err, llm.ErrContextTooLarge) && kind != types.QueryDisposition {
		response, err = s.answerChunked(ctx, req.Query, kind, records)
	}
	if err != nil {
		return nil, err
	}

	s.cache.put(key, *response)
	return response, nil
}

// answer runs aggregate → assemble → complete over one record set.
func (s *Service) answer(ctx context.Context, query string, kind types.QueryKind, records []types.CallRecord) (*types.ChatResponse, error) {
	summary := aggregate.AggregateSampled(records, kind, s.sampler, s.opts.MaxSample)
	assembly := prompt.Assemble(query, kind, summary, records, s.opts.TokenBudget)
	metrics.PromptTokensEstimated.Observe(float64(assembly.EstimatedTokens))

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", assembly.Context, query)

	// The ceiling covers the whole call, not just the context block.
	// Size it from the pre-truncation estimate: a context the assembler
	// had to cut down to budget can still be too large to answer in one
	// call, and should go through the chunked path instead.
	estimated := prompt.EstimateTokens(systemPrompt) + prompt.EstimateTokens(userPrompt) +
		(assembly.RawTokens - assembly.EstimatedTokens)
	if estimated > s.opts.HardTokenCeiling && kind != types.QueryDisposition {
		return nil, &llm.FatalError{Err: llm.ErrContextTooLarge}
	}

	model, maxTokens := s.selectModel(kind, assembly.TranscriptsIncluded)

	result, err := s.llm.Complete(ctx, llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	metrics.LLMRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.LLMTokensTotal.WithLabelValues(model).Add(float64(result.TokensUsed))

	metadata := types.ChatMetadata{
		QueryType:   string(kind),
		TokensUsed:  result.TokensUsed,
		Model:       model,
		DataPoints:  summary.SampleSize,
		Sampled:     summary.Sampled(),
		SampleRatio: summary.SamplingRatio,
	}
	if s.counter != nil {
		metadata.PromptTokens = s.counter.Count(systemPrompt) + s.counter.Count(userPrompt)
	}

	return &types.ChatResponse{Response: result.Content, Metadata: metadata}, nil
}

// answerChunked partitions the record set and runs the pipeline per
// chunk, returning the first success with a disclosure note. Failed
// chunks are logged and skipped.
func (s *Service) answerChunked(ctx context.Context, query string, kind types.QueryKind, records []types.CallRecord) (*types.ChatResponse, error) {
	metrics.ChunkedFallbacksTotal.Inc()
	chunks := chunkRecords(records, maxChunks)
	s.logger.Info().
		Int("records", len(records)).
		Int("chunks", len(chunks)).
		Msg("falling back to chunked analysis")

	annotated := query + subsetAnnotation
	for i, chunk := range chunks {
		response, err := s.answer(ctx, annotated, kind, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Int("chunk", i).Msg("chunk analysis failed")
			continue
		}
		response.Response += subsetNote
		return response, nil
	}

	return nil, fmt.Errorf("%w: all %d data subsets failed", ErrUnableToProcess, len(chunks))
}

// selectModel picks the cheaper model for simple aggregate lookups and
// the larger one when the answer needs transcripts or a multi-section
// narrative.
func (s *Service) selectModel(kind types.QueryKind, transcripts bool) (string, int) {
	if transcripts || kind == types.QuerySummary || kind == types.QueryGeneral {
		return s.opts.ModelLarge, maxCompletionLarge
	}
	return s.opts.ModelSmall, maxCompletionSmall
}

// chunkRecords splits records into at most max contiguous chunks of
// near-equal size.
func chunkRecords(records []types.CallRecord, max int) [][]types.CallRecord {
	if len(records) == 0 {
		return [][]types.CallRecord{records}
	}
	size := (len(records) + max - 1) / max
	var chunks [][]types.CallRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
