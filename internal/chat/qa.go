package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/callsight/insights/internal/llm"
	"github.com/callsight/insights/internal/prompt"
	"github.com/callsight/insights/internal/types"
)

// QA review validation errors.
var (
	ErrNoCriteria = errors.New("at least one review criterion is required")
	ErrNoAgents   = errors.New("at least one agent must be selected")
)

const (
	qaDefaultCalls      = 3
	qaMaxCalls          = 10
	qaTranscriptMaxLen  = 4000
	qaCompletionTokens  = 2000
	qaSummaryCompletion = 400

	qaSystemPrompt = "You are a quality assurance reviewer for a call center. " +
		"Assess each call against every criterion using only the transcript provided. " +
		"Respond with JSON only, no markdown, matching exactly the schema given in the instructions."
)

// qaModelReport is the JSON shape the model is instructed to return for
// one agent.
type qaModelReport struct {
	Calls   []types.QACallReview `json:"calls"`
	Summary string               `json:"summary"`
}

// Review runs a QA review batch: for each selected agent, the most
// recent calls are assessed against every criterion in one LLM call,
// then an overall summary is produced. An agent whose review fails is
// reported with the error in its summary rather than failing the batch.
func (s *Service) Review(ctx context.Context, req types.QAReviewRequest) (*types.QAReviewResponse, error) {
	if len(req.Criteria) == 0 {
		return nil, ErrNoCriteria
	}
	if len(req.SelectedAgents) == 0 {
		return nil, ErrNoAgents
	}

	perAgent := req.NumberOfCalls
	if perAgent <= 0 {
		perAgent = qaDefaultCalls
	}
	if perAgent > qaMaxCalls {
		perAgent = qaMaxCalls
	}

	reports := make([]types.QAAgentReport, 0, len(req.SelectedAgents))
	for _, agentID := range req.SelectedAgents {
		report, err := s.reviewAgent(ctx, agentID, req.Criteria, perAgent, req.DateKey)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("agent_id", agentID).Msg("agent review failed")
			report = types.QAAgentReport{
				AgentID: agentID,
				Summary: "Review could not be completed for this agent.",
			}
		}
		reports = append(reports, report)
	}

	return &types.QAReviewResponse{
		ReportID: uuid.NewString(),
		Reports:  reports,
		Summary:  s.batchSummary(ctx, reports),
	}, nil
}

func (s *Service) reviewAgent(ctx context.Context, agentID string, criteria []types.QACriterion, maxCalls int, dateKey string) (types.QAAgentReport, error) {
	records, err := s.source.Fetch(ctx, types.RecordFilter{AgentID: agentID, DateKey: dateKey})
	if err != nil {
		return types.QAAgentReport{}, fmt.Errorf("fetching calls for agent %s: %w", agentID, err)
	}

	reviewable := withTranscripts(records)
	if len(reviewable) == 0 {
		return types.QAAgentReport{
			AgentID: agentID,
			Summary: "No calls with transcripts were available to review.",
		}, nil
	}
	if len(reviewable) > maxCalls {
		reviewable = reviewable[len(reviewable)-maxCalls:]
	}

	result, err := s.llm.Complete(ctx, llm.Request{
		Model: s.opts.ModelLarge,
		Messages: []llm.Message{
			{Role: "system", Content: qaSystemPrompt},
			{Role: "user", Content: buildReviewPrompt(agentID, criteria, reviewable)},
		},
		Temperature: temperature,
		MaxTokens:   qaCompletionTokens,
	})
	if err != nil {
		return types.QAAgentReport{}, err
	}

	var parsed qaModelReport
	if err := json.Unmarshal([]byte(extractJSON(result.Content)), &parsed); err != nil {
		return types.QAAgentReport{}, fmt.Errorf("parsing review response for agent %s: %w", agentID, err)
	}

	return types.QAAgentReport{
		AgentID: agentID,
		Calls:   parsed.Calls,
		Summary: parsed.Summary,
	}, nil
}

// buildReviewPrompt lays out the criteria, the expected JSON schema,
// and each call's transcript.
func buildReviewPrompt(agentID string, criteria []types.QACriterion, records []types.CallRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review the following %d call(s) handled by agent %s.\n\n", len(records), agentID)

	b.WriteString("Criteria:\n")
	for _, c := range criteria {
		switch c.Type {
		case types.QATypeNumber:
			fmt.Fprintf(&b, "- %s (%s): score from 1 to 10, set \"score\"\n", c.ID, c.Description)
		case types.QATypeBoolean:
			fmt.Fprintf(&b, "- %s (%s): set \"answer\" to YES or NO and \"excerpt\" to a supporting quote\n", c.ID, c.Description)
		default:
			fmt.Fprintf(&b, "- %s (%s): set \"tier\" to one of Very Satisfied, Satisfied, Neutral, Dissatisfied, Very Dissatisfied\n", c.ID, c.Description)
		}
	}

	b.WriteString("\nReturn JSON of the form:\n")
	b.WriteString(`{"calls":[{"callId":"...","assessments":[{"criterionId":"...","score":0,"answer":"","excerpt":"","tier":""}]}],"summary":"..."}`)
	b.WriteString("\nInclude every criterion for every call, populating only the field matching its type.\n")

	for _, rec := range records {
		transcript := rec.Transcript
		if len(transcript) > qaTranscriptMaxLen {
			transcript = prompt.CutRunes(transcript, qaTranscriptMaxLen) + "..."
		}
		fmt.Fprintf(&b, "\n--- Call %s (disposition: %s, sentiment: %s) ---\n%s\n",
			rec.CallID, rec.Disposition, rec.Sentiment, transcript)
	}

	return b.String()
}

// batchSummary asks the model to condense the per-agent summaries. On
// failure it falls back to a plain derived line so the batch still
// returns a summary.
func (s *Service) batchSummary(ctx context.Context, reports []types.QAAgentReport) string {
	fallback := fmt.Sprintf("Reviewed %d agent(s).", len(reports))

	var b strings.Builder
	b.WriteString("Summarise the overall quality picture from these per-agent review summaries in 2-3 sentences:\n")
	any := false
	for _, r := range reports {
		if r.Summary == "" {
			continue
		}
		any = true
		fmt.Fprintf(&b, "- %s: %s\n", r.AgentID, r.Summary)
	}
	if !any {
		return fallback
	}

	result, err := s.llm.Complete(ctx, llm.Request{
		Model: s.opts.ModelSmall,
		Messages: []llm.Message{
			{Role: "system", Content: "You summarise call center QA results concisely."},
			{Role: "user", Content: b.String()},
		},
		Temperature: temperature,
		MaxTokens:   qaSummaryCompletion,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("batch summary failed")
		return fallback
	}
	return result.Content
}

// extractJSON trims whatever surrounds the outermost JSON object, since
// models wrap responses in markdown fences despite instructions.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func withTranscripts(records []types.CallRecord) []types.CallRecord {
	out := make([]types.CallRecord, 0, len(records))
	for _, r := range records {
		if r.Transcript != "" {
			out = append(out, r)
		}
	}
	return out
}
