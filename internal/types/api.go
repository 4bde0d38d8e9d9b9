package types

// ChatRequest is the chat query endpoint's request body.
type ChatRequest struct {
	Query     string        `json:"query"`
	QueryType string        `json:"queryType,omitempty"`
	Filters   *RecordFilter `json:"filters,omitempty"`
}

// ChatMetadata accompanies every successful chat response.
type ChatMetadata struct {
	QueryType    string  `json:"queryType"`
	TokensUsed   int     `json:"tokensUsed"`
	Model        string  `json:"model"`
	DataPoints   int     `json:"dataPoints"`
	Sampled      bool    `json:"sampled"`
	SampleRatio  float64 `json:"sampleRatio,omitempty"`
	PromptTokens int     `json:"promptTokens,omitempty"` // exact tokenizer count, when available
}

// ChatResponse is the chat query endpoint's success body.
type ChatResponse struct {
	Response string       `json:"response"`
	Metadata ChatMetadata `json:"metadata"`
}

// ErrorResponse is the uniform error envelope. Retryable tells the
// caller whether offering a retry action makes sense.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// QA review batch endpoint types.

// QACriterionType selects the assessment shape for a criterion.
type QACriterionType string

const (
	QATypeNumber  QACriterionType = "Number"  // 1-10 score
	QATypeBoolean QACriterionType = "Boolean" // YES/NO plus supporting excerpt
	QATypeString  QACriterionType = "String"  // satisfaction-tier label
)

// QACriterion is one thing to assess on every reviewed call.
type QACriterion struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Type        QACriterionType `json:"type"`
}

// QAReviewRequest asks for a batch review of recent calls per agent.
type QAReviewRequest struct {
	Criteria       []QACriterion `json:"criteria"`
	SelectedAgents []string      `json:"selectedAgents"`
	NumberOfCalls  int           `json:"numberOfCalls"`
	DateKey        string        `json:"dateKey,omitempty"`
}

// QAAssessment is one criterion's result on one call. Exactly one of
// Score, Answer, or Tier is populated, matching the criterion type.
type QAAssessment struct {
	CriterionID string `json:"criterionId"`
	Score       *int   `json:"score,omitempty"`   // Number: 1-10
	Answer      string `json:"answer,omitempty"`  // Boolean: YES or NO
	Excerpt     string `json:"excerpt,omitempty"` // Boolean: supporting quote
	Tier        string `json:"tier,omitempty"`    // String: satisfaction tier
}

// QACallReview is all criterion assessments for one call.
type QACallReview struct {
	CallID      string         `json:"callId"`
	Assessments []QAAssessment `json:"assessments"`
}

// QAAgentReport is the per-agent result of a review batch.
type QAAgentReport struct {
	AgentID string         `json:"agentId"`
	Calls   []QACallReview `json:"calls"`
	Summary string         `json:"summary"`
}

// QAReviewResponse is the batch endpoint's success body.
type QAReviewResponse struct {
	ReportID string          `json:"reportId"`
	Reports  []QAAgentReport `json:"reports"`
	Summary  string          `json:"summary"`
}
