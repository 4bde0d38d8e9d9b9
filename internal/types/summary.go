package types

// DispositionStat holds count and share for one disposition label.
type DispositionStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SentimentStat holds count and share for one sentiment label.
type SentimentStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AgentStats is the per-agent rollup.
type AgentStats struct {
	TotalCalls      int      `json:"totalCalls"`
	AvgDurationSec  float64  `json:"avgDurationSec"`
	AvgHoldSec      float64  `json:"avgHoldSec"`
	TopDispositions []string `json:"topDispositions"`
	SentimentScore  float64  `json:"sentimentScore"` // -1..1, positive minus negative share
}

// QueueStats is the per-queue rollup.
type QueueStats struct {
	TotalCalls      int      `json:"totalCalls"`
	AvgDurationSec  float64  `json:"avgDurationSec"`
	AvgWaitSec      float64  `json:"avgWaitSec"`
	TopDispositions []string `json:"topDispositions"`
}

// Summary is the derived metric summary for one query. It is recomputed
// per request and never shared across requests.
//
// The *Order slices record first-encounter order of the corresponding
// map keys so that iteration (and top-N tie-breaking) is deterministic.
type Summary struct {
	TotalRecords  int     `json:"totalRecords"`
	SampleSize    int     `json:"sampleSize"`
	SamplingRatio float64 `json:"samplingRatio"` // sampleSize / totalRecords, 1 when exact

	AvgDurationSec float64 `json:"avgDurationSec"`
	AvgHoldSec     float64 `json:"avgHoldSec"`

	Dispositions     map[string]DispositionStat `json:"dispositions"`
	DispositionOrder []string                   `json:"-"`
	TopDispositions  []string                   `json:"topDispositions"`

	Sentiments     map[string]SentimentStat `json:"sentiments"`
	SentimentOrder []string                 `json:"-"`

	Agents     map[string]AgentStats `json:"agents"`
	AgentOrder []string              `json:"-"`

	Queues     map[string]QueueStats `json:"queues"`
	QueueOrder []string              `json:"-"`

	HourCounts [24]int        `json:"hourCounts"`
	DayCounts  map[string]int `json:"dayCounts"`
	DayOrder   []string       `json:"-"`
}

// Sampled reports whether the summary was computed over a subset.
func (s *Summary) Sampled() bool {
	return s.SampleSize < s.TotalRecords
}
