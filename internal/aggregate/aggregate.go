// Package aggregate reduces normalized call records into the typed
// metric summaries the prompt pipeline and the live feed consume.
package aggregate

import (
	"math"
	"sort"

	"github.com/callsight/insights/internal/types"
)

const (
	// UnknownLabel buckets records with an empty disposition so that
	// disposition counts always sum to the total record count.
	UnknownLabel = "Unknown"

	topPerEntity = 3
	topGlobal    = 5
)

// counter tracks a count per label plus first-encounter order for
// deterministic iteration and tie-breaking.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// top returns up to n labels sorted by count descending, ties broken by
// first-encounter order.
func (c *counter) top(n int) []string {
	labels := make([]string, len(c.order))
	copy(labels, c.order)
	sort.SliceStable(labels, func(i, j int) bool {
		return c.counts[labels[i]] > c.counts[labels[j]]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

// meanAcc accumulates an average that excludes unknown (nil) values
// instead of counting them as zero.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v *int) {
	if v == nil {
		return
	}
	m.sum += float64(*v)
	m.n++
}

func (m *meanAcc) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

type agentAcc struct {
	calls        int
	duration     meanAcc
	hold         meanAcc
	dispositions *counter
	positive     int
	negative     int
	sentimented  int
}

type queueAcc struct {
	calls        int
	duration     meanAcc
	wait         meanAcc
	dispositions *counter
}

// Aggregate reduces the given records into a Summary in a single pass
// followed by a derivation pass. It is pure: same input, same output,
// no shared state. Percentages describe exactly the records passed in;
// sampling, when wanted, is the caller's decision (see AggregateSampled).
func Aggregate(records []types.CallRecord) *types.Summary {
	total := len(records)

	dispositions := newCounter()
	sentiments := newCounter()
	var duration, hold meanAcc
	agents := make(map[string]*agentAcc)
	var agentOrder []string
	queues := make(map[string]*queueAcc)
	var queueOrder []string
	var hours [24]int
	days := newCounter()

	for _, rec := range records {
		disposition := rec.Disposition
		if disposition == "" {
			disposition = UnknownLabel
		}
		dispositions.add(disposition)

		sentiment := rec.Sentiment
		if sentiment == "" {
			sentiment = types.SentimentUnknown
		}
		sentiments.add(sentiment)

		duration.add(rec.DurationSec)
		hold.add(rec.HoldSec)

		if rec.AgentID != "" {
			acc, ok := agents[rec.AgentID]
			if !ok {
				acc = &agentAcc{dispositions: newCounter()}
				agents[rec.AgentID] = acc
				agentOrder = append(agentOrder, rec.AgentID)
			}
			acc.calls++
			acc.duration.add(rec.DurationSec)
			acc.hold.add(rec.HoldSec)
			acc.dispositions.add(disposition)
			switch sentiment {
			case types.SentimentPositive:
				acc.positive++
				acc.sentimented++
			case types.SentimentNegative:
				acc.negative++
				acc.sentimented++
			case types.SentimentNeutral:
				acc.sentimented++
			}
		}

		if rec.Queue != "" {
			acc, ok := queues[rec.Queue]
			if !ok {
				acc = &queueAcc{dispositions: newCounter()}
				queues[rec.Queue] = acc
				queueOrder = append(queueOrder, rec.Queue)
			}
			acc.calls++
			acc.duration.add(rec.DurationSec)
			acc.wait.add(rec.QueueWaitSec)
			acc.dispositions.add(disposition)
		}

		if rec.StartedAt != nil {
			hours[rec.StartedAt.Hour()]++
		}
		if rec.DateKey != "" {
			days.add(rec.DateKey)
		}
	}

	// Derivation pass.
	summary := &types.Summary{
		TotalRecords:     total,
		SampleSize:       total,
		SamplingRatio:    1,
		AvgDurationSec:   duration.mean(),
		AvgHoldSec:       hold.mean(),
		Dispositions:     make(map[string]types.DispositionStat, len(dispositions.order)),
		DispositionOrder: dispositions.order,
		TopDispositions:  dispositions.top(topGlobal),
		Sentiments:       make(map[string]types.SentimentStat, len(sentiments.order)),
		SentimentOrder:   sentiments.order,
		Agents:           make(map[string]types.AgentStats, len(agentOrder)),
		AgentOrder:       agentOrder,
		Queues:           make(map[string]types.QueueStats, len(queueOrder)),
		QueueOrder:       queueOrder,
		HourCounts:       hours,
		DayCounts:        countsCopy(days),
		DayOrder:         days.order,
	}

	for _, label := range dispositions.order {
		count := dispositions.counts[label]
		summary.Dispositions[label] = types.DispositionStat{
			Count:      count,
			Percentage: percentage(count, total),
		}
	}

	for _, label := range sentiments.order {
		count := sentiments.counts[label]
		summary.Sentiments[label] = types.SentimentStat{
			Count:      count,
			Percentage: percentage(count, total),
		}
	}

	for _, id := range agentOrder {
		acc := agents[id]
		score := 0.0
		if acc.sentimented > 0 {
			score = float64(acc.positive-acc.negative) / float64(acc.sentimented)
		}
		summary.Agents[id] = types.AgentStats{
			TotalCalls:      acc.calls,
			AvgDurationSec:  acc.duration.mean(),
			AvgHoldSec:      acc.hold.mean(),
			TopDispositions: acc.dispositions.top(topPerEntity),
			SentimentScore:  score,
		}
	}

	for _, name := range queueOrder {
		acc := queues[name]
		summary.Queues[name] = types.QueueStats{
			TotalCalls:      acc.calls,
			AvgDurationSec:  acc.duration.mean(),
			AvgWaitSec:      acc.wait.mean(),
			TopDispositions: acc.dispositions.top(topPerEntity),
		}
	}

	return summary
}

// AggregateSampled aggregates over a bounded sample for query kinds
// that tolerate approximation. Disposition queries always run over the
// full set: their counts are a hard accuracy requirement.
func AggregateSampled(records []types.CallRecord, kind types.QueryKind, sampler *Sampler, maxSample int) *types.Summary {
	if kind == types.QueryDisposition || maxSample <= 0 || len(records) <= maxSample {
		return Aggregate(records)
	}

	sampled := Sample(sampler, records, maxSample)
	summary := Aggregate(sampled)
	summary.TotalRecords = len(records)
	summary.SampleSize = len(sampled)
	summary.SamplingRatio = float64(len(sampled)) / float64(len(records))
	return summary
}

// percentage returns the share rounded to one decimal place, guarding
// the zero-total case.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func countsCopy(c *counter) map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
