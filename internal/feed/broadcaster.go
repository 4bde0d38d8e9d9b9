package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/callsight/insights/internal/aggregate"
	"github.com/callsight/insights/internal/types"
)

// RecordSource supplies normalized call records.
type RecordSource interface {
	Fetch(ctx context.Context, filter types.RecordFilter) ([]types.CallRecord, error)
}

// SummaryMessage is the periodic snapshot pushed to feed clients.
type SummaryMessage struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Summary   *types.Summary `json:"summary"`
}

// Broadcaster periodically aggregates the full record set and pushes
// the summary to the hub. Skipped when no clients are connected.
type Broadcaster struct {
	hub      *Hub
	source   RecordSource
	interval time.Duration
	logger   zerolog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, source RecordSource, interval time.Duration, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		source:   source,
		interval: interval,
		logger:   logger.With().Str("component", "feed_broadcaster").Logger(),
	}
}

// Start begins broadcasting summary snapshots until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info().Dur("interval", b.interval).Msg("summary feed started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("summary feed stopped")
			return

		case now := <-ticker.C:
			if b.hub.ClientCount() == 0 {
				continue
			}
			b.publish(ctx, now)
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, now time.Time) {
	records, err := b.source.Fetch(ctx, types.RecordFilter{})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch records for feed")
		return
	}

	message := SummaryMessage{
		Type:      "summary",
		Timestamp: now.Format(time.RFC3339),
		Summary:   aggregate.Aggregate(records),
	}

	data, err := json.Marshal(message)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal summary message")
		return
	}

	b.hub.Broadcast(data)
	b.logger.Debug().
		Int("records", len(records)).
		Int("clients", b.hub.ClientCount()).
		Msg("broadcasted summary snapshot")
}
