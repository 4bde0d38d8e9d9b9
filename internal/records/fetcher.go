package records

import (
	"context"
	"fmt"

	"github.com/callsight/insights/internal/storage"
	"github.com/callsight/insights/internal/types"
	"github.com/rs/zerolog"
)

// Fetcher retrieves raw records from the store and normalizes them at
// the boundary.
type Fetcher struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewFetcher creates a new Fetcher
func NewFetcher(store storage.Store, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		store:  store,
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch returns normalized call records matching the filter.
func (f *Fetcher) Fetch(ctx context.Context, filter types.RecordFilter) ([]types.CallRecord, error) {
	raw, err := f.store.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}

	records := make([]types.CallRecord, 0, len(raw))
	unknownDurations := 0
	for _, r := range raw {
		rec := Normalize(r)
		if rec.DurationSec == nil {
			unknownDurations++
		}
		records = append(records, rec)
	}

	if unknownDurations > 0 {
		f.logger.Debug().
			Int("records", len(records)).
			Int("unknown_durations", unknownDurations).
			Msg("some durations could not be decoded")
	}

	return records, nil
}
