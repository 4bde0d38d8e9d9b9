package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/callsight/insights/internal/records"
	"github.com/callsight/insights/internal/types"
)

const maxCallsPageSize = 200

// CallsHandler provides the call record browse endpoint.
type CallsHandler struct {
	fetcher *records.Fetcher
	logger  zerolog.Logger
}

// NewCallsHandler creates a new CallsHandler.
func NewCallsHandler(fetcher *records.Fetcher, logger zerolog.Logger) *CallsHandler {
	return &CallsHandler{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "calls_handler").Logger(),
	}
}

// ListCalls returns normalized call records matching the query filters.
// GET /api/calls?agentId=&disposition=&date=YYYY-MM-DD&limit=
func (h *CallsHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	filter := types.RecordFilter{
		AgentID:     r.URL.Query().Get("agentId"),
		Disposition: r.URL.Query().Get("disposition"),
		DateKey:     r.URL.Query().Get("date"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}
	if filter.Limit == 0 || filter.Limit > maxCallsPageSize {
		filter.Limit = maxCallsPageSize
	}

	results, err := h.fetcher.Fetch(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list call records")
		http.Error(w, "failed to retrieve calls", http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []types.CallRecord{}
	}

	writeJSON(w, http.StatusOK, results)
}
