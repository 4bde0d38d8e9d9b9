// Package api holds the HTTP handlers for the insights endpoints.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/callsight/insights/internal/chat"
	"github.com/callsight/insights/internal/governor"
	"github.com/callsight/insights/internal/llm"
	"github.com/callsight/insights/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps pipeline errors to the uniform {error, retryable}
// envelope. Messages are written for the end user, not the operator;
// detail stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	status, message, retryable := classifyError(err)
	writeJSON(w, status, types.ErrorResponse{Error: message, Retryable: retryable})
}

func classifyError(err error) (status int, message string, retryable bool) {
	switch {
	case errors.Is(err, chat.ErrEmptyQuery),
		errors.Is(err, chat.ErrNoCriteria),
		errors.Is(err, chat.ErrNoAgents):
		return http.StatusBadRequest, err.Error(), false

	case errors.Is(err, governor.ErrQueueFull),
		errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests,
			"Too many requests right now. Please wait a moment and try again.", true

	case errors.Is(err, llm.ErrContextTooLarge):
		return http.StatusRequestEntityTooLarge,
			"The selected data set is too large to analyse in one pass. Try narrowing the date range or filtering by agent.", false

	case errors.Is(err, llm.ErrAuthentication):
		return http.StatusUnauthorized,
			"The analysis service is misconfigured. Please contact an administrator.", false

	case errors.Is(err, chat.ErrUnableToProcess),
		errors.Is(err, llm.ErrUpstream),
		llm.IsTransient(err):
		return http.StatusServiceUnavailable,
			"The analysis service is temporarily unavailable. Please try again.", true

	default:
		return http.StatusInternalServerError,
			"Something went wrong processing the request.", false
	}
}
