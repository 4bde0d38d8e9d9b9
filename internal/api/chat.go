package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/callsight/insights/internal/auth"
	"github.com/callsight/insights/internal/chat"
	"github.com/callsight/insights/internal/governor"
	"github.com/callsight/insights/internal/metrics"
	"github.com/callsight/insights/internal/types"
)

// ChatHandler serves the chat query and QA review endpoints, with the
// governor in front of every LLM-backed request.
type ChatHandler struct {
	service  *chat.Service
	governor *governor.Governor
	identify func(*http.Request) string
	logger   zerolog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *chat.Service, gov *governor.Governor, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:  service,
		governor: gov,
		identify: auth.ClientID,
		logger:   logger.With().Str("component", "chat_handler").Logger(),
	}
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		writeError(w, chat.ErrEmptyQuery)
		return
	}

	if !h.admit(w, r) {
		return
	}

	response, err := h.service.Answer(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("query_type", req.QueryType).Msg("chat query failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleQAReview handles POST /api/qa/review
func (h *ChatHandler) HandleQAReview(w http.ResponseWriter, r *http.Request) {
	var req types.QAReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if !h.admit(w, r) {
		return
	}

	response, err := h.service.Review(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).
			Int("agents", len(req.SelectedAgents)).
			Msg("qa review failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// admit runs the request through the governor. Queued requests block
// until their turn or until the client goes away.
func (h *ChatHandler) admit(w http.ResponseWriter, r *http.Request) bool {
	clientID := h.identify(r)

	ticket, err := h.governor.Check(clientID)
	if err != nil {
		metrics.GovernorDecisionsTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return false
	}

	if ticket.Queued {
		metrics.GovernorDecisionsTotal.WithLabelValues("queued").Inc()
		h.logger.Debug().Str("client_id", clientID).Msg("request deferred")
	} else {
		metrics.GovernorDecisionsTotal.WithLabelValues("admitted").Inc()
	}

	select {
	case <-ticket.Ready():
		return true
	case <-r.Context().Done():
		return false
	}
}
