package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/service"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"
)

// AmendmentHandler serves the amendment registry endpoints.
type AmendmentHandler struct {
	amendments *service.AmendmentService
	log        *logger.Logger
}

// NewAmendmentHandler creates an AmendmentHandler.
func NewAmendmentHandler(amendments *service.AmendmentService, log *logger.Logger) *AmendmentHandler {
	return &AmendmentHandler{amendments: amendments, log: log}
}

// List handles GET /amendments.
func (h *AmendmentHandler) List(w http.ResponseWriter, r *http.Request) {
	amendments, err := h.amendments.List(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, amendments)
}

// PublicTally handles GET /vote/public/{amendmentId}. No auth.
func (h *AmendmentHandler) PublicTally(w http.ResponseWriter, r *http.Request) {
	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	tally, err := h.amendments.GetPublicTally(r.Context(), amendmentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, tally)
}

// ToggleVoting handles PUT /vote/{amendmentId}/toggle-voting (admin only).
func (h *AmendmentHandler) ToggleVoting(w http.ResponseWriter, r *http.Request) {
	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.ToggleVotingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	amendment, err := h.amendments.SetVotingOpen(r.Context(), amendmentID, req.IsVotingOpen)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	verb := "closed"
	if amendment.IsVotingOpen {
		verb = "opened"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   fmt.Sprintf("Voting %s successfully", verb),
		"amendment": amendment,
	})
}

// ToggleResults handles PUT /vote/{amendmentId}/toggle-results (admin only).
func (h *AmendmentHandler) ToggleResults(w http.ResponseWriter, r *http.Request) {
	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.ToggleResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	amendment, err := h.amendments.SetResultsVisible(r.Context(), amendmentID, req.ShowResults)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	verb := "disabled"
	if amendment.ShowResults {
		verb = "enabled"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   fmt.Sprintf("Results visibility %s", verb),
		"amendment": amendment,
	})
}

// Reconcile handles POST /vote/{amendmentId}/reconcile (admin only). It
// recomputes the denormalized counters from the vote ledger.
func (h *AmendmentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	amendment, err := h.amendments.Reconcile(r.Context(), amendmentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Tallies reconciled successfully",
		"amendment": amendment,
	})
}
