package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/middleware"
	"amendvote-be/internal/service"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// VotingHandler serves the vote ledger endpoints.
type VotingHandler struct {
	voting *service.VotingService
	log    *logger.Logger
}

// NewVotingHandler creates a VotingHandler.
func NewVotingHandler(voting *service.VotingService, log *logger.Logger) *VotingHandler {
	return &VotingHandler{voting: voting, log: log}
}

// SubmitVote handles POST /vote.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		respondError(w, h.log, apperrors.NewAuthenticationError("Not authorized, no token"))
		return
	}

	var req domain.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, apperrors.NewInvalidInputError("Invalid request body"))
		return
	}

	resp, err := h.voting.SubmitVote(r.Context(), session.UserID, &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// ListVotes handles GET /vote/{amendmentId} (admin only).
func (h *VotingHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	votes, err := h.voting.ListVotes(r.Context(), amendmentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, votes)
}

// HasVoted handles GET /vote/{amendmentId}/has-voted.
func (h *VotingHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		respondError(w, h.log, apperrors.NewAuthenticationError("Not authorized, no token"))
		return
	}

	amendmentID, err := amendmentIDParam(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	status, err := h.voting.HasVoted(r.Context(), session.UserID, amendmentID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// DeleteVote handles DELETE /vote/{voteId} (admin only).
func (h *VotingHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	voteID := chi.URLParam(r, "id")

	vote, err := h.voting.DeleteVote(r.Context(), voteID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Vote deleted successfully",
		"deletedVote": vote,
	})
}

// amendmentIDParam parses the amendment identifier path parameter, which is
// named "id" on /vote routes and "amendmentId" on the public tally route.
func amendmentIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = chi.URLParam(r, "amendmentId")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidInputError("Invalid amendment ID")
	}
	return id, nil
}
