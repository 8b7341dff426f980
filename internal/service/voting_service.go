package service

import (
	"context"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/repository"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VotingService enforces the vote ledger invariants: at most one vote per
// (user, amendment) pair, votes only while the window is open, and tallies
// that move by exactly one per accepted or deleted vote.
type VotingService struct {
	votes      repository.VoteRepository
	amendments repository.AmendmentRepository
	cache      TallyCache
	log        *logger.Logger
}

// NewVotingService creates a VotingService. cache may be nil.
func NewVotingService(votes repository.VoteRepository, amendments repository.AmendmentRepository, cache TallyCache, log *logger.Logger) *VotingService {
	return &VotingService{
		votes:      votes,
		amendments: amendments,
		cache:      cache,
		log:        log,
	}
}

// SubmitVote records one vote. The insert happens before the tally increment,
// so a racer rejected by the unique constraint never touches the counters.
func (s *VotingService) SubmitVote(ctx context.Context, userID int64, req *domain.VoteRequest) (*domain.VoteResponse, error) {
	if req.AmendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	choice := domain.Choice(req.Choice)
	if !choice.Valid() {
		return nil, apperrors.NewInvalidInputError("Choice must be YES or NO")
	}

	amendment, err := s.amendments.GetByID(ctx, req.AmendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to submit vote", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}
	if !amendment.IsVotingOpen {
		return nil, apperrors.NewVotingClosedError("Voting is closed for this amendment")
	}

	existing, err := s.votes.GetByUserAndAmendment(ctx, userID, req.AmendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to check existing vote", err)
	}
	if existing != nil {
		return nil, apperrors.NewAlreadyVotedError(
			"You have already voted on this specific amendment", existing.VoteID)
	}

	vote := &domain.Vote{
		VoteID:      uuid.NewString(),
		UserID:      userID,
		AmendmentID: req.AmendmentID,
		Choice:      choice,
	}

	if err := s.votes.Create(ctx, vote); err != nil {
		// Two concurrent submissions can both pass the existence check. The
		// compound unique constraint rejects the loser here, which is the
		// authoritative AlreadyVoted signal; no increment happens on this
		// branch.
		if pgErr, ok := unwrapPgError(err); ok && pgErr.Code == uniqueViolationCode {
			prior, lookupErr := s.votes.GetByUserAndAmendment(ctx, userID, req.AmendmentID)
			existingID := ""
			if lookupErr == nil && prior != nil {
				existingID = prior.VoteID
			}
			return nil, apperrors.NewAlreadyVotedError(
				"You have already voted on this specific amendment", existingID)
		}
		return nil, apperrors.NewStorageError("Failed to save vote", err)
	}

	if err := s.amendments.IncrementTally(ctx, req.AmendmentID, choice, 1); err != nil {
		// The vote row is durable but the counter was not bumped. Drift is
		// repairable via reconcile; surface the failure rather than retry.
		s.log.WithError(err).Warn("vote recorded but tally increment failed",
			zap.String("vote_id", vote.VoteID),
			zap.Int64("amendment_id", req.AmendmentID))
		return nil, apperrors.NewStorageError("Failed to update tally", err)
	}

	s.invalidate(ctx, req.AmendmentID)

	s.log.WithFields(map[string]interface{}{
		"vote_id":      vote.VoteID,
		"amendment_id": req.AmendmentID,
	}).Info("vote recorded")

	return &domain.VoteResponse{
		Message:     "Vote recorded successfully",
		VoteID:      vote.VoteID,
		AmendmentID: req.AmendmentID,
	}, nil
}

// DeleteVote removes a vote and applies the compensating tally decrement.
// Admin-only; the caller is gated by middleware.
func (s *VotingService) DeleteVote(ctx context.Context, voteID string) (*domain.Vote, error) {
	if voteID == "" {
		return nil, apperrors.NewInvalidInputError("Invalid vote ID")
	}

	vote, err := s.votes.Delete(ctx, voteID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to delete vote", err)
	}
	if vote == nil {
		return nil, apperrors.NewNotFoundError("Vote not found")
	}

	if err := s.amendments.IncrementTally(ctx, vote.AmendmentID, vote.Choice, -1); err != nil {
		s.log.WithError(err).Warn("vote deleted but tally decrement failed",
			zap.String("vote_id", voteID),
			zap.Int64("amendment_id", vote.AmendmentID))
		return nil, apperrors.NewStorageError("Failed to update tally", err)
	}

	s.invalidate(ctx, vote.AmendmentID)

	s.log.WithFields(map[string]interface{}{
		"vote_id":      voteID,
		"amendment_id": vote.AmendmentID,
	}).Info("vote deleted")

	return vote, nil
}

// HasVoted reports whether the user has a vote on the amendment, and its
// detail if so. Pure read off the ledger.
func (s *VotingService) HasVoted(ctx context.Context, userID, amendmentID int64) (*domain.VoteStatus, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	vote, err := s.votes.GetByUserAndAmendment(ctx, userID, amendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to check vote status", err)
	}

	if vote == nil {
		return &domain.VoteStatus{HasVoted: false}, nil
	}

	return &domain.VoteStatus{
		HasVoted: true,
		Vote: &domain.VoteInfo{
			Choice:  vote.Choice,
			VoteID:  vote.VoteID,
			VotedAt: vote.CreatedAt,
		},
	}, nil
}

// ListVotes returns the admin-only per-voter breakdown for an amendment.
func (s *VotingService) ListVotes(ctx context.Context, amendmentID int64) (*domain.AmendmentVotes, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	amendment, err := s.amendments.GetByID(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to get votes", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}

	votes, err := s.votes.ListByAmendment(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to get votes", err)
	}
	if votes == nil {
		votes = []domain.VoterVote{}
	}

	return &domain.AmendmentVotes{
		AmendmentTitle: amendment.Title,
		IsVotingOpen:   amendment.IsVotingOpen,
		YesVotes:       amendment.YesVotes,
		NoVotes:        amendment.NoVotes,
		Votes:          votes,
	}, nil
}

func (s *VotingService) invalidate(ctx context.Context, amendmentID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, amendmentID)
	}
}
