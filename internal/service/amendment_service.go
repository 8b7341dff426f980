package service

import (
	"context"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/repository"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"
)

// AmendmentService serves the amendment registry: listings, public tallies
// and the admin-gated state transitions.
type AmendmentService struct {
	amendments repository.AmendmentRepository
	cache      TallyCache
	log        *logger.Logger
}

// NewAmendmentService creates an AmendmentService. cache may be nil.
func NewAmendmentService(amendments repository.AmendmentRepository, cache TallyCache, log *logger.Logger) *AmendmentService {
	return &AmendmentService{amendments: amendments, cache: cache, log: log}
}

// List returns all amendments, most recently created first.
func (s *AmendmentService) List(ctx context.Context) ([]domain.Amendment, error) {
	amendments, err := s.amendments.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to fetch amendments", err)
	}
	if amendments == nil {
		amendments = []domain.Amendment{}
	}
	return amendments, nil
}

// GetPublicTally is the one unauthenticated read. It never exposes per-voter
// identity and is served from a short-TTL cache when possible.
func (s *AmendmentService) GetPublicTally(ctx context.Context, amendmentID int64) (*domain.PublicTally, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	if s.cache != nil {
		if tally, ok := s.cache.GetPublicTally(ctx, amendmentID); ok {
			return tally, nil
		}
	}

	amendment, err := s.amendments.GetByID(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to get vote counts", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}

	tally := &domain.PublicTally{
		AmendmentTitle: amendment.Title,
		IsVotingOpen:   amendment.IsVotingOpen,
		YesVotes:       amendment.YesVotes,
		NoVotes:        amendment.NoVotes,
		ShowResults:    amendment.ShowResults,
	}

	if s.cache != nil {
		s.cache.SetPublicTally(ctx, amendmentID, tally)
	}

	return tally, nil
}

// SetVotingOpen sets the voting-open flag unconditionally. Repeated calls
// with the same value are no-ops in effect, but each is logged as a distinct
// admin action.
func (s *AmendmentService) SetVotingOpen(ctx context.Context, amendmentID int64, open bool) (*domain.Amendment, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	amendment, err := s.amendments.SetVotingOpen(ctx, amendmentID, open)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to update voting status", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}

	s.invalidate(ctx, amendmentID)

	s.log.WithFields(map[string]interface{}{
		"amendment_id":   amendmentID,
		"is_voting_open": open,
	}).Info("voting status toggled")

	return amendment, nil
}

// SetResultsVisible sets the results-visible flag, independent of the
// voting-open flag.
func (s *AmendmentService) SetResultsVisible(ctx context.Context, amendmentID int64, visible bool) (*domain.Amendment, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	amendment, err := s.amendments.SetShowResults(ctx, amendmentID, visible)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to update results visibility", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}

	s.invalidate(ctx, amendmentID)

	s.log.WithFields(map[string]interface{}{
		"amendment_id": amendmentID,
		"show_results": visible,
	}).Info("results visibility toggled")

	return amendment, nil
}

// Reconcile recomputes the denormalized counters from the vote ledger. This
// is the repair path for drift left by a crash between a vote insert and its
// tally increment.
func (s *AmendmentService) Reconcile(ctx context.Context, amendmentID int64) (*domain.Amendment, error) {
	if amendmentID <= 0 {
		return nil, apperrors.NewInvalidInputError("Invalid amendment ID")
	}

	amendment, err := s.amendments.RecountTallies(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to reconcile tallies", err)
	}
	if amendment == nil {
		return nil, apperrors.NewNotFoundError("Amendment not found")
	}

	s.invalidate(ctx, amendmentID)

	s.log.WithFields(map[string]interface{}{
		"amendment_id": amendmentID,
		"yes_votes":    amendment.YesVotes,
		"no_votes":     amendment.NoVotes,
	}).Info("tallies reconciled")

	return amendment, nil
}

func (s *AmendmentService) invalidate(ctx context.Context, amendmentID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, amendmentID)
	}
}
