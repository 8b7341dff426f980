package repository

import (
	"context"

	"amendvote-be/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// GetByID retrieves a user by ID. Returns nil if absent.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email. Returns nil if absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create creates a new user, filling ID and CreatedAt. A duplicate email
	// surfaces as a unique-violation error from the store.
	Create(ctx context.Context, user *domain.User) error
}

// AmendmentRepository defines the interface for amendment data operations.
type AmendmentRepository interface {
	// GetByID retrieves an amendment by ID. Returns nil if absent.
	GetByID(ctx context.Context, id int64) (*domain.Amendment, error)

	// List returns all amendments, most recently created first.
	List(ctx context.Context) ([]domain.Amendment, error)

	// SetVotingOpen sets the voting-open flag unconditionally. Returns the
	// updated amendment, or nil if absent.
	SetVotingOpen(ctx context.Context, id int64, open bool) (*domain.Amendment, error)

	// SetShowResults sets the results-visible flag unconditionally. Returns
	// the updated amendment, or nil if absent.
	SetShowResults(ctx context.Context, id int64, visible bool) (*domain.Amendment, error)

	// IncrementTally adjusts the yes or no counter by delta as a single
	// atomic field update. Decrements clamp at zero.
	IncrementTally(ctx context.Context, id int64, choice domain.Choice, delta int) error

	// RecountTallies recomputes both counters from the vote ledger by full
	// scan and stores the result. Returns the repaired amendment, or nil if
	// absent.
	RecountTallies(ctx context.Context, id int64) (*domain.Amendment, error)
}

// VoteRepository defines the interface for vote ledger operations.
type VoteRepository interface {
	// Create inserts a new vote, filling ID and CreatedAt. The compound
	// unique constraint on (user_id, amendment_id) surfaces duplicates as a
	// unique-violation error.
	Create(ctx context.Context, vote *domain.Vote) error

	// GetByUserAndAmendment retrieves the vote for a (user, amendment) pair.
	// Returns nil if absent.
	GetByUserAndAmendment(ctx context.Context, userID, amendmentID int64) (*domain.Vote, error)

	// Delete removes a vote by its public identifier and returns the deleted
	// row, or nil if absent.
	Delete(ctx context.Context, voteID string) (*domain.Vote, error)

	// ListByAmendment returns all votes on an amendment annotated with voter
	// name and email, oldest first.
	ListByAmendment(ctx context.Context, amendmentID int64) ([]domain.VoterVote, error)
}

// Repositories aggregates all repository interfaces.
type Repositories struct {
	User      UserRepository
	Amendment AmendmentRepository
	Vote      VoteRepository
}
