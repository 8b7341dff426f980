package service

import (
	"context"

	"amendvote-be/internal/domain"
)

// SessionStore manages opaque bearer sessions. Tokens are high-entropy random
// strings; the store is the single place they are compared against.
type SessionStore interface {
	// Create issues a new token for the session and stores it with the
	// configured TTL.
	Create(ctx context.Context, session domain.Session) (string, error)

	// Get retrieves the session for a token. Returns nil if the token is
	// unknown or expired.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// Delete revokes a token. Returns false if the token was not present.
	Delete(ctx context.Context, token string) (bool, error)
}

// TallyCache caches public tallies and the amendment listing. All methods are
// best-effort; a cache failure never fails the request.
type TallyCache interface {
	// GetPublicTally returns the cached tally and whether it was present.
	GetPublicTally(ctx context.Context, amendmentID int64) (*domain.PublicTally, bool)

	// SetPublicTally stores a tally with a short TTL.
	SetPublicTally(ctx context.Context, amendmentID int64, tally *domain.PublicTally)

	// Invalidate drops the cached tally for an amendment and the amendment
	// listing.
	Invalidate(ctx context.Context, amendmentID int64)
}
