package repository

import (
	"context"
	"fmt"

	"amendvote-be/internal/domain"
	"amendvote-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

type voteRepository struct {
	db *database.PostgresDB
}

// NewVoteRepository creates a Postgres-backed VoteRepository.
func NewVoteRepository(db *database.PostgresDB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (vote_id, user_id, amendment_id, choice)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	// Unique-violation errors from the compound (user_id, amendment_id)
	// constraint propagate unwrapped so the service can classify them.
	err := r.db.Pool.QueryRow(ctx, query,
		vote.VoteID,
		vote.UserID,
		vote.AmendmentID,
		vote.Choice,
	).Scan(&vote.ID, &vote.CreatedAt)

	return err
}

func (r *voteRepository) GetByUserAndAmendment(ctx context.Context, userID, amendmentID int64) (*domain.Vote, error) {
	var vote domain.Vote
	query := `
		SELECT id, vote_id, user_id, amendment_id, choice, created_at
		FROM votes
		WHERE user_id = $1 AND amendment_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, userID, amendmentID).Scan(
		&vote.ID,
		&vote.VoteID,
		&vote.UserID,
		&vote.AmendmentID,
		&vote.Choice,
		&vote.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return &vote, nil
}

func (r *voteRepository) Delete(ctx context.Context, voteID string) (*domain.Vote, error) {
	var vote domain.Vote
	query := `
		DELETE FROM votes
		WHERE vote_id = $1
		RETURNING id, vote_id, user_id, amendment_id, choice, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, voteID).Scan(
		&vote.ID,
		&vote.VoteID,
		&vote.UserID,
		&vote.AmendmentID,
		&vote.Choice,
		&vote.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}

	return &vote, nil
}

func (r *voteRepository) ListByAmendment(ctx context.Context, amendmentID int64) ([]domain.VoterVote, error) {
	query := `
		SELECT v.vote_id, v.choice, u.name, u.email, v.created_at
		FROM votes v
		JOIN users u ON u.id = v.user_id
		WHERE v.amendment_id = $1
		ORDER BY v.created_at ASC, v.id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, amendmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.VoterVote
	for rows.Next() {
		var v domain.VoterVote
		err := rows.Scan(&v.VoteID, &v.Choice, &v.VoterName, &v.VoterEmail, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}
