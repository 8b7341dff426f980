package repository

import (
	"context"
	"fmt"

	"amendvote-be/internal/domain"
	"amendvote-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

const amendmentColumns = `id, title, description, is_voting_open, show_results, yes_votes, no_votes, created_at`

type amendmentRepository struct {
	db *database.PostgresDB
}

// NewAmendmentRepository creates a Postgres-backed AmendmentRepository.
func NewAmendmentRepository(db *database.PostgresDB) AmendmentRepository {
	return &amendmentRepository{db: db}
}

func scanAmendment(row pgx.Row) (*domain.Amendment, error) {
	var a domain.Amendment
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.IsVotingOpen,
		&a.ShowResults,
		&a.YesVotes,
		&a.NoVotes,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *amendmentRepository) GetByID(ctx context.Context, id int64) (*domain.Amendment, error) {
	query := fmt.Sprintf(`SELECT %s FROM amendments WHERE id = $1`, amendmentColumns)

	a, err := scanAmendment(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get amendment: %w", err)
	}

	return a, nil
}

func (r *amendmentRepository) List(ctx context.Context) ([]domain.Amendment, error) {
	query := fmt.Sprintf(`SELECT %s FROM amendments ORDER BY created_at DESC, id DESC`, amendmentColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list amendments: %w", err)
	}
	defer rows.Close()

	var amendments []domain.Amendment
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan amendment: %w", err)
		}
		amendments = append(amendments, *a)
	}

	return amendments, rows.Err()
}

func (r *amendmentRepository) SetVotingOpen(ctx context.Context, id int64, open bool) (*domain.Amendment, error) {
	query := fmt.Sprintf(`
		UPDATE amendments SET is_voting_open = $2
		WHERE id = $1
		RETURNING %s
	`, amendmentColumns)

	a, err := scanAmendment(r.db.Pool.QueryRow(ctx, query, id, open))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set voting open: %w", err)
	}

	return a, nil
}

func (r *amendmentRepository) SetShowResults(ctx context.Context, id int64, visible bool) (*domain.Amendment, error) {
	query := fmt.Sprintf(`
		UPDATE amendments SET show_results = $2
		WHERE id = $1
		RETURNING %s
	`, amendmentColumns)

	a, err := scanAmendment(r.db.Pool.QueryRow(ctx, query, id, visible))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set show results: %w", err)
	}

	return a, nil
}

// IncrementTally is the only write path for the denormalized counters. It is
// a single-statement atomic field update; callers never read-modify-write.
func (r *amendmentRepository) IncrementTally(ctx context.Context, id int64, choice domain.Choice, delta int) error {
	column := "no_votes"
	if choice == domain.ChoiceYes {
		column = "yes_votes"
	}

	query := fmt.Sprintf(`
		UPDATE amendments
		SET %s = GREATEST(%s + $2, 0)
		WHERE id = $1
	`, column, column)

	tag, err := r.db.Pool.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to update tally: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("amendment %d not found for tally update", id)
	}

	return nil
}

// RecountTallies repairs counter drift by recomputing from the vote ledger.
func (r *amendmentRepository) RecountTallies(ctx context.Context, id int64) (*domain.Amendment, error) {
	query := fmt.Sprintf(`
		UPDATE amendments SET
			yes_votes = (SELECT COUNT(*) FROM votes WHERE amendment_id = $1 AND choice = 'YES'),
			no_votes  = (SELECT COUNT(*) FROM votes WHERE amendment_id = $1 AND choice = 'NO')
		WHERE id = $1
		RETURNING %s
	`, amendmentColumns)

	a, err := scanAmendment(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recount tallies: %w", err)
	}

	return a, nil
}
