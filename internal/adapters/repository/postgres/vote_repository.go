package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pollbox/api/internal/core/domain"
	"github.com/pollbox/api/internal/core/ports"
)

// uniqueViolation is the postgres error code for a violated unique constraint.
const uniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// Create inserts the vote and bumps the poll counter in one transaction. The
// unique (poll_id, user_id) index makes the insert the authoritative
// duplicate guard: a concurrent double-cast fails here and no counter
// increment survives it.
func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO votes (id, poll_id, user_id, selected_option)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, query, vote.ID, vote.PollID, vote.UserID, vote.SelectedOption).Scan(&vote.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE polls SET total_votes = total_votes + 1, updated_at = NOW() WHERE id = $1
	`, vote.PollID)
	if err != nil {
		return fmt.Errorf("failed to increment vote counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes the vote and decrements the poll counter, floored at zero,
// in one transaction.
func (r *voteRepository) Delete(ctx context.Context, vote *domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, vote.ID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrVoteNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE polls SET total_votes = GREATEST(total_votes - 1, 0), updated_at = NOW() WHERE id = $1
	`, vote.PollID)
	if err != nil {
		return fmt.Errorf("failed to decrement vote counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *voteRepository) GetByUserAndPoll(ctx context.Context, userID, pollID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT id, poll_id, user_id, selected_option, created_at
		FROM votes
		WHERE user_id = $1 AND poll_id = $2
	`
	var vote domain.Vote
	err := r.db.QueryRowContext(ctx, query, userID, pollID).Scan(
		&vote.ID, &vote.PollID, &vote.UserID, &vote.SelectedOption, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

func (r *voteRepository) FindByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Vote, error) {
	query := `
		SELECT id, poll_id, user_id, selected_option, created_at
		FROM votes
		WHERE poll_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to find votes by poll: %w", err)
	}
	defer rows.Close()

	return scanVotes(rows)
}

func (r *voteRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Vote, error) {
	query := `
		SELECT id, poll_id, user_id, selected_option, created_at
		FROM votes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find votes by user: %w", err)
	}
	defer rows.Close()

	return scanVotes(rows)
}

func scanVotes(rows *sql.Rows) ([]*domain.Vote, error) {
	var votes []*domain.Vote
	for rows.Next() {
		var vote domain.Vote
		err := rows.Scan(&vote.ID, &vote.PollID, &vote.UserID, &vote.SelectedOption, &vote.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, &vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return votes, nil
}
