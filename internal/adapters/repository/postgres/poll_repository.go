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

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, title, options, visibility, status, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			options = EXCLUDED.options,
			visibility = EXCLUDED.visibility,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING total_votes, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, queryPoll,
		poll.ID, poll.Title, pq.Array(poll.Options), poll.Visibility, poll.Status,
		poll.ExpiresAt, poll.CreatedByID,
	).Scan(&poll.TotalVotes, &poll.CreatedAt, &poll.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert poll: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM poll_allowed_users WHERE poll_id = $1`, poll.ID)
	if err != nil {
		return fmt.Errorf("failed to clear allow-list: %w", err)
	}

	if len(poll.AllowedUserIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO poll_allowed_users (poll_id, user_id) VALUES ($1, $2)`)
		if err != nil {
			return fmt.Errorf("failed to prepare allow-list statement: %w", err)
		}
		defer stmt.Close()

		for _, userID := range poll.AllowedUserIDs {
			if _, err := stmt.ExecContext(ctx, poll.ID, userID); err != nil {
				return fmt.Errorf("failed to insert allow-list entry: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `
		SELECT id, title, options, visibility, status, expires_at, created_by, total_votes, created_at, updated_at
		FROM polls
		WHERE id = $1
	`

	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&poll.ID, &poll.Title, pq.Array(&poll.Options), &poll.Visibility, &poll.Status,
		&poll.ExpiresAt, &poll.CreatedByID, &poll.TotalVotes, &poll.CreatedAt, &poll.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	allowed, err := r.fetchAllowedUserIDs(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	poll.AllowedUserIDs = allowed

	return &poll, nil
}

func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascade is orchestrated here so a concurrent read never sees a poll
	// without its votes.
	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE poll_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_allowed_users WHERE poll_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete allow-list: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPollNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *pollRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE polls
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	_, err := r.db.ExecContext(ctx, query, domain.PollStatusExpired, id, domain.PollStatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark poll expired: %w", err)
	}
	return nil
}

func (r *pollRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	query := `
		SELECT id, title, options, visibility, status, expires_at, created_by, total_votes, created_at, updated_at
		FROM polls
		WHERE created_by = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find polls by owner: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) FindPublic(ctx context.Context) ([]*domain.Poll, error) {
	query := `
		SELECT id, title, options, visibility, status, expires_at, created_by, total_votes, created_at, updated_at
		FROM polls
		WHERE visibility = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, domain.PollVisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to find public polls: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) FindPrivateVisibleTo(ctx context.Context, userID uuid.UUID) ([]*domain.Poll, error) {
	query := `
		SELECT DISTINCT p.id, p.title, p.options, p.visibility, p.status, p.expires_at, p.created_by, p.total_votes, p.created_at, p.updated_at
		FROM polls p
		LEFT JOIN poll_allowed_users au ON au.poll_id = p.id
		WHERE p.visibility = $1 AND (p.created_by = $2 OR au.user_id = $2)
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, domain.PollVisibilityPrivate, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find private polls: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) scanPolls(ctx context.Context, rows *sql.Rows) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	for rows.Next() {
		var poll domain.Poll
		err := rows.Scan(
			&poll.ID, &poll.Title, pq.Array(&poll.Options), &poll.Visibility, &poll.Status,
			&poll.ExpiresAt, &poll.CreatedByID, &poll.TotalVotes, &poll.CreatedAt, &poll.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}

		allowed, err := r.fetchAllowedUserIDs(ctx, poll.ID)
		if err != nil {
			return nil, err
		}
		poll.AllowedUserIDs = allowed

		polls = append(polls, &poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

func (r *pollRepository) fetchAllowedUserIDs(ctx context.Context, pollID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM poll_allowed_users WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allow-list: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan allow-list entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allow-list: %w", err)
	}
	return ids, nil
}
