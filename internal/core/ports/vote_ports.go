package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
)

type VoteRepository interface {
	// Create inserts the vote and increments the poll's total_votes in one
	// transaction. Returns domain.ErrAlreadyVoted when the (user, poll)
	// uniqueness constraint is violated.
	Create(ctx context.Context, vote *domain.Vote) error
	// Delete removes the vote and decrements the poll's total_votes (floored
	// at zero) in one transaction. Returns domain.ErrVoteNotFound when the
	// vote no longer exists.
	Delete(ctx context.Context, vote *domain.Vote) error
	// GetByUserAndPoll returns (nil, nil) when the user has not voted.
	GetByUserAndPoll(ctx context.Context, userID, pollID uuid.UUID) (*domain.Vote, error)
	FindByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Vote, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Vote, error)
}

type VoteService interface {
	Cast(ctx context.Context, pollID uuid.UUID, selectedOption string, principal domain.Principal) (*domain.Vote, error)
	Unvote(ctx context.Context, pollID uuid.UUID, principal domain.Principal) error
	Results(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (*domain.PollResults, error)
	HasVoted(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (bool, error)
	MyVote(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (*domain.Vote, error)
	MyVotes(ctx context.Context, principal domain.Principal) ([]*domain.Vote, error)
}
