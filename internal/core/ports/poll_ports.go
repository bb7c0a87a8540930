package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
)

type PollRepository interface {
	// Save inserts or updates the poll and replaces its allow-list.
	Save(ctx context.Context, poll *domain.Poll) error
	// GetByID returns the poll with its allow-list, or domain.ErrPollNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// Delete removes the poll, its allow-list and all of its votes.
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkExpired sets status to expired if it is still active. Idempotent.
	MarkExpired(ctx context.Context, id uuid.UUID) error
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error)
	FindPublic(ctx context.Context) ([]*domain.Poll, error)
	// FindPrivateVisibleTo returns private polls the user owns or is allowed on.
	FindPrivateVisibleTo(ctx context.Context, userID uuid.UUID) ([]*domain.Poll, error)
}

type CreatePollInput struct {
	Title             string
	Options           []string
	Visibility        domain.PollVisibility
	DurationHours     float64
	AllowedUserEmails []string
}

type UpdatePollInput struct {
	Title             *string
	Options           []string
	Visibility        *domain.PollVisibility
	DurationHours     *float64
	AllowedUserEmails []string
}

type ListPollsInput struct {
	Status      *domain.PollStatus
	Visibility  *domain.PollVisibility
	ActiveOnly  bool
	ExpiredOnly bool
	MyPolls     bool
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput, principal domain.Principal) (*domain.Poll, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePollInput, principal domain.Principal) (*domain.Poll, error)
	Remove(ctx context.Context, id uuid.UUID, principal domain.Principal) error
	List(ctx context.Context, input ListPollsInput, principal domain.Principal) ([]*domain.Poll, error)
	Get(ctx context.Context, id uuid.UUID, principal domain.Principal) (*domain.Poll, error)
	Stats(ctx context.Context, principal domain.Principal) (*domain.PollStats, error)
	CanVote(ctx context.Context, id uuid.UUID, principal domain.Principal) (bool, error)
	AddAllowedUser(ctx context.Context, id uuid.UUID, email string, principal domain.Principal) (*domain.Poll, error)
	RemoveAllowedUser(ctx context.Context, id uuid.UUID, email string, principal domain.Principal) (*domain.Poll, error)
}
