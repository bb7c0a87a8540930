package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
)

type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByID returns (nil, nil) when no user matches.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmails resolves emails to users; unknown emails are simply absent
	// from the result.
	GetByEmails(ctx context.Context, emails []string) ([]*domain.User, error)
	// Create returns domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *domain.User) error
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
