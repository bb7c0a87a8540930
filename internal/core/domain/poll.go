package domain

import (
	"time"

	"github.com/google/uuid"
)

type PollVisibility string

const (
	PollVisibilityPublic  PollVisibility = "public"
	PollVisibilityPrivate PollVisibility = "private"
)

type PollStatus string

const (
	PollStatusActive  PollStatus = "active"
	PollStatusExpired PollStatus = "expired"
)

// Poll is a time-boxed single-choice poll. Status is a cached projection of
// ExpiresAt and only ever moves active -> expired. TotalVotes is maintained
// transactionally with vote writes and always matches the vote set.
type Poll struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Options        []string       `json:"options"`
	Visibility     PollVisibility `json:"visibility"`
	Status         PollStatus     `json:"status"`
	ExpiresAt      time.Time      `json:"expires_at"`
	CreatedByID    uuid.UUID      `json:"created_by"`
	AllowedUserIDs []uuid.UUID    `json:"allowed_user_ids,omitempty"`
	TotalVotes     int            `json:"total_votes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HasOption reports whether text is one of the poll's declared options.
func (p *Poll) HasOption(text string) bool {
	for _, opt := range p.Options {
		if opt == text {
			return true
		}
	}
	return false
}

// IsAllowed reports whether the user is on the poll's allow-list.
func (p *Poll) IsAllowed(userID uuid.UUID) bool {
	for _, id := range p.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
