package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote records a user's single choice on a poll. At most one vote exists per
// (user, poll) pair, enforced by a unique constraint in the store.
type Vote struct {
	ID             uuid.UUID `json:"id"`
	PollID         uuid.UUID `json:"poll_id"`
	UserID         uuid.UUID `json:"user_id"`
	SelectedOption string    `json:"selected_option"`
	CreatedAt      time.Time `json:"created_at"`
}
