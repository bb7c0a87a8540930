package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pollbox/api/internal/core/domain"
	"github.com/pollbox/api/internal/core/ports"
)

// IsExpired reports whether the poll's deadline has passed at the given
// instant. The stored status is not consulted; this is the wall-clock truth.
func IsExpired(poll *domain.Poll, now time.Time) bool {
	return now.After(poll.ExpiresAt)
}

// reconcileStatus persists the active -> expired transition the first time an
// expired poll is observed. There is no background timer; every read path
// that exposes poll status or gates voting goes through here. The transition
// is one-way and repeated calls are no-ops.
func reconcileStatus(ctx context.Context, repo ports.PollRepository, poll *domain.Poll, now time.Time) error {
	if !IsExpired(poll, now) {
		return nil
	}
	if poll.Status != domain.PollStatusExpired {
		if err := repo.MarkExpired(ctx, poll.ID); err != nil {
			return fmt.Errorf("failed to mark poll %s expired: %w", poll.ID, err)
		}
		poll.Status = domain.PollStatusExpired
	}
	return nil
}
