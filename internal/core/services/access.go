package services

import (
	"time"

	"github.com/pollbox/api/internal/core/domain"
)

// Authorization predicates for polls. All are pure over (poll, principal) so
// they can be tested without a store or transport.
//
// Note the deliberate asymmetry: admins can view any private poll but may
// only vote on private polls they own or are allow-listed on. Visibility
// membership governs voting eligibility strictly.

// CanView reports whether the principal may see the poll at all.
func CanView(poll *domain.Poll, principal domain.Principal) bool {
	if poll.Visibility == domain.PollVisibilityPublic {
		return true
	}
	return poll.IsAllowed(principal.ID) ||
		poll.CreatedByID == principal.ID ||
		principal.IsAdmin()
}

// CanVote reports whether the principal may cast a vote right now. Expired
// polls accept no votes from anyone, and there is no admin bypass.
func CanVote(poll *domain.Poll, principal domain.Principal, now time.Time) bool {
	if IsExpired(poll, now) {
		return false
	}
	if poll.Visibility == domain.PollVisibilityPublic {
		return true
	}
	return poll.IsAllowed(principal.ID) || poll.CreatedByID == principal.ID
}

// CanViewResults reports whether the principal may see the tally. Results of
// expired polls are open to everyone.
func CanViewResults(poll *domain.Poll, principal domain.Principal, now time.Time) bool {
	if poll.CreatedByID == principal.ID || principal.IsAdmin() {
		return true
	}
	if IsExpired(poll, now) {
		return true
	}
	if poll.Visibility == domain.PollVisibilityPublic {
		return true
	}
	return poll.IsAllowed(principal.ID)
}

// CanManage reports whether the principal may mutate the poll: edit it,
// delete it, or change its allow-list.
func CanManage(poll *domain.Poll, principal domain.Principal) bool {
	return poll.CreatedByID == principal.ID || principal.IsAdmin()
}
