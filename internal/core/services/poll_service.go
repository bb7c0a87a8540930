package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
	"github.com/pollbox/api/internal/core/ports"
)

const (
	minTitleLen      = 3
	maxOptions       = 10
	maxDurationHours = 2.0
)

type pollService struct {
	pollRepo ports.PollRepository
	userRepo ports.UserRepository
	now      func() time.Time
}

func NewPollService(pollRepo ports.PollRepository, userRepo ports.UserRepository) ports.PollService {
	return &pollService{
		pollRepo: pollRepo,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput, principal domain.Principal) (*domain.Poll, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateOptions(input.Options); err != nil {
		return nil, err
	}
	if err := validateDuration(input.DurationHours); err != nil {
		return nil, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.PollVisibilityPublic
	}
	if visibility != domain.PollVisibilityPublic && visibility != domain.PollVisibilityPrivate {
		return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidInput, input.Visibility)
	}

	now := s.now()
	poll := &domain.Poll{
		ID:          uuid.New(),
		Title:       input.Title,
		Options:     input.Options,
		Visibility:  visibility,
		Status:      domain.PollStatusActive,
		ExpiresAt:   now.Add(hoursToDuration(input.DurationHours)),
		CreatedByID: principal.ID,
	}

	if visibility == domain.PollVisibilityPrivate && len(input.AllowedUserEmails) > 0 {
		ids, err := s.resolveEmails(ctx, input.AllowedUserEmails)
		if err != nil {
			return nil, err
		}
		poll.AllowedUserIDs = ids
	}

	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *pollService) Update(ctx context.Context, id uuid.UUID, input ports.UpdatePollInput, principal domain.Principal) (*domain.Poll, error) {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(poll, principal) {
		return nil, domain.ErrForbidden
	}

	now := s.now()
	if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
		return nil, err
	}
	if poll.Status == domain.PollStatusExpired {
		return nil, domain.ErrPollExpired
	}

	if input.Title != nil {
		if err := validateTitle(*input.Title); err != nil {
			return nil, err
		}
		poll.Title = *input.Title
	}
	if input.Options != nil {
		if err := validateOptions(input.Options); err != nil {
			return nil, err
		}
		poll.Options = input.Options
	}
	if input.Visibility != nil {
		if *input.Visibility != domain.PollVisibilityPublic && *input.Visibility != domain.PollVisibilityPrivate {
			return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidInput, *input.Visibility)
		}
		poll.Visibility = *input.Visibility
	}
	if input.DurationHours != nil {
		if err := validateDuration(*input.DurationHours); err != nil {
			return nil, err
		}
		poll.ExpiresAt = now.Add(hoursToDuration(*input.DurationHours))
	}

	if poll.Visibility == domain.PollVisibilityPublic {
		// Public polls carry no allow-list, even if one was provided.
		poll.AllowedUserIDs = nil
	} else if input.AllowedUserEmails != nil {
		ids, err := s.resolveEmails(ctx, input.AllowedUserEmails)
		if err != nil {
			return nil, err
		}
		poll.AllowedUserIDs = ids
	}

	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *pollService) Remove(ctx context.Context, id uuid.UUID, principal domain.Principal) error {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(poll, principal) {
		return domain.ErrForbidden
	}
	return s.pollRepo.Delete(ctx, poll.ID)
}

func (s *pollService) List(ctx context.Context, input ports.ListPollsInput, principal domain.Principal) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	var err error

	if input.MyPolls {
		polls, err = s.pollRepo.FindByOwner(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
	} else {
		public, err := s.pollRepo.FindPublic(ctx)
		if err != nil {
			return nil, err
		}
		private, err := s.pollRepo.FindPrivateVisibleTo(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		polls = append(public, private...)
	}

	now := s.now()
	for _, poll := range polls {
		if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
			return nil, err
		}
	}

	filtered := polls[:0]
	for _, poll := range polls {
		if input.Status != nil && poll.Status != *input.Status {
			continue
		}
		if input.Visibility != nil && poll.Visibility != *input.Visibility {
			continue
		}
		if input.ActiveOnly && poll.Status != domain.PollStatusActive {
			continue
		}
		if input.ExpiredOnly && poll.Status != domain.PollStatusExpired {
			continue
		}
		filtered = append(filtered, poll)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func (s *pollService) Get(ctx context.Context, id uuid.UUID, principal domain.Principal) (*domain.Poll, error) {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(poll, principal) {
		return nil, domain.ErrForbidden
	}
	if err := reconcileStatus(ctx, s.pollRepo, poll, s.now()); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *pollService) Stats(ctx context.Context, principal domain.Principal) (*domain.PollStats, error) {
	polls, err := s.pollRepo.FindByOwner(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &domain.PollStats{}
	for _, poll := range polls {
		if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
			return nil, err
		}
		stats.Total++
		if poll.Status == domain.PollStatusActive {
			stats.Active++
		} else {
			stats.Expired++
		}
		if poll.Visibility == domain.PollVisibilityPublic {
			stats.Public++
		} else {
			stats.Private++
		}
		stats.TotalVotes += poll.TotalVotes
	}
	return stats, nil
}

// CanVote checks vote eligibility without side effects on the vote set. An
// unknown poll simply reports false rather than an error.
func (s *pollService) CanVote(ctx context.Context, id uuid.UUID, principal domain.Principal) (bool, error) {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return false, nil
		}
		return false, err
	}
	now := s.now()
	if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
		return false, err
	}
	return CanVote(poll, principal, now), nil
}

func (s *pollService) AddAllowedUser(ctx context.Context, id uuid.UUID, email string, principal domain.Principal) (*domain.Poll, error) {
	poll, user, err := s.allowListTarget(ctx, id, email, principal)
	if err != nil {
		return nil, err
	}
	if poll.IsAllowed(user.ID) {
		return nil, domain.ErrAlreadyListed
	}

	poll.AllowedUserIDs = append(poll.AllowedUserIDs, user.ID)
	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *pollService) RemoveAllowedUser(ctx context.Context, id uuid.UUID, email string, principal domain.Principal) (*domain.Poll, error) {
	poll, user, err := s.allowListTarget(ctx, id, email, principal)
	if err != nil {
		return nil, err
	}

	kept := poll.AllowedUserIDs[:0]
	for _, allowedID := range poll.AllowedUserIDs {
		if allowedID != user.ID {
			kept = append(kept, allowedID)
		}
	}
	poll.AllowedUserIDs = kept
	if err := s.pollRepo.Save(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// allowListTarget loads the poll and the user behind an allow-list mutation
// and runs the checks shared by add and remove.
func (s *pollService) allowListTarget(ctx context.Context, id uuid.UUID, email string, principal domain.Principal) (*domain.Poll, *domain.User, error) {
	poll, err := s.pollRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !CanManage(poll, principal) {
		return nil, nil, domain.ErrForbidden
	}
	if poll.Visibility != domain.PollVisibilityPrivate {
		return nil, nil, domain.ErrNotPrivate
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve email: %w", err)
	}
	if user == nil {
		return nil, nil, domain.ErrUserNotFound
	}
	return poll, user, nil
}

// resolveEmails maps emails to user ids. Emails with no matching account are
// dropped silently; the allow-list simply ends up without them.
func (s *pollService) resolveEmails(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	users, err := s.userRepo.GetByEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve allowed user emails: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func validateTitle(title string) error {
	if len(strings.TrimSpace(title)) < minTitleLen {
		return fmt.Errorf("%w: title must be at least %d characters", domain.ErrInvalidInput, minTitleLen)
	}
	return nil
}

func validateOptions(options []string) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: at least one option is required", domain.ErrInvalidInput)
	}
	if len(options) > maxOptions {
		return fmt.Errorf("%w: at most %d options are allowed", domain.ErrInvalidInput, maxOptions)
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: options must not be empty", domain.ErrInvalidInput)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidInput, opt)
		}
		seen[opt] = struct{}{}
	}
	return nil
}

func validateDuration(hours float64) error {
	if hours <= 0 {
		return fmt.Errorf("%w: poll duration must be positive", domain.ErrInvalidInput)
	}
	if hours > maxDurationHours {
		return fmt.Errorf("%w: poll duration cannot exceed %v hours", domain.ErrInvalidInput, maxDurationHours)
	}
	return nil
}
