package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
	"github.com/pollbox/api/internal/core/ports"
)

type voteService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
	now      func() time.Time
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository) ports.VoteService {
	return &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		now:      time.Now,
	}
}

// Cast records a single vote. The expired transition is persisted even when
// the vote itself is rejected; the status write is not rolled back with the
// failed vote. The repository's uniqueness constraint remains the
// authoritative duplicate guard under concurrent casts.
func (s *voteService) Cast(ctx context.Context, pollID uuid.UUID, selectedOption string, principal domain.Principal) (*domain.Vote, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
		return nil, err
	}
	if poll.Status == domain.PollStatusExpired {
		return nil, domain.ErrPollExpired
	}

	if !CanVote(poll, principal, now) {
		return nil, domain.ErrForbidden
	}

	existing, err := s.voteRepo.GetByUserAndPoll(ctx, principal.ID, pollID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyVoted
	}

	if !poll.HasOption(selectedOption) {
		return nil, domain.ErrInvalidOption
	}

	vote := &domain.Vote{
		ID:             uuid.New(),
		PollID:         pollID,
		UserID:         principal.ID,
		SelectedOption: selectedOption,
		CreatedAt:      now,
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		return nil, err
	}
	return vote, nil
}

// Unvote withdraws the caller's own vote while the poll is still open.
func (s *voteService) Unvote(ctx context.Context, pollID uuid.UUID, principal domain.Principal) error {
	vote, err := s.voteRepo.GetByUserAndPoll(ctx, principal.ID, pollID)
	if err != nil {
		return err
	}
	if vote == nil {
		return domain.ErrVoteNotFound
	}

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return err
	}
	if err := reconcileStatus(ctx, s.pollRepo, poll, s.now()); err != nil {
		return err
	}
	if poll.Status == domain.PollStatusExpired {
		return domain.ErrPollExpired
	}

	return s.voteRepo.Delete(ctx, vote)
}

func (s *voteService) Results(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (*domain.PollResults, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !CanViewResults(poll, principal, now) {
		return nil, domain.ErrForbidden
	}
	if err := reconcileStatus(ctx, s.pollRepo, poll, now); err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.FindByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	results := ComputeResults(poll.Options, votes)
	out := &domain.PollResults{
		Poll:        poll,
		Results:     results,
		Percentages: ComputePercentages(results, poll.TotalVotes),
	}
	for _, vote := range votes {
		if vote.UserID == principal.ID {
			out.UserVote = vote.SelectedOption
			break
		}
	}
	return out, nil
}

func (s *voteService) HasVoted(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (bool, error) {
	vote, err := s.voteRepo.GetByUserAndPoll(ctx, principal.ID, pollID)
	if err != nil {
		return false, err
	}
	return vote != nil, nil
}

func (s *voteService) MyVote(ctx context.Context, pollID uuid.UUID, principal domain.Principal) (*domain.Vote, error) {
	vote, err := s.voteRepo.GetByUserAndPoll(ctx, principal.ID, pollID)
	if err != nil {
		return nil, err
	}
	if vote == nil {
		return nil, domain.ErrVoteNotFound
	}
	return vote, nil
}

func (s *voteService) MyVotes(ctx context.Context, principal domain.Principal) ([]*domain.Vote, error) {
	return s.voteRepo.FindByUser(ctx, principal.ID)
}
