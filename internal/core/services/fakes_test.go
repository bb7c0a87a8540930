package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
)

// In-memory repository fakes honoring the same contracts as the postgres
// adapters, counter maintenance included.

type fakePollRepo struct {
	polls        map[uuid.UUID]*domain.Poll
	saveCalls    int
	markedCalls  int
	deletedPolls []uuid.UUID
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[uuid.UUID]*domain.Poll)}
}

func (f *fakePollRepo) Save(_ context.Context, poll *domain.Poll) error {
	f.saveCalls++
	f.polls[poll.ID] = poll
	return nil
}

func (f *fakePollRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	poll, ok := f.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	copied := *poll
	return &copied, nil
}

func (f *fakePollRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	delete(f.polls, id)
	f.deletedPolls = append(f.deletedPolls, id)
	return nil
}

func (f *fakePollRepo) MarkExpired(_ context.Context, id uuid.UUID) error {
	f.markedCalls++
	if poll, ok := f.polls[id]; ok && poll.Status == domain.PollStatusActive {
		poll.Status = domain.PollStatusExpired
	}
	return nil
}

func (f *fakePollRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	var out []*domain.Poll
	for _, poll := range f.polls {
		if poll.CreatedByID == ownerID {
			copied := *poll
			out = append(out, &copied)
		}
	}
	sortPolls(out)
	return out, nil
}

func (f *fakePollRepo) FindPublic(_ context.Context) ([]*domain.Poll, error) {
	var out []*domain.Poll
	for _, poll := range f.polls {
		if poll.Visibility == domain.PollVisibilityPublic {
			copied := *poll
			out = append(out, &copied)
		}
	}
	sortPolls(out)
	return out, nil
}

func (f *fakePollRepo) FindPrivateVisibleTo(_ context.Context, userID uuid.UUID) ([]*domain.Poll, error) {
	var out []*domain.Poll
	for _, poll := range f.polls {
		if poll.Visibility != domain.PollVisibilityPrivate {
			continue
		}
		if poll.CreatedByID == userID || poll.IsAllowed(userID) {
			copied := *poll
			out = append(out, &copied)
		}
	}
	sortPolls(out)
	return out, nil
}

func sortPolls(polls []*domain.Poll) {
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
}

type fakeVoteRepo struct {
	votes    map[uuid.UUID]map[uuid.UUID]*domain.Vote // pollID -> userID -> vote
	pollRepo *fakePollRepo
}

func newFakeVoteRepo(pollRepo *fakePollRepo) *fakeVoteRepo {
	return &fakeVoteRepo{
		votes:    make(map[uuid.UUID]map[uuid.UUID]*domain.Vote),
		pollRepo: pollRepo,
	}
}

func (f *fakeVoteRepo) Create(_ context.Context, vote *domain.Vote) error {
	byUser, ok := f.votes[vote.PollID]
	if !ok {
		byUser = make(map[uuid.UUID]*domain.Vote)
		f.votes[vote.PollID] = byUser
	}
	if _, dup := byUser[vote.UserID]; dup {
		return domain.ErrAlreadyVoted
	}
	byUser[vote.UserID] = vote
	if poll, ok := f.pollRepo.polls[vote.PollID]; ok {
		poll.TotalVotes++
	}
	return nil
}

func (f *fakeVoteRepo) Delete(_ context.Context, vote *domain.Vote) error {
	byUser := f.votes[vote.PollID]
	if _, ok := byUser[vote.UserID]; !ok {
		return domain.ErrVoteNotFound
	}
	delete(byUser, vote.UserID)
	if poll, ok := f.pollRepo.polls[vote.PollID]; ok && poll.TotalVotes > 0 {
		poll.TotalVotes--
	}
	return nil
}

func (f *fakeVoteRepo) GetByUserAndPoll(_ context.Context, userID, pollID uuid.UUID) (*domain.Vote, error) {
	if vote, ok := f.votes[pollID][userID]; ok {
		copied := *vote
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeVoteRepo) FindByPoll(_ context.Context, pollID uuid.UUID) ([]*domain.Vote, error) {
	var out []*domain.Vote
	for _, vote := range f.votes[pollID] {
		copied := *vote
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeVoteRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]*domain.Vote, error) {
	var out []*domain.Vote
	for _, byUser := range f.votes {
		if vote, ok := byUser[userID]; ok {
			copied := *vote
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User // keyed by email
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.Email] = user
	}
	return repo
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmails(_ context.Context, emails []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, email := range emails {
		if user, ok := f.users[email]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, dup := f.users[user.Email]; dup {
		return domain.ErrEmailTaken
	}
	f.users[user.Email] = user
	return nil
}

type fakeAuthRepo struct {
	tokens map[string]*domain.RefreshToken // keyed by token hash
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (f *fakeAuthRepo) StoreRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	f.tokens[token.TokenHash] = token
	return nil
}

func (f *fakeAuthRepo) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	if token, ok := f.tokens[hash]; ok {
		copied := *token
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id uuid.UUID) error {
	for _, token := range f.tokens {
		if token.ID == id {
			token.Revoked = true
			return nil
		}
	}
	return nil
}
