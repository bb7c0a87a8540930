package domain

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrVoteNotFound  = errors.New("vote not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrForbidden     = errors.New("not allowed to perform this action")
	ErrPollExpired   = errors.New("poll has expired")
	ErrAlreadyVoted  = errors.New("user has already voted on this poll")
	ErrInvalidOption = errors.New("invalid option for this poll")
	ErrAlreadyListed = errors.New("user is already allowed on this poll")
	ErrNotPrivate    = errors.New("poll is not private")
	ErrEmailTaken    = errors.New("user with this email already exists")
	ErrBadLogin      = errors.New("invalid email or password")
	ErrInvalidInput  = errors.New("invalid input")
)
