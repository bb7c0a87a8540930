package domain

// PollResults is the tally of a poll at a point in time. Results holds one
// entry per declared option, including zero-vote options. Percentages are
// rounded independently and may not sum to exactly 100.
type PollResults struct {
	Poll        *Poll          `json:"poll"`
	Results     map[string]int `json:"results"`
	Percentages map[string]int `json:"percentages"`
	UserVote    string         `json:"user_vote,omitempty"`
}

// PollStats summarizes the polls owned by one user.
type PollStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Expired    int `json:"expired"`
	Public     int `json:"public"`
	Private    int `json:"private"`
	TotalVotes int `json:"total_votes"`
}
