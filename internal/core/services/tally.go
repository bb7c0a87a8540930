package services

import (
	"math"

	"github.com/pollbox/api/internal/core/domain"
)

// ComputeResults counts votes per option. Every declared option appears in
// the result, zero-vote options included. Votes referencing an option that is
// no longer declared are ignored rather than treated as an error.
func ComputeResults(options []string, votes []*domain.Vote) map[string]int {
	results := make(map[string]int, len(options))
	for _, opt := range options {
		results[opt] = 0
	}
	for _, vote := range votes {
		if _, ok := results[vote.SelectedOption]; ok {
			results[vote.SelectedOption]++
		}
	}
	return results
}

// ComputePercentages derives integer percentages from a tally. Values are
// rounded independently and need not sum to 100. A zero total yields zero for
// every option.
func ComputePercentages(results map[string]int, totalVotes int) map[string]int {
	percentages := make(map[string]int, len(results))
	for opt, count := range results {
		if totalVotes == 0 {
			percentages[opt] = 0
			continue
		}
		percentages[opt] = int(math.Round(float64(count) / float64(totalVotes) * 100))
	}
	return percentages
}
