package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollbox/api/internal/core/domain"
)

// TestVoteFlow covers cast -> counter increment -> duplicate rejection ->
// results with zero-vote options.
func TestVoteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, voterToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Flow Test Poll",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})
	votesPath := fmt.Sprintf("/api/polls/%s/votes", poll.ID)
	voteBody, _ := json.Marshal(map[string]any{"selected_option": "A"})

	resp := app.doJSON(t, "POST", votesPath, voterToken, voteBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var vote domain.Vote
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vote))
	resp.Body.Close()
	assert.Equal(t, "A", vote.SelectedOption)

	var totalVotes int
	require.NoError(t, app.DB.QueryRow("SELECT total_votes FROM polls WHERE id = $1", poll.ID).Scan(&totalVotes))
	assert.Equal(t, 1, totalVotes)

	// A second cast conflicts, whatever the option.
	resp = app.doJSON(t, "POST", votesPath, voterToken, voteBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	otherOption, _ := json.Marshal(map[string]any{"selected_option": "B"})
	resp = app.doJSON(t, "POST", votesPath, voterToken, otherOption)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, app.DB.QueryRow("SELECT total_votes FROM polls WHERE id = $1", poll.ID).Scan(&totalVotes))
	assert.Equal(t, 1, totalVotes)

	// Results carry every option, voted or not.
	resp = app.doJSON(t, "GET", fmt.Sprintf("/api/polls/%s/results", poll.ID), voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results domain.PollResults
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	resp.Body.Close()
	assert.Equal(t, map[string]int{"A": 1, "B": 0}, results.Results)
	assert.Equal(t, map[string]int{"A": 100, "B": 0}, results.Percentages)
	assert.Equal(t, "A", results.UserVote)
}

func TestVoteOnExpiredPoll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, voterToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Closing Poll",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})

	_, err := app.DB.Exec("UPDATE polls SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1", poll.ID)
	require.NoError(t, err)

	voteBody, _ := json.Marshal(map[string]any{"selected_option": "A"})
	resp := app.doJSON(t, "POST", fmt.Sprintf("/api/polls/%s/votes", poll.ID), voterToken, voteBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The rejected cast still flipped the stored status.
	var status string
	require.NoError(t, app.DB.QueryRow("SELECT status FROM polls WHERE id = $1", poll.ID).Scan(&status))
	assert.Equal(t, "expired", status)
}

func TestVoteUnknownOption(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Strict Options",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})

	voteBody, _ := json.Marshal(map[string]any{"selected_option": "C"})
	resp := app.doJSON(t, "POST", fmt.Sprintf("/api/polls/%s/votes", poll.ID), ownerToken, voteBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestVoteDeletion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, voterToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Delete Vote Test",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})
	votesPath := fmt.Sprintf("/api/polls/%s/votes", poll.ID)

	voteBody, _ := json.Marshal(map[string]any{"selected_option": "A"})
	resp := app.doJSON(t, "POST", votesPath, voterToken, voteBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "DELETE", votesPath, voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var totalVotes int
	require.NoError(t, app.DB.QueryRow("SELECT total_votes FROM polls WHERE id = $1", poll.ID).Scan(&totalVotes))
	assert.Zero(t, totalVotes)

	// Deleting again finds nothing.
	resp = app.doJSON(t, "DELETE", votesPath, voterToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Without auth there is no principal at all.
	resp = app.doJSON(t, "DELETE", votesPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestHasVotedAndMyVote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, voterToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Ballot Check",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})
	pollPath := fmt.Sprintf("/api/polls/%s", poll.ID)

	resp := app.doJSON(t, "GET", pollPath+"/has-voted", voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hasVoted map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hasVoted))
	resp.Body.Close()
	assert.False(t, hasVoted["has_voted"])

	resp = app.doJSON(t, "GET", pollPath+"/my-vote", voterToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	voteBody, _ := json.Marshal(map[string]any{"selected_option": "B"})
	resp = app.doJSON(t, "POST", pollPath+"/votes", voterToken, voteBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "GET", pollPath+"/has-voted", voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hasVoted))
	resp.Body.Close()
	assert.True(t, hasVoted["has_voted"])

	resp = app.doJSON(t, "GET", pollPath+"/my-vote", voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var myVote map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&myVote))
	resp.Body.Close()
	assert.Equal(t, "B", myVote["selected_option"])
}

func TestResultsVisibility(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, strangerToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Private Results",
		"options":        []string{"A", "B"},
		"visibility":     "private",
		"duration_hours": 1,
	})
	resultsPath := fmt.Sprintf("/api/polls/%s/results", poll.ID)

	// While the poll runs, outsiders get nothing.
	resp := app.doJSON(t, "GET", resultsPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "GET", resultsPath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// After expiry the outcome is open to everyone.
	_, err := app.DB.Exec("UPDATE polls SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1", poll.ID)
	require.NoError(t, err)

	resp = app.doJSON(t, "GET", resultsPath, strangerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
