package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollbox/api/internal/core/domain"
)

func createPoll(t *testing.T, app *TestApp, token string, payload map[string]any) *domain.Poll {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp := app.doJSON(t, "POST", "/api/polls", token, body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var poll domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&poll))
	return &poll
}

// TestPollLifecycle covers create -> get -> update -> expiry -> rejected edit.
func TestPollLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, token := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, token, map[string]any{
		"title":          "Lifecycle Poll",
		"options":        []string{"A", "B"},
		"duration_hours": 1,
	})
	assert.NotEqual(t, uuid.Nil, poll.ID)
	assert.Equal(t, domain.PollStatusActive, poll.Status)
	assert.Equal(t, domain.PollVisibilityPublic, poll.Visibility)
	assert.WithinDuration(t, time.Now().Add(time.Hour), poll.ExpiresAt, 5*time.Second)

	// Get it back.
	resp := app.doJSON(t, "GET", fmt.Sprintf("/api/polls/%s", poll.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	assert.Equal(t, poll.ID, fetched.ID)

	// Patch the title.
	body, _ := json.Marshal(map[string]any{"title": "Renamed Poll"})
	resp = app.doJSON(t, "PATCH", fmt.Sprintf("/api/polls/%s", poll.ID), token, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Renamed Poll", updated.Title)

	// Force the deadline into the past; the next edit is rejected and the
	// expired status lands in the database.
	_, err := app.DB.Exec("UPDATE polls SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1", poll.ID)
	require.NoError(t, err)

	body, _ = json.Marshal(map[string]any{"title": "Too Late"})
	resp = app.doJSON(t, "PATCH", fmt.Sprintf("/api/polls/%s", poll.ID), token, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var status string
	err = app.DB.QueryRow("SELECT status FROM polls WHERE id = $1", poll.ID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "expired", status)
}

func TestPollValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, token := app.createUserAndToken(t, "user")

	// Over the two hour cap.
	body, _ := json.Marshal(map[string]any{
		"title":          "Marathon Poll",
		"options":        []string{"A", "B"},
		"duration_hours": 3,
	})
	resp := app.doJSON(t, "POST", "/api/polls", token, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var count int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM polls").Scan(&count))
	assert.Zero(t, count)
}

func TestPrivatePollAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, memberEmail, memberToken := app.createUserAndToken(t, "user")
	_, _, strangerToken := app.createUserAndToken(t, "user")
	_, _, adminToken := app.createUserAndToken(t, "admin")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":               "Team Only",
		"options":             []string{"yes", "no"},
		"visibility":          "private",
		"duration_hours":      1,
		"allowed_user_emails": []string{memberEmail, "nobody@example.com"},
	})

	// Unknown emails are dropped without failing the create.
	assert.Len(t, poll.AllowedUserIDs, 1)

	pollPath := fmt.Sprintf("/api/polls/%s", poll.ID)

	resp := app.doJSON(t, "GET", pollPath, memberToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "GET", pollPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Admins read private polls they are not listed on.
	resp = app.doJSON(t, "GET", pollPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// But they cannot vote on them.
	voteBody, _ := json.Marshal(map[string]any{"selected_option": "yes"})
	resp = app.doJSON(t, "POST", pollPath+"/votes", adminToken, voteBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestAllowListManagement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	memberID, memberEmail, _ := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Invite Only",
		"options":        []string{"a", "b"},
		"visibility":     "private",
		"duration_hours": 1,
	})
	allowPath := fmt.Sprintf("/api/polls/%s/allowed-users", poll.ID)
	body, _ := json.Marshal(map[string]any{"email": memberEmail})

	resp := app.doJSON(t, "POST", allowPath, ownerToken, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Contains(t, updated.AllowedUserIDs, memberID)

	// Adding twice conflicts.
	resp = app.doJSON(t, "POST", allowPath, ownerToken, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Unknown account is a 404 on the single-user endpoint.
	ghost, _ := json.Marshal(map[string]any{"email": "ghost@example.com"})
	resp = app.doJSON(t, "POST", allowPath, ownerToken, ghost)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "DELETE", allowPath, ownerToken, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.NotContains(t, updated.AllowedUserIDs, memberID)
}

func TestListAndStats(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, otherToken := app.createUserAndToken(t, "user")

	createPoll(t, app, ownerToken, map[string]any{
		"title":          "Public One",
		"options":        []string{"a", "b"},
		"duration_hours": 1,
	})
	createPoll(t, app, ownerToken, map[string]any{
		"title":          "Private One",
		"options":        []string{"a", "b"},
		"visibility":     "private",
		"duration_hours": 1,
	})

	type listResponse struct {
		Polls []*domain.Poll `json:"polls"`
		Count int            `json:"count"`
	}

	// A stranger only sees the public poll.
	resp := app.doJSON(t, "GET", "/api/polls", otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visible listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&visible))
	resp.Body.Close()
	require.Len(t, visible.Polls, 1)
	assert.Equal(t, "Public One", visible.Polls[0].Title)

	// The owner sees both under /my-polls.
	resp = app.doJSON(t, "GET", "/api/polls/my-polls", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mine))
	resp.Body.Close()
	assert.Len(t, mine.Polls, 2)

	resp = app.doJSON(t, "GET", "/api/polls/stats", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats domain.PollStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Public)
	assert.Equal(t, 1, stats.Private)
}

func TestPollDeletion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, _, ownerToken := app.createUserAndToken(t, "user")
	_, _, strangerToken := app.createUserAndToken(t, "user")

	poll := createPoll(t, app, ownerToken, map[string]any{
		"title":          "Doomed Poll",
		"options":        []string{"a", "b"},
		"duration_hours": 1,
	})
	pollPath := fmt.Sprintf("/api/polls/%s", poll.ID)

	resp := app.doJSON(t, "DELETE", pollPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "DELETE", pollPath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.doJSON(t, "GET", pollPath, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPollEndpointsRequireAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.doJSON(t, "GET", "/api/polls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
