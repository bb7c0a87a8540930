package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pollbox/api/internal/core/domain"
	"github.com/pollbox/api/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Title             string   `json:"title"`
	Options           []string `json:"options"`
	Visibility        string   `json:"visibility"`
	DurationHours     float64  `json:"duration_hours"`
	AllowedUserEmails []string `json:"allowed_user_emails"`
}

type updatePollRequest struct {
	Title             *string  `json:"title"`
	Options           []string `json:"options"`
	Visibility        *string  `json:"visibility"`
	DurationHours     *float64 `json:"duration_hours"`
	AllowedUserEmails []string `json:"allowed_user_emails"`
}

type allowedUserRequest struct {
	Email string `json:"email"`
}

// CreatePoll godoc
// @Summary      Creates a time-boxed poll
// @Tags         polls
// @Accept       json
// @Success      201
// @Failure      400
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.CreatePollInput{
		Title:             req.Title,
		Options:           req.Options,
		Visibility:        domain.PollVisibility(req.Visibility),
		DurationHours:     req.DurationHours,
		AllowedUserEmails: req.AllowedUserEmails,
	}

	poll, err := h.service.Create(r.Context(), input, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	input := listInputFromQuery(r)
	polls, err := h.service.List(r.Context(), input, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"polls": polls, "count": len(polls)})
}

func (h *PollHandler) MyPolls(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	polls, err := h.service.List(r.Context(), ports.ListPollsInput{MyPolls: true}, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"polls": polls, "count": len(polls)})
}

func (h *PollHandler) ActivePolls(w http.ResponseWriter, r *http.Request) {
	h.listFixed(w, r, ports.ListPollsInput{ActiveOnly: true})
}

func (h *PollHandler) ExpiredPolls(w http.ResponseWriter, r *http.Request) {
	h.listFixed(w, r, ports.ListPollsInput{ExpiredOnly: true})
}

func (h *PollHandler) listFixed(w http.ResponseWriter, r *http.Request, input ports.ListPollsInput) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	polls, err := h.service.List(r.Context(), input, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"polls": polls, "count": len(polls)})
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	poll, err := h.service.Get(r.Context(), pollID, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	var req updatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := ports.UpdatePollInput{
		Title:             req.Title,
		Options:           req.Options,
		DurationHours:     req.DurationHours,
		AllowedUserEmails: req.AllowedUserEmails,
	}
	if req.Visibility != nil {
		visibility := domain.PollVisibility(*req.Visibility)
		input.Visibility = &visibility
	}

	poll, err := h.service.Update(r.Context(), pollID, input, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), pollID, principal); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *PollHandler) Stats(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	stats, err := h.service.Stats(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *PollHandler) CanVote(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	canVote, err := h.service.CanVote(r.Context(), pollID, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"can_vote": canVote})
}

func (h *PollHandler) AddAllowedUser(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	var req allowedUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	poll, err := h.service.AddAllowedUser(r.Context(), pollID, req.Email, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) RemoveAllowedUser(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	var req allowedUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	poll, err := h.service.RemoveAllowedUser(r.Context(), pollID, req.Email, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

func listInputFromQuery(r *http.Request) ports.ListPollsInput {
	query := r.URL.Query()
	input := ports.ListPollsInput{
		ActiveOnly:  query.Get("active") == "true",
		ExpiredOnly: query.Get("expired") == "true",
		MyPolls:     query.Get("my_polls") == "true",
	}
	if s := query.Get("status"); s != "" {
		status := domain.PollStatus(s)
		input.Status = &status
	}
	if v := query.Get("visibility"); v != "" {
		visibility := domain.PollVisibility(v)
		input.Visibility = &visibility
	}
	return input
}

// principalAndPollID pulls the authenticated principal and the {id} route
// parameter, writing the error response itself when either is missing.
func principalAndPollID(w http.ResponseWriter, r *http.Request) (domain.Principal, uuid.UUID, bool) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return domain.Principal{}, uuid.Nil, false
	}

	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return domain.Principal{}, uuid.Nil, false
	}
	return principal, pollID, true
}
