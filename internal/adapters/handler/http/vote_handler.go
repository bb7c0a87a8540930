package http

import (
	"encoding/json"
	"net/http"

	"github.com/pollbox/api/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type castVoteRequest struct {
	SelectedOption string `json:"selected_option"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vote, err := h.service.Cast(r.Context(), pollID, req.SelectedOption, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}

func (h *VoteHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	if err := h.service.Unvote(r.Context(), pollID, principal); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	results, err := h.service.Results(r.Context(), pollID, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *VoteHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	hasVoted, err := h.service.HasVoted(r.Context(), pollID, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"has_voted": hasVoted})
}

func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	principal, pollID, ok := principalAndPollID(w, r)
	if !ok {
		return
	}

	vote, err := h.service.MyVote(r.Context(), pollID, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"selected_option": vote.SelectedOption})
}

func (h *VoteHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	votes, err := h.service.MyVotes(r.Context(), principal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"votes": votes, "count": len(votes)})
}
