// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/service"
)

type VotingHandler struct {
	svc *service.Service
	cfg cliparse.Config
}

func NewVotingHandler(svc *service.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// CreateVote handles POST /assemblies/{id}/votes
func (h *VotingHandler) CreateVote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CreateVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	vote, err := h.svc.CreateVote(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, vote)
}

// ListVotes handles GET /assemblies/{id}/votes
func (h *VotingHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	votes, err := h.svc.ListVotes(r.Context(), p, r.PathValue("id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if votes == nil {
		votes = []models.Vote{}
	}
	middleware.JSONResponse(w, http.StatusOK, votes)
}

// SubmitVote handles POST /votes/{voteId}/submit-vote
// Re-submitting replaces the unit's previous choice.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.svc.CastVote(r.Context(), p, r.PathValue("voteId"), req, ipHash(r, h.cfg.IPHashSalt))
	if err != nil {
		serviceError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.IsUpdate {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, resp)
}

// GetVote handles GET /votes/{voteId}
func (h *VotingHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	vote, err := h.svc.GetVote(r.Context(), p, r.PathValue("voteId"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, vote)
}

// GetResults handles GET /votes/{voteId}/results
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	results, err := h.svc.VoteResults(r.Context(), p, r.PathValue("voteId"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, results)
}

// EndVote handles POST /votes/{voteId}/end
func (h *VotingHandler) EndVote(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.EndVote(r.Context(), p, r.PathValue("voteId"))
	if err != nil {
		serviceError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
