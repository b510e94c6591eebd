package handlers

import (
	"errors"
	"net/http"

	"github.com/adilzhm/pickbracket/middleware"
	"github.com/adilzhm/pickbracket/services"
)

type VoteHandler struct {
	voteService services.VoteService
}

func NewVoteHandler(voteService services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// Submit replaces the caller's ranked ballot for the poll. The body maps
// option ids to ranks, e.g. {"ranks": {"12": 1, "7": 2}}.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Ranks map[int]int `json:"ranks"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Ranks) == 0 {
		badRequestResponse(w, r, errors.New("ranks must not be empty"))
		return
	}

	if err := h.voteService.SubmitBallot(r.Context(), pollID, voterID, input.Ranks); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
