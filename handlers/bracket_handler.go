package handlers

import (
	"errors"
	"net/http"

	"github.com/adilzhm/pickbracket/middleware"
	"github.com/adilzhm/pickbracket/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

func (h *BracketHandler) Standings(w http.ResponseWriter, r *http.Request) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.bracketService.Standings(r.Context(), pollID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Get(w http.ResponseWriter, r *http.Request) {
	pollID, userID, ok := h.sessionParams(w, r)
	if !ok {
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), pollID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Pick records a winner for one game. An invalid pick is not an error: the
// response carries applied=false and the unchanged bracket.
func (h *BracketHandler) Pick(w http.ResponseWriter, r *http.Request) {
	pollID, userID, ok := h.sessionParams(w, r)
	if !ok {
		return
	}

	var input struct {
		GameID string `json:"game_id"`
		TeamID int    `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GameID == "" {
		badRequestResponse(w, r, errors.New("game_id is required"))
		return
	}

	result, err := h.bracketService.Pick(r.Context(), pollID, userID, input.GameID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Undo(w http.ResponseWriter, r *http.Request) {
	pollID, userID, ok := h.sessionParams(w, r)
	if !ok {
		return
	}

	result, err := h.bracketService.Undo(r.Context(), pollID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) sessionParams(w http.ResponseWriter, r *http.Request) (pollID, userID int, ok bool) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	userID, err = middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return 0, 0, false
	}
	return pollID, userID, true
}
