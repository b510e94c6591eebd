package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adilzhm/pickbracket/middleware"
	"github.com/adilzhm/pickbracket/models"
	"github.com/adilzhm/pickbracket/services"
)

type PollHandler struct {
	pollService services.PollService
}

func NewPollHandler(pollService services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var input services.CreatePollInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	poll, err := h.pollService.CreatePoll(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"poll": poll}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	poll, err := h.pollService.GetPoll(r.Context(), pollID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"poll": poll}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	polls, err := h.pollService.ListPolls(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"polls": polls}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Close(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.pollService.ClosePoll(r.Context(), pollID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "closed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateOptionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	option, err := h.pollService.AddOption(r.Context(), pollID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"option": option}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	options, err := h.pollService.ListOptions(r.Context(), pollID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"options": options}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	optionID, err := readIDParam(r, "optionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.pollService.RemoveOption(r.Context(), optionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PollHandler) UploadOptionPhoto(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	optionID, err := readIDParam(r, "optionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get photo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for photo"))
		return
	}

	option, err := h.pollService.UploadOptionPhoto(r.Context(), optionID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"option": option}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return false
	}
	if role != models.RoleAdmin {
		forbiddenResponse(w, r, "admin privileges required")
		return false
	}
	return true
}
