package handler

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/chorequest/internal/auth"
	"github.com/dukerupert/chorequest/internal/model"
)

// SessionHandler serves the cached state, profile, badges and notifications
// of the request's session.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	s := auth.Session(r.Context())
	s.VerifyAndRepair(r.Context())
	writeJSON(w, http.StatusOK, s.State().Snapshot())
}

type profileRequest struct {
	Name string `json:"name"`
}

func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := auth.Session(r.Context()).UpdateProfile(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *SessionHandler) Badges(w http.ResponseWriter, r *http.Request) {
	s := auth.Session(r.Context())
	if err := s.LoadBadges(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	badges := s.State().Badges()
	if badges == nil {
		badges = []model.Badge{}
	}
	writeJSON(w, http.StatusOK, badges)
}

func (h *SessionHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.Session(r.Context()).Bus().All())
}

func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if !auth.Session(r.Context()).Bus().Remove(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
