package handler

import (
	"net/http"

	"github.com/dukerupert/chorequest/internal/auth"
	"github.com/dukerupert/chorequest/internal/websocket"
)

type HouseholdHandler struct {
	hub *websocket.Hub
}

func NewHouseholdHandler(hub *websocket.Hub) *HouseholdHandler {
	return &HouseholdHandler{hub: hub}
}

type householdRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	household, err := auth.Session(r.Context()).CreateHousehold(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	household, err := auth.Session(r.Context()).JoinHousehold(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.SendHousehold(household.ID, websocket.NewMessage("member", "joined", auth.UserID(r.Context()), nil))
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	household, err := auth.Session(r.Context()).RenameHousehold(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.SendHousehold(household.ID, websocket.NewMessage("household", "updated", household.ID, nil))
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := auth.Session(r.Context()).HouseholdMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}
