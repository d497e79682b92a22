package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/auth"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/suggest"
	"github.com/dukerupert/chorequest/internal/websocket"
)

type TaskHandler struct {
	hub *websocket.Hub
}

func NewTaskHandler(hub *websocket.Hub) *TaskHandler {
	return &TaskHandler{hub: hub}
}

// notifyHousehold tells every client of the task's household to refetch.
func (h *TaskHandler) notifyHousehold(task *model.Task, action string) {
	h.hub.SendHousehold(task.HouseholdID, websocket.NewMessage("task", action, task.ID, nil))
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	s := auth.Session(r.Context())
	if err := s.FetchTasks(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	tasks := s.State().Tasks()
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req app.TaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := auth.Session(r.Context()).AddTask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifyHousehold(task, "created")
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req app.TaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := auth.Session(r.Context()).UpdateTask(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifyHousehold(task, "updated")
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := auth.Session(r.Context())
	id := r.PathValue("id")
	var householdID string
	if hh := s.State().Household(); hh != nil {
		householdID = hh.ID
	}
	if err := s.DeleteTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.hub.SendHousehold(householdID, websocket.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	UserID string `json:"user_id"`
}

// Complete marks a task completed. The body is optional; without a user_id
// the signed-in user gets the credit, otherwise user_id must belong to the
// task's household.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	res, err := auth.Session(r.Context()).CompleteTask(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.notifyHousehold(&res.Task, "completed")
	writeJSON(w, http.StatusOK, res)
}

type suggestResponse struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Matched  bool           `json:"matched"`
}

// SuggestCategory guesses a category for the ?name= query. Unmatched names
// fall back to cleaning with matched=false so forms always get a valid value.
func (h *TaskHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	cat, ok := suggest.Category(r.URL.Query().Get("name"))
	if !ok {
		cat = model.CategoryCleaning
	}
	writeJSON(w, http.StatusOK, suggestResponse{Category: cat, Label: cat.Label(), Matched: ok})
}
