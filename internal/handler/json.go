package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/chorequest/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Code   apperr.Code       `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError responds with the user-facing message of err. Raw error text
// never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: apperr.UserMessage(err), Code: apperr.CodeOf(err)}
	var e *apperr.Error
	if errors.As(err, &e) {
		if fields, ok := e.Details.(map[string]string); ok {
			resp.Fields = fields
		}
	}
	writeJSON(w, apperr.HTTPStatus(err), resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return false
	}
	return true
}
