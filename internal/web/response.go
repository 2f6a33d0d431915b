package web

import (
	"encoding/json"
	"net/http"
)

// okResponse is the success body returned to the browser client.
type okResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// errorResponse is the body for client errors (bad request, wrong method).
type errorResponse struct {
	Error string `json:"error"`
}

// failResponse is the body for a dispatch failure.
type failResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
