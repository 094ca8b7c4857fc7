// Package response writes JSON bodies. Every error leaving the API uses the
// same envelope: {"status":<code>,"message":"..."}.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the unified error body.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Error sends the error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Status: status, Message: message})
}

// ValidationError sends a 400 with a field → message map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: "All fields are required",
		Errors:  errs,
	})
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
