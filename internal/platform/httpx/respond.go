// Package httpx provides the JSON response envelope shared by every endpoint.
package httpx

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Respond wraps data in the envelope. A nil payload is rendered as {}.
func Respond(w http.ResponseWriter, status int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	state := "success"
	if status < 200 || status >= 300 {
		state = "error"
	}
	JSON(w, status, Envelope{Status: state, Code: status, Message: message, Data: data})
}

// OK sends a 200 envelope.
func OK(w http.ResponseWriter, message string, data any) {
	Respond(w, http.StatusOK, message, data)
}

// Error sends an error envelope with an empty payload.
func Error(w http.ResponseWriter, status int, message string) {
	Respond(w, status, message, nil)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
