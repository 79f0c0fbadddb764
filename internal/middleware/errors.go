package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the API's JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Generic messages shared by middleware-level failures.
const (
	msgUnauthorized = "invalid or missing bearer token"
	msgInternal     = "an unexpected error occurred, please try again later"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}
