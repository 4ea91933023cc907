// Package httpx holds the tiny JSON response helpers shared by every handler.
// The API speaks two body shapes: successes carry a "message" plus payload
// fields, failures carry a single human-readable "error" string. No stack
// traces or internal identifiers ever reach the client.
package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON writes the payload with the given status. Marshal failures fall back
// to a bare 500 since headers may already be committed.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes the canonical {"error": msg} failure body.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Message writes the canonical {"message": msg} acknowledgement body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
