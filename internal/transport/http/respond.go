// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and never embed business logic; transport concerns stay here.
package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "ashram/pkg/domain-errors"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError centralizes domain error translation to HTTP responses so every
// handler emits the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.FromError(err)
	respondJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": string(code),
	})
}

// bearerToken extracts the Authorization bearer token, or empty.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
