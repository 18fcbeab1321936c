package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"payday-service/internal/session"
)

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, log zerolog.Logger, status int, message string) {
	writeJSON(w, log, status, ErrorResponse{Error: message})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// connected returns the wallet address the session middleware attached to r.
func connected(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (string, bool) {
	address, ok := session.AddressFromContext(r.Context())
	if !ok {
		writeError(w, log, http.StatusUnauthorized, "Please connect wallet first")
	}
	return address, ok
}
