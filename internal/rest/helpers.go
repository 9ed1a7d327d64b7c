package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rpattn/engrest/internal/repository"
	"github.com/rpattn/engrest/internal/viewset"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[REST] failed to encode response: %v", err)
	}
}

// writeError maps errors onto HTTP statuses. A ConfigurationError is a
// server-side deployment fault, never a client error: it logs loudly and
// renders a 500 without leaking endpoint internals.
func writeError(w http.ResponseWriter, err error) {
	var cfgErr *viewset.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		log.Printf("[REST] %v", cfgErr)
		http.Error(w, "endpoint configuration error", http.StatusInternalServerError)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		log.Printf("[REST] request failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
