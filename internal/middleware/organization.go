package middleware

import (
	"net/http"

	"github.com/rpattn/engrest/internal/auth"

	"github.com/google/uuid"
)

// OrganizationHeader carries the caller's organization scope.
const OrganizationHeader = "X-Organization-ID"

// OrganizationMiddleware reads the organization header into the request
// context. A malformed id is rejected up front; a missing header passes
// through and handlers decide whether scope is required.
func OrganizationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(OrganizationHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid "+OrganizationHeader+" header", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithOrganizationID(r.Context(), id)))
	})
}
