package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/repository"
)

// OrganizationHandler manages tenants. Organizations are administrative
// plumbing rather than a configurable resource endpoint, so they get a
// plain handler instead of the viewset machinery.
type OrganizationHandler struct {
	Organizations repository.OrganizationRepository
}

func (h *OrganizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *OrganizationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Organizations.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *OrganizationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	created, err := h.Organizations.Create(r.Context(), domain.NewOrganization(payload.Name, payload.Description))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
