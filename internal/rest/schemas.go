package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rpattn/engrest/internal/auth"
	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/repository"

	"github.com/google/uuid"
)

// SchemaHandler manages entity schema definitions for the authenticated
// organization.
type SchemaHandler struct {
	Schemas repository.EntitySchemaRepository
}

func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "X-Organization-ID header required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, orgID)
	case http.MethodPost:
		h.handleCreate(w, r, orgID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SchemaHandler) handleList(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	schemas, err := h.Schemas.List(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (h *SchemaHandler) handleCreate(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	var payload struct {
		Name   string                   `json:"name"`
		Fields []domain.FieldDefinition `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := validateFieldDefinitions(payload.Fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	version := int64(1)
	if existing, err := h.Schemas.GetByName(r.Context(), orgID, payload.Name); err == nil {
		version = existing.Version + 1
	}

	schema := domain.EntitySchema{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           payload.Name,
		Version:        version,
		Fields:         payload.Fields,
		CreatedAt:      time.Now(),
	}
	created, err := h.Schemas.Create(r.Context(), schema)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func validateFieldDefinitions(fields []domain.FieldDefinition) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("field definitions need a name")
		}
		if _, ok := seen[field.Name]; ok {
			return fmt.Errorf("duplicate field %q", field.Name)
		}
		seen[field.Name] = struct{}{}
		switch field.Type {
		case domain.FieldTypeString, domain.FieldTypeInteger, domain.FieldTypeFloat,
			domain.FieldTypeBoolean, domain.FieldTypeTimestamp, domain.FieldTypeJSON,
			domain.FieldTypeEntityReference:
		default:
			return fmt.Errorf("field %q has unsupported type %q", field.Name, field.Type)
		}
	}
	return nil
}
