// Package rest exposes resource endpoints over HTTP. Each resource is one
// routing unit serving every action of a logical resource; the handler
// derives the action from the request shape, then resolves the action's
// serializer, filter set and ordering configuration before touching storage.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rpattn/engrest/internal/auth"
	"github.com/rpattn/engrest/internal/domain"
	"github.com/rpattn/engrest/internal/repository"
	"github.com/rpattn/engrest/internal/viewset"

	"github.com/google/uuid"
)

// EntityResource serves one entity endpoint. All configuration is declared
// at construction and read-only afterwards; requests share it freely.
type EntityResource struct {
	Endpoint   *viewset.Endpoint
	SchemaName string
	// EntityType pins the endpoint to one entity type regardless of client
	// filters. Empty means unscoped.
	EntityType string
	Entities   repository.EntityRepository
	Schemas    repository.EntitySchemaRepository
	Renderer   *viewset.Renderer
	// Annotate attaches request-scoped computed fields to the list query.
	Annotate func(r *http.Request) []domain.Annotation
}

func (res *EntityResource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, hasID := trailingID(r.URL.Path)
	action, ok := actionFor(r.Method, hasID)
	if !ok || !res.Endpoint.Supports(action) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case viewset.ActionList:
		res.handleList(w, r)
	case viewset.ActionRetrieve:
		res.handleRetrieve(w, r, id)
	case viewset.ActionCreate:
		res.handleCreate(w, r)
	case viewset.ActionUpdate:
		res.handleUpdate(w, r, id)
	case viewset.ActionDestroy:
		res.handleDestroy(w, r, id)
	}
}

// actionFor maps the request shape onto the action identifier. The mapping
// is fixed: collection GET lists, item GET retrieves, POST creates, PUT or
// PATCH updates, DELETE destroys.
func actionFor(method string, hasID bool) (viewset.Action, bool) {
	switch {
	case method == http.MethodGet && !hasID:
		return viewset.ActionList, true
	case method == http.MethodGet:
		return viewset.ActionRetrieve, true
	case method == http.MethodPost && !hasID:
		return viewset.ActionCreate, true
	case (method == http.MethodPut || method == http.MethodPatch) && hasID:
		return viewset.ActionUpdate, true
	case method == http.MethodDelete && hasID:
		return viewset.ActionDestroy, true
	}
	return "", false
}

func trailingID(path string) (uuid.UUID, bool) {
	trimmed := strings.TrimSuffix(path, "/")
	segment := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		segment = trimmed[idx+1:]
	}
	id, err := uuid.Parse(segment)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (res *EntityResource) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, ok := auth.OrganizationIDFromContext(ctx)
	if !ok {
		http.Error(w, "X-Organization-ID header required", http.StatusBadRequest)
		return
	}

	var query domain.EntityQuery
	if res.Annotate != nil {
		query.Annotations = res.Annotate(r)
	}

	if filterSet := res.Endpoint.FilterSetFor(viewset.ActionList); filterSet != nil {
		filter, err := filterSet.Filter(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query.Filter = filter
	}
	if res.EntityType != "" {
		query.Filter.EntityType = res.EntityType
	}

	query.Ordering = res.resolveOrdering(r, viewset.ActionList, orgID, query)

	// The pagination window is pushed down into the query; the returned
	// total counts every match so the envelope stays accurate.
	limit, offset, _ := res.Renderer.Window(r)
	entities, total, err := res.Entities.List(ctx, orgID, query, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	serializer, err := res.Endpoint.SerializerFor(viewset.ActionList)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := res.Renderer.Render(ctx, r, serializer, entities, total, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (res *EntityResource) handleRetrieve(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()

	entity, err := res.Entities.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.inScope(ctx, entity) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	serializer, err := res.Endpoint.SerializerFor(viewset.ActionRetrieve)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := res.Renderer.Render(ctx, r, serializer, []domain.Entity{entity}, 1, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type entityPayload struct {
	Path       string         `json:"path"`
	Properties map[string]any `json:"properties"`
}

func (res *EntityResource) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, ok := auth.OrganizationIDFromContext(ctx)
	if !ok {
		http.Error(w, "X-Organization-ID header required", http.StatusBadRequest)
		return
	}

	var payload entityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Path) == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	schema, err := res.Schemas.GetByName(ctx, orgID, res.SchemaName)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := schema.ValidateProperties(payload.Properties); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entity := domain.NewEntity(orgID, schema.ID, schema.Name, payload.Path, payload.Properties)
	created, err := res.Entities.Create(ctx, entity)
	if err != nil {
		writeError(w, err)
		return
	}

	serializer, err := res.Endpoint.SerializerFor(viewset.ActionCreate)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := res.Renderer.Render(ctx, r, serializer, []domain.Entity{created}, 1, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

func (res *EntityResource) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()

	var payload entityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	entity, err := res.Entities.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.inScope(ctx, entity) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if payload.Properties != nil {
		schema, err := res.Schemas.GetByID(ctx, entity.SchemaID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := schema.ValidateProperties(payload.Properties); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entity = entity.WithProperties(payload.Properties)
	}
	if payload.Path != "" {
		entity = entity.WithPath(payload.Path)
	}

	updated, err := res.Entities.Update(ctx, entity)
	if err != nil {
		writeError(w, err)
		return
	}

	serializer, err := res.Endpoint.SerializerFor(viewset.ActionUpdate)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := res.Renderer.Render(ctx, r, serializer, []domain.Entity{updated}, 1, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (res *EntityResource) handleDestroy(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()

	entity, err := res.Entities.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.inScope(ctx, entity) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := res.Entities.Delete(ctx, entity.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveOrdering combines the client's ordering parameter with the
// endpoint's resolved valid fields, falling back to the action's default
// ordering when the client requests nothing usable.
func (res *EntityResource) resolveOrdering(r *http.Request, action viewset.Action, orgID uuid.UUID, query domain.EntityQuery) []domain.OrderingKey {
	valid := res.Endpoint.ValidOrderingFields(action, res.fieldSource(r, orgID, query))
	validKeys := make(map[string]struct{}, len(valid))
	for _, option := range valid {
		validKeys[option.Key] = struct{}{}
	}

	var keys []domain.OrderingKey
	for _, raw := range strings.Split(r.URL.Query().Get("ordering"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key := domain.OrderingKey(raw)
		if _, ok := validKeys[key.Field()]; ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = res.Endpoint.OrderingFor(action)
	}
	return keys
}

func (res *EntityResource) fieldSource(r *http.Request, orgID uuid.UUID, query domain.EntityQuery) viewset.FieldSource {
	source := &entityFieldSource{query: query}
	if schema, err := res.Schemas.GetByName(r.Context(), orgID, res.SchemaName); err == nil {
		source.schema = &schema
	}
	return source
}

// inScope checks the entity against the request's organization scope and
// the endpoint's entity-type pin. Out-of-scope entities render as 404 so
// ids from other tenants are indistinguishable from missing ones.
func (res *EntityResource) inScope(ctx context.Context, entity domain.Entity) bool {
	if res.EntityType != "" && entity.EntityType != res.EntityType {
		return false
	}
	return auth.EnforceOrganizationScope(ctx, entity.OrganizationID) == nil
}
