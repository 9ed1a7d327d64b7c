package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/rpattn/engrest/internal/auth"
	"github.com/rpattn/engrest/internal/viewset"
)

// Handler exposes XLSX export as a GET endpoint. The workbook is built in
// memory first so a mid-export failure still produces a clean error
// response instead of a truncated download.
type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "X-Organization-ID header required", http.StatusBadRequest)
		return
	}

	schemaName := strings.TrimSpace(r.URL.Query().Get("schema"))
	if schemaName == "" {
		http.Error(w, "schema query parameter is required", http.StatusBadRequest)
		return
	}

	req := Request{OrganizationID: orgID, SchemaName: schemaName}
	if raw := strings.TrimSpace(r.URL.Query().Get("ordering")); raw != "" {
		req.Ordering = viewset.OrderBy(strings.Split(raw, ",")...)
	}

	var buf bytes.Buffer
	if _, err := h.service.Export(r.Context(), &buf, req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", schemaName+".xlsx"))
	_, _ = w.Write(buf.Bytes())
}
