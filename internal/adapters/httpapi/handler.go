package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/core/usecase"
	"github.com/opencfg/confcheck/internal/jwcc"
)

type ctxKey string

const (
	timeFormat            = "2006-01-02T15:04:05.999999999Z07:00"
	tenantIDCtxKey ctxKey = "tenant_id"
	apiActorCtxKey ctxKey = "api_actor"
	maxBodySize           = 1 << 20
)

type Handler struct {
	schemaService     *usecase.SchemaService
	validationService *usecase.ValidationService
	authService       *usecase.AuthService
}

func NewHandler(schemaService *usecase.SchemaService, validationService *usecase.ValidationService, authService *usecase.AuthService) *Handler {
	return &Handler{schemaService: schemaService, validationService: validationService, authService: authService}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Get("/v1/schemas", h.listSchemas)
		pr.Put("/v1/schemas/{name}", h.upsertSchema)
		pr.Get("/v1/schemas/{name}", h.getSchema)
		pr.Delete("/v1/schemas/{name}", h.deleteSchema)
		pr.Post("/v1/schemas/{name}/validate", h.validate)

		pr.Get("/v1/reports", h.listReports)
		pr.Get("/v1/reports/{id}", h.getReport)
	})

	return r
}

type schemaResponse struct {
	Name      string          `json:"name"`
	Source    json.RawMessage `json:"source"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type reportResponse struct {
	ID         string             `json:"id"`
	SchemaName string             `json:"schema_name"`
	Mode       string             `json:"mode"`
	Valid      bool               `json:"valid"`
	Violations []domain.Violation `json:"violations,omitempty"`
	CreatedAt  string             `json:"created_at"`
}

func (h *Handler) upsertSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tenantID := tenantIDFromContext(r.Context())

	source, ok := readBody(w, r)
	if !ok {
		return
	}

	schema, err := h.schemaService.Upsert(r.Context(), tenantID, name, source)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSchemaResponse(schema))
}

func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tenantID := tenantIDFromContext(r.Context())

	schema, err := h.schemaService.Get(r.Context(), tenantID, name)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSchemaResponse(schema))
}

func (h *Handler) deleteSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tenantID := tenantIDFromContext(r.Context())

	deleted, err := h.schemaService.Delete(r.Context(), tenantID, name)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantIDFromContext(r.Context())

	schemas, err := h.schemaService.List(r.Context(), tenantID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]schemaResponse, 0, len(schemas))
	for _, s := range schemas {
		result = append(result, toSchemaResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tenantID := tenantIDFromContext(r.Context())
	actor := actorFromContext(r.Context())

	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, ok := readBody(w, r)
	if !ok {
		return
	}

	report, err := h.validationService.Run(r.Context(), tenantID, name, source, mode, actor)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tenantID := tenantIDFromContext(r.Context())

	report, err := h.validationService.GetReport(r.Context(), tenantID, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantIDFromContext(r.Context())

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	reports, err := h.validationService.ListReports(r.Context(), tenantID, domain.ReportFilter{
		SchemaName: r.URL.Query().Get("schema"),
		Limit:      limit,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		result = append(result, toReportResponse(rep))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": result})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDCtxKey, apiKey.TenantID)
		ctx = context.WithValue(ctx, apiActorCtxKey, apiKey.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toSchemaResponse(s domain.StoredSchema) schemaResponse {
	return schemaResponse{
		Name:      s.Name,
		Source:    s.Source,
		CreatedAt: s.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: s.UpdatedAt.UTC().Format(timeFormat),
	}
}

func toReportResponse(r domain.ValidationReport) reportResponse {
	return reportResponse{
		ID:         r.ID,
		SchemaName: r.SchemaName,
		Mode:       string(r.Mode),
		Valid:      r.Valid,
		Violations: r.Violations,
		CreatedAt:  r.CreatedAt.UTC().Format(timeFormat),
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	source, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return nil, false
	}
	if len(source) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return nil, false
	}
	return source, true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// handleDomainError maps service errors onto HTTP statuses. Parse failures
// carry their source location into the response body.
func handleDomainError(w http.ResponseWriter, err error) {
	var parseErr *jwcc.ParseError
	var schemaErr *domain.SchemaParseError
	switch {
	case errors.As(err, &parseErr):
		body := map[string]any{"error": err.Error()}
		if parseErr.Line > 0 {
			body["line"] = parseErr.Line
			body["column"] = parseErr.Col
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func tenantIDFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantIDCtxKey).(string)
	return tenant
}

func actorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(apiActorCtxKey).(string)
	if actor == "" {
		return "api"
	}
	return actor
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "confcheck",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/schemas": map[string]any{
				"get": map[string]any{"summary": "List schemas"},
			},
			"/v1/schemas/{name}": map[string]any{
				"put":    map[string]any{"summary": "Upsert schema"},
				"get":    map[string]any{"summary": "Get schema"},
				"delete": map[string]any{"summary": "Delete schema"},
			},
			"/v1/schemas/{name}/validate": map[string]any{
				"post": map[string]any{"summary": "Validate a JWCC document against the schema"},
			},
			"/v1/reports": map[string]any{
				"get": map[string]any{"summary": "List validation reports"},
			},
			"/v1/reports/{id}": map[string]any{
				"get": map[string]any{"summary": "Get validation report"},
			},
		},
	}
}
