// AngelaMos | 2026
// handler.go

package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/crud"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

const (
	maxBodyBytes = 1 << 20
	searchPrefix = "search."
)

var reservedParams = map[string]struct{}{
	"skip":                {},
	"limit":               {},
	"include_deleted":     {},
	"include_deactivated": {},
	"exact_match":         {},
	"sort":                {},
}

// Hooks let a resource adjust documents around the generic verbs.
type Hooks[PT any] struct {
	// BeforeCreate runs after validation and before the insert.
	BeforeCreate func(ctx context.Context, doc PT, caller *middleware.Principal) error
	// AfterCreate runs once the document exists. Errors are not reported.
	AfterCreate func(ctx context.Context, doc PT, caller *middleware.Principal)
	// BeforeUpdate may rewrite changes before they reach the repository.
	BeforeUpdate func(ctx context.Context, doc PT, changes map[string]any) error
}

type Handler[T any, PT interface {
	*T
	crud.Entity
}] struct {
	repo        *crud.Repository[T, PT]
	permissions Permissions
	guard       *middleware.Guard
	hooks       Hooks[PT]
	validator   *validator.Validate
	fields      map[string]string
}

func NewHandler[T any, PT interface {
	*T
	crud.Entity
}](
	repo *crud.Repository[T, PT],
	permissions Permissions,
	guard *middleware.Guard,
	hooks Hooks[PT],
) *Handler[T, PT] {
	return &Handler[T, PT]{
		repo:        repo,
		permissions: permissions,
		guard:       guard,
		hooks:       hooks,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		fields:      jsonFieldNames(reflect.TypeFor[T]()),
	}
}

// RegisterRoutes mounts the verb pattern under path. Every route needs an
// authenticated caller.
func (h *Handler[T, PT]) RegisterRoutes(
	r chi.Router,
	path string,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route(path, func(r chi.Router) {
		r.Use(authenticator)

		r.With(h.guard.RequirePermissions(h.permissions.Create...)).Post("/", h.Create)
		r.With(h.guard.RequirePermissions(h.permissions.View...)).Get("/", h.List)
		r.With(h.guard.RequirePermissions(h.permissions.View...)).Get("/{id}", h.Get)
		r.With(h.guard.RequirePermissions(h.permissions.Edit...)).Put("/{id}", h.Update)
		r.With(h.guard.RequirePermissions(h.permissions.Delete...)).
			Patch("/{id}/soft_delete", h.transition(crud.SoftDelete))
		r.With(h.guard.RequirePermissions(h.permissions.Delete...)).
			Patch("/{id}/restore", h.transition(crud.Restore))
		r.With(h.guard.RequirePermissions(h.permissions.Deactivate...)).
			Patch("/{id}/disable", h.transition(crud.Disable))
		r.With(h.guard.RequirePermissions(h.permissions.Activate...)).
			Patch("/{id}/activate", h.transition(crud.Activate))
		r.With(h.guard.RequirePermissions(h.permissions.HardDelete...)).
			Delete("/{id}/permanently", h.HardDelete)
	})
}

func (h *Handler[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())

	doc := PT(new(T))
	if _, err := h.decode(w, r, doc); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(doc); err != nil {
		core.UnprocessableEntity(w, core.FormatValidationError(err))
		return
	}

	if h.hooks.BeforeCreate != nil {
		if err := h.hooks.BeforeCreate(r.Context(), doc, caller); err != nil {
			core.JSONError(w, err)
			return
		}
	}

	created, err := h.repo.Create(r.Context(), doc, scopeOf(caller), caller.UserID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if h.hooks.AfterCreate != nil {
		h.hooks.AfterCreate(r.Context(), created, caller)
	}

	core.Created(w, created)
}

func (h *Handler[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParseListParams(r.URL.Query())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	caller := middleware.GetPrincipal(r.Context())
	items, total, err := h.repo.List(r.Context(), scopeOf(caller), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, items, params.Skip, params.Limit, total)
}

func (h *Handler[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := crud.GetOptions{
		IncludeDeleted:     parseBool(q.Get("include_deleted")),
		IncludeDeactivated: parseBool(q.Get("include_deactivated")),
	}

	caller := middleware.GetPrincipal(r.Context())
	doc, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"), scopeOf(caller), opts)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, doc)
}

func (h *Handler[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	doc := PT(new(T))
	keys, err := h.decode(w, r, doc)
	if err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if partial := h.structFields(keys); len(partial) > 0 {
		if err := h.validator.StructPartial(doc, partial...); err != nil {
			core.UnprocessableEntity(w, core.FormatValidationError(err))
			return
		}
	}

	values := doc.Values()
	changes := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := values[key]; ok {
			changes[key] = v
			continue
		}
		changes[key] = nil
	}

	if h.hooks.BeforeUpdate != nil {
		if err := h.hooks.BeforeUpdate(r.Context(), doc, changes); err != nil {
			core.JSONError(w, err)
			return
		}
	}

	caller := middleware.GetPrincipal(r.Context())
	updated, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), changes, scopeOf(caller), caller.UserID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, updated)
}

func (h *Handler[T, PT]) transition(t crud.Transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.GetPrincipal(r.Context())
		doc, err := h.repo.Apply(r.Context(), chi.URLParam(r, "id"), t, scopeOf(caller), caller.UserID)
		if err != nil {
			core.JSONError(w, err)
			return
		}

		core.OK(w, doc)
	}
}

func (h *Handler[T, PT]) HardDelete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())

	err := h.repo.Delete(
		r.Context(),
		chi.URLParam(r, "id"),
		scopeOf(caller),
		caller.UserID,
		true,
		audit.FromRequest(r),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

// decode fills doc from the body and returns the top-level keys present.
func (h *Handler[T, PT]) decode(w http.ResponseWriter, r *http.Request, doc PT) ([]string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	return keys, nil
}

func (h *Handler[T, PT]) structFields(keys []string) []string {
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := h.fields[k]; ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// ParseListParams reads paging, visibility, sort, filter and search options.
// Unreserved keys filter by column; "search.<column>" keys search.
func ParseListParams(q url.Values) (crud.ListParams, error) {
	params := crud.ListParams{
		Limit:              crud.DefaultLimit,
		IncludeDeleted:     parseBool(q.Get("include_deleted")),
		IncludeDeactivated: parseBool(q.Get("include_deactivated")),
		ExactMatch:         parseBool(q.Get("exact_match")),
		Sort:               crud.ParseSort(q.Get("sort")),
	}

	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return params, core.ValidationError("'skip' must be a non-negative integer")
		}
		params.Skip = skip
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > crud.MaxLimit {
			return params, core.ValidationError(
				fmt.Sprintf("'limit' must be between 1 and %d", crud.MaxLimit),
			)
		}
		params.Limit = limit
	}

	for key, values := range q {
		if _, reserved := reservedParams[key]; reserved || len(values) == 0 {
			continue
		}
		if field, ok := strings.CutPrefix(key, searchPrefix); ok {
			if params.Search == nil {
				params.Search = make(map[string]string)
			}
			params.Search[field] = values[0]
			continue
		}
		if params.Filters == nil {
			params.Filters = make(map[string]any)
		}
		params.Filters[key] = values[0]
	}

	return params, nil
}

func scopeOf(caller *middleware.Principal) crud.Scope {
	if caller == nil {
		return crud.Scope{}
	}
	return crud.TenantScope(caller.CompanyID)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// jsonFieldNames maps json keys to Go field names for the domain fields of
// t. Embedded structs are skipped.
func jsonFieldNames(t reflect.Type) map[string]string {
	names := make(map[string]string)
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[name] = f.Name
	}
	return names
}
