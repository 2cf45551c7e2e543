// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

const (
	PermissionCreate             = "payment:create"
	PermissionView               = "payment:view"
	PermissionManageSubscription = "subscription:manage"
)

type Handler struct {
	payments      *PaymentService
	subscriptions *SubscriptionService
	guard         *middleware.Guard
	validator     *validator.Validate
}

func NewHandler(
	payments *PaymentService,
	subscriptions *SubscriptionService,
	guard *middleware.Guard,
) *Handler {
	return &Handler{
		payments:      payments,
		subscriptions: subscriptions,
		guard:         guard,
		validator:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)
		r.With(h.guard.RequirePermissions(PermissionCreate)).Post("/initialize", h.Initialize)
		r.With(h.guard.RequirePermissions(PermissionView)).Get("/{reference}", h.Get)
		r.With(h.guard.RequirePermissions(PermissionView)).Post("/{reference}/verify", h.Verify)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(authenticator, h.guard.RequirePermissions(PermissionManageSubscription))
		r.Post("/start", h.StartSubscription)
		r.Get("/status", h.SubscriptionStatus)
	})
}

func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOf(w, r)
	if !ok {
		return
	}

	var req InitializeRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.payments.Initialize(r.Context(), tenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOf(w, r)
	if !ok {
		return
	}

	p, err := h.payments.Get(r.Context(), tenantID, chi.URLParam(r, "reference"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, p)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOf(w, r)
	if !ok {
		return
	}

	out, err := h.payments.Verify(r.Context(), tenantID, chi.URLParam(r, "reference"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, out)
}

func (h *Handler) StartSubscription(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOf(w, r)
	if !ok {
		return
	}

	var req StartSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.subscriptions.Start(r.Context(), tenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, out)
}

func (h *Handler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOf(w, r)
	if !ok {
		return
	}

	email := r.URL.Query().Get("customer_email")
	if email == "" {
		core.UnprocessableEntity(w, "customer_email is required")
		return
	}

	out, err := h.subscriptions.Status(r.Context(), tenantID, email)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, out)
}

// tenantOf resolves the caller's tenant. Payments are always tenant scoped,
// so a caller without a company is refused.
func tenantOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := middleware.GetCompanyID(r.Context())
	if tenantID == "" {
		core.Forbidden(w, "Caller is not attached to a tenant")
		return "", false
	}
	return tenantID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.UnprocessableEntity(w, core.FormatValidationError(err))
		return false
	}
	return true
}
