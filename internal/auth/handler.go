// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the session lifecycle endpoints. limiter guards the
// unauthenticated credential endpoints and may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/login", h.Login)
			r.Post("/verify_otp", h.VerifyOTP)
			r.Post("/resend_otp", h.ResendOTP)
			r.Post("/reset_password", h.ResetPassword)
		})

		r.Post("/refresh_token", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Post("/verify_account", h.VerifyAccount)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.Me)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Login(r.Context(), req.Email, req.Password); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, PendingResponse{
		AccessToken: "otp_sent",
		TokenType:   "awaiting_verification",
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, pair)
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResendOTP(r.Context(), req.Email); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, PendingResponse{
		AccessToken: "otp_sent",
		TokenType:   "awaiting_verification",
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Logged out successfully"})
}

func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	var req VerifyAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.VerifyAccount(r.Context(), req.Token); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Account verified"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, pair)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, MeResponse{
		ID:          principal.UserID,
		Email:       principal.Email,
		CompanyID:   principal.CompanyID,
		Role:        principal.Role,
		Permissions: principal.Permissions,
	})
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
