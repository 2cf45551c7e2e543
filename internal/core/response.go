// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Paginated(w http.ResponseWriter, items any, skip, limit, total int) {
	OK(w, PaginatedResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// JSONError writes err using the error taxonomy. Unknown errors become a
// generic 500 and are logged with full detail.
func JSONError(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	if appErr, ok := AsAppError(err); ok && status < http.StatusInternalServerError {
		JSON(w, status, ErrorResponse{
			Detail: appErr.Message,
			Code:   appErr.Code,
		})
		return
	}

	if status == http.StatusBadGateway {
		slog.Error("payment gateway error", "error", err)
		JSON(w, status, ErrorResponse{
			Detail: "Payment gateway unavailable",
			Code:   "BAD_GATEWAY",
		})
		return
	}

	if status >= http.StatusInternalServerError {
		InternalServerError(w, err)
		return
	}

	JSON(w, status, ErrorResponse{
		Detail: defaultMessage(err, status),
		Code:   strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{
		Detail: message,
		Code:   "BAD_REQUEST",
	})
}

func UnprocessableEntity(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Detail: message,
		Code:   "VALIDATION_ERROR",
	})
}

func NotFound(w http.ResponseWriter, resource string) {
	message := "Document not found or inaccessible"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	JSON(w, http.StatusNotFound, ErrorResponse{
		Detail: message,
		Code:   "NOT_FOUND",
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)

	JSON(w, http.StatusInternalServerError, ErrorResponse{
		Detail: "Internal server error",
		Code:   "INTERNAL_ERROR",
	})
}

func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}

	return strings.Join(messages, "; ")
}

func defaultMessage(err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return "Document not found or inaccessible"
	case http.StatusUnauthorized:
		return "Could not validate credentials"
	case http.StatusForbidden:
		return "You do not have the required privileges"
	case http.StatusConflict:
		return "Document already exists"
	case http.StatusUnprocessableEntity:
		return err.Error()
	default:
		return http.StatusText(status)
	}
}
