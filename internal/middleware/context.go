// AngelaMos | 2026
// context.go

package middleware

import (
	"context"
	"slices"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	PrincipalKey contextKey = "principal"
	annotationKey contextKey = "audit_annotation"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID      string
	CompanyID   string
	Email       string
	Role        string
	Permissions []string
}

func (p *Principal) HasPermission(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}

func GetCompanyID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.CompanyID
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
