// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/lib/pq"

	"github.com/carterperez-dev/retail-backend/internal/auth"
	"github.com/carterperez-dev/retail-backend/internal/crud"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleCashier    = "cashier"
)

// User is an account inside a tenant. Password is accepted on input only;
// the stored hash and refresh token never leave the server.
type User struct {
	crud.Document
	Email                 string         `db:"email"                    json:"email"                  validate:"required,email,max=255"`
	Password              string         `db:"-"                        json:"password,omitempty"     validate:"required,min=8,max=128"`
	HashedPassword        string         `db:"hashed_password"          json:"-"`
	FullName              string         `db:"full_name"                json:"full_name"              validate:"required,min=1,max=100"`
	Role                  string         `db:"role"                     json:"role"                   validate:"omitempty,max=50"`
	Permissions           pq.StringArray `db:"permissions"              json:"permissions"            validate:"dive,required"`
	IsVerified            bool           `db:"is_verified"              json:"is_verified"`
	ResetPassword         bool           `db:"reset_password"           json:"reset_password"`
	RefreshToken          *string        `db:"refresh_token"            json:"-"`
	RefreshTokenExpiresAt *time.Time     `db:"refresh_token_expires_at" json:"-"`
}

func (User) TableName() string      { return "users" }
func (User) ModelName() string      { return "User" }
func (User) UniqueFields() []string { return []string{"email"} }
func (User) TenantScoped() bool     { return true }

// GlobalUniqueFields keeps login emails unique across every tenant.
func (User) GlobalUniqueFields() []string { return []string{"email"} }

func (User) Columns() []string {
	return []string{
		"email",
		"hashed_password",
		"full_name",
		"role",
		"permissions",
		"is_verified",
		"reset_password",
		"refresh_token",
		"refresh_token_expires_at",
	}
}

// ProtectedFields keeps session and verification state out of generic
// updates. The auth flows own those columns.
func (User) ProtectedFields() []string {
	return []string{"is_verified", "refresh_token", "refresh_token_expires_at"}
}

func (u *User) Values() map[string]any {
	return map[string]any{
		"email":                    u.Email,
		"hashed_password":          u.HashedPassword,
		"full_name":                u.FullName,
		"role":                     u.Role,
		"permissions":              u.Permissions,
		"is_verified":              u.IsVerified,
		"reset_password":           u.ResetPassword,
		"refresh_token":            u.RefreshToken,
		"refresh_token_expires_at": u.RefreshTokenExpiresAt,
	}
}

// row is the projection the auth queries read.
type row struct {
	ID                    string         `db:"id"`
	CompanyID             *string        `db:"company_id"`
	Email                 string         `db:"email"`
	HashedPassword        string         `db:"hashed_password"`
	Role                  string         `db:"role"`
	Permissions           pq.StringArray `db:"permissions"`
	IsActive              bool           `db:"is_active"`
	IsDeleted             bool           `db:"is_deleted"`
	IsVerified            bool           `db:"is_verified"`
	ResetPassword         bool           `db:"reset_password"`
	RefreshToken          *string        `db:"refresh_token"`
	RefreshTokenExpiresAt *time.Time     `db:"refresh_token_expires_at"`
}

func (r *row) info() *auth.UserInfo {
	info := &auth.UserInfo{
		ID:                    r.ID,
		Email:                 r.Email,
		Role:                  r.Role,
		Permissions:           []string(r.Permissions),
		PasswordHash:          r.HashedPassword,
		IsActive:              r.IsActive,
		IsDeleted:             r.IsDeleted,
		IsVerified:            r.IsVerified,
		ResetPassword:         r.ResetPassword,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
	}
	if r.CompanyID != nil {
		info.CompanyID = *r.CompanyID
	}
	if r.RefreshToken != nil {
		info.RefreshToken = *r.RefreshToken
	}
	return info
}
