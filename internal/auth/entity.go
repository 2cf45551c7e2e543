// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// OTP is the single live one-time code for an email address.
type OTP struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Code         string    `db:"otp_code"`
	AttemptsLeft int       `db:"attempts_left"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

func (o *OTP) IsExhausted() bool {
	return o.AttemptsLeft < 1
}

func (o *OTP) IsExpired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

type BlacklistedToken struct {
	ID        string    `db:"id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// UserInfo is the view of a user account that authentication needs.
type UserInfo struct {
	ID                    string
	Email                 string
	CompanyID             string
	Role                  string
	Permissions           []string
	PasswordHash          string
	IsActive              bool
	IsDeleted             bool
	IsVerified            bool
	ResetPassword         bool
	RefreshToken          string
	RefreshTokenExpiresAt *time.Time
}
