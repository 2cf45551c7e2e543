// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/retail-backend/internal/auth"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

const selectAuthColumns = `
	SELECT id, company_id, email, hashed_password, role, permissions,
	       is_active, is_deleted, is_verified, reset_password,
	       refresh_token, refresh_token_expires_at
	FROM users`

// Repository holds the account queries used by authentication. Generic
// create, list and update go through crud.Repository.
type Repository struct {
	db core.DBTX
}

var _ auth.UserProvider = (*Repository)(nil)

func NewRepository(db core.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	query := selectAuthColumns + `
	WHERE lower(email) = lower($1)`

	var u row
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return u.info(), nil
}

// GetByID loads a user. An empty companyID skips the tenant condition.
func (r *Repository) GetByID(ctx context.Context, id, companyID string) (*auth.UserInfo, error) {
	query := selectAuthColumns + `
	WHERE id::text = $1 AND ($2 = '' OR company_id::text = $2)`

	var u row
	err := r.db.GetContext(ctx, &u, query, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u.info(), nil
}

func (r *Repository) SetRefreshToken(
	ctx context.Context,
	id, token string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		WHERE id::text = $1`

	return r.exec(ctx, "set refresh token", query, id, token, expiresAt)
}

func (r *Repository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, updated_at = NOW()
		WHERE id::text = $1`

	return r.exec(ctx, "mark verified", query, id)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET hashed_password = $2, updated_at = NOW()
		WHERE id::text = $1`

	return r.exec(ctx, "update password", query, id, passwordHash)
}

// CompletePasswordReset stores the new hash and clears the reset flag.
func (r *Repository) CompletePasswordReset(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET hashed_password = $2, reset_password = FALSE, updated_at = NOW()
		WHERE id::text = $1 AND is_deleted = FALSE`

	return r.exec(ctx, "complete password reset", query, id, passwordHash)
}

func (r *Repository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
