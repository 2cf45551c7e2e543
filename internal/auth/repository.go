// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

type OTPRepository interface {
	// Replace deletes any code for email and stores otp in its place.
	Replace(ctx context.Context, otp *OTP) error
	FindByEmail(ctx context.Context, email string) (*OTP, error)
	DecrementAttempts(ctx context.Context, email string) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type BlacklistRepository interface {
	Add(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db *sqlx.DB
}

func NewOTPRepository(db *sqlx.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Replace(ctx context.Context, otp *OTP) error {
	email := strings.ToLower(otp.Email)

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM otps WHERE lower(email) = $1`, email); err != nil {
			return fmt.Errorf("delete previous otp: %w", err)
		}

		query := `
			INSERT INTO otps (email, otp_code, attempts_left, expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`

		if err := tx.GetContext(ctx, otp, query,
			email,
			otp.Code,
			otp.AttemptsLeft,
			otp.ExpiresAt,
		); err != nil {
			return fmt.Errorf("insert otp: %w", err)
		}
		return nil
	})
}

func (r *otpRepository) FindByEmail(ctx context.Context, email string) (*OTP, error) {
	query := `
		SELECT id, email, otp_code, attempts_left, expires_at, created_at
		FROM otps
		WHERE lower(email) = lower($1)`

	var otp OTP
	err := r.db.GetContext(ctx, &otp, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find otp: %w", err)
	}

	return &otp, nil
}

func (r *otpRepository) DecrementAttempts(ctx context.Context, email string) error {
	query := `
		UPDATE otps
		SET attempts_left = attempts_left - 1
		WHERE lower(email) = lower($1)`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("decrement otp attempts: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM otps WHERE lower(email) = lower($1)`, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	return result.RowsAffected()
}

type blacklistRepository struct {
	db core.DBTX
}

func NewBlacklistRepository(db core.DBTX) BlacklistRepository {
	return &blacklistRepository{db: db}
}

func (r *blacklistRepository) Add(
	ctx context.Context,
	tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		INSERT INTO blacklisted_tokens (token_hash, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (r *blacklistRepository) Contains(ctx context.Context, tokenHash string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blacklisted_tokens WHERE token_hash = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, tokenHash); err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func (r *blacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blacklisted_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist entries: %w", err)
	}
	return result.RowsAffected()
}
