// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/mail"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
)

const (
	otpMin = 1000
	otpMax = 9999

	blacklistPrefix = "blacklist:"
)

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id, companyID string) (*UserInfo, error)
	SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	CompletePasswordReset(ctx context.Context, id, passwordHash string) error
}

// RevocationCache fronts the blacklist table. redis.Cmdable satisfies it.
type RevocationCache interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type Service struct {
	users       UserProvider
	otps        OTPRepository
	blacklist   BlacklistRepository
	cache       RevocationCache
	jwt         *JWTManager
	mailer      mail.Sender
	otpConfig   config.OTPConfig
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

type ServiceDeps struct {
	Users       UserProvider
	OTPs        OTPRepository
	Blacklist   BlacklistRepository
	Cache       RevocationCache
	JWT         *JWTManager
	Mailer      mail.Sender
	OTP         config.OTPConfig
	FrontendURL string
	Logger      *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	otpConfig := deps.OTP
	if otpConfig.Expiry <= 0 {
		otpConfig.Expiry = 30 * time.Minute
	}
	if otpConfig.Attempts <= 0 {
		otpConfig.Attempts = 3
	}

	return &Service{
		users:       deps.Users,
		otps:        deps.OTPs,
		blacklist:   deps.Blacklist,
		cache:       deps.Cache,
		jwt:         deps.JWT,
		mailer:      deps.Mailer,
		otpConfig:   otpConfig,
		frontendURL: deps.FrontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Authenticate checks credentials and account state without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*UserInfo, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, core.ValidationError("Invalid user credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, &user.PasswordHash)
	if err != nil || !valid {
		return nil, core.ValidationError("Invalid user credentials")
	}

	if newHash != "" {
		if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	switch {
	case user.CompanyID == "":
		return nil, core.ValidationError("User not assigned to a company")
	case !user.IsVerified:
		return nil, core.UnauthorizedError(
			"Your account is not verified. Contact your administrator.",
		)
	case !user.IsActive || user.IsDeleted:
		return nil, core.UnauthorizedError(
			"Your account has been disabled. Contact your administrator.",
		)
	case user.ResetPassword:
		return user, core.ResetPasswordError()
	}

	return user, nil
}

// Login authenticates and emails a one-time code. Users flagged for a
// password reset get a reset link instead.
func (s *Service) Login(ctx context.Context, email, password string) error {
	user, err := s.Authenticate(ctx, email, password)
	if errors.Is(err, core.ErrResetPassword) {
		if sendErr := s.sendResetLink(ctx, user); sendErr != nil {
			return sendErr
		}
		return err
	}
	if err != nil {
		return err
	}

	code, err := s.GenerateOTP(ctx, user.Email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		s.logger.Error("send otp failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// GenerateOTP replaces any live code for email with a fresh one.
func (s *Service) GenerateOTP(ctx context.Context, email string) (string, error) {
	code, err := core.GenerateNumericCode(otpMin, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	otp := &OTP{
		Email:        email,
		Code:         code,
		AttemptsLeft: s.otpConfig.Attempts,
		ExpiresAt:    s.now().Add(s.otpConfig.Expiry),
	}
	if err := s.otps.Replace(ctx, otp); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	return code, nil
}

// VerifyOTP consumes a matching code and issues a token pair. Attempts are
// checked before expiry.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	otp, err := s.otps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("OTP not found or expired")
		}
		return nil, err
	}

	if otp.IsExhausted() {
		return nil, core.OTPAttemptsExceededError()
	}
	if otp.IsExpired(s.now()) {
		return nil, core.OTPExpiredError()
	}
	if !core.ConstantTimeEqual(otp.Code, code) {
		if err := s.otps.DecrementAttempts(ctx, email); err != nil {
			return nil, err
		}
		return nil, core.InvalidOTPError()
	}

	if err := s.otps.DeleteByEmail(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issuePair(ctx, user)
}

func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ValidationError("Invalid user credentials")
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.CompanyID == "" {
		return core.ValidationError("User not assigned to a company")
	}
	if !user.IsVerified {
		return core.UnauthorizedError(
			"Your account is not verified. Contact your administrator.",
		)
	}

	code, err := s.GenerateOTP(ctx, user.Email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		s.logger.Error("send otp failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// Refresh mints a new access token. The refresh token itself is reused.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.Decode(refreshToken, ExpectRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, core.TokenRevokedError()
	}

	invalid := core.UnauthorizedError("Refresh token expired or invalid")

	user, err := s.users.GetByID(ctx, claims.Subject, claims.CompanyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.RefreshToken == "" || !core.ConstantTimeEqual(user.RefreshToken, refreshToken) {
		return nil, invalid
	}
	if user.RefreshTokenExpiresAt == nil || user.RefreshTokenExpiresAt.Before(s.now()) {
		return nil, invalid
	}

	access, err := s.jwt.CreateAccessToken(user.ID, user.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    access.ExpiresAt,
	}, nil
}

// Logout blacklists the refresh token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.Decode(refreshToken, ExpectRefresh)
	if err != nil {
		return err
	}

	hash := core.HashToken(refreshToken)
	if err := s.blacklist.Add(ctx, hash, claims.ExpiresAt); err != nil {
		return err
	}

	if s.cache != nil {
		ttl := claims.ExpiresAt.Sub(s.now())
		if ttl > 0 {
			if err := s.cache.Set(ctx, blacklistPrefix+hash, "1", ttl).Err(); err != nil {
				s.logger.Warn("cache token revocation failed", "error", err)
			}
		}
	}

	return nil
}

// IsRevoked consults the Redis cache first and falls back to Postgres.
func (s *Service) IsRevoked(ctx context.Context, token string) (bool, error) {
	hash := core.HashToken(token)

	if s.cache != nil {
		n, err := s.cache.Exists(ctx, blacklistPrefix+hash).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil {
			s.logger.Warn("revocation cache unavailable", "error", err)
		}
	}

	revoked, err := s.blacklist.Contains(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}

// CurrentUser resolves a bearer access token to the caller.
func (s *Service) CurrentUser(ctx context.Context, token string) (*middleware.Principal, error) {
	ctx, span := core.StartSpan(ctx, "auth.current_user")
	defer span.End()

	revoked, err := s.IsRevoked(ctx, token)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}
	if revoked {
		return nil, core.TokenRevokedError()
	}

	claims, err := s.jwt.Decode(token, ExpectAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject, claims.CompanyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("User not found")
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	if claims.CompanyID != "" && claims.CompanyID != user.CompanyID {
		return nil, core.TokenInvalidError()
	}
	if !user.IsActive || user.IsDeleted {
		return nil, core.UnauthorizedError(
			"Your account has been disabled. Contact your administrator.",
		)
	}

	return &middleware.Principal{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}, nil
}

// VerifyAccount marks the token subject as verified. Repeat calls succeed.
func (s *Service) VerifyAccount(ctx context.Context, token string) error {
	claims, err := s.jwt.Decode(token, ExpectVerification)
	if err != nil {
		return err
	}

	if err := s.users.MarkVerified(ctx, claims.Subject); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("User not found")
		}
		return err
	}
	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) (*TokenPair, error) {
	claims, err := s.jwt.Decode(token, ExpectPasswordReset)
	if err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.CompletePasswordReset(ctx, claims.Subject, hash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("Invalid credentials")
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject, claims.CompanyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("Invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issuePair(ctx, user)
}

// SendVerification emails an account verification link to a new user.
func (s *Service) SendVerification(ctx context.Context, userID, email string) error {
	token, err := s.jwt.CreateVerificationToken(userID)
	if err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	return s.mailer.SendWelcome(ctx, email, s.link("/verify-account", token.Token))
}

type CleanupResult struct {
	Tokens int64 `json:"tokens"`
	OTPs   int64 `json:"otps"`
}

// CleanupExpired removes blacklist rows and codes that can no longer matter.
func (s *Service) CleanupExpired(ctx context.Context, now time.Time) (CleanupResult, error) {
	var result CleanupResult

	tokens, err := s.blacklist.DeleteExpired(ctx, now)
	if err != nil {
		return result, err
	}
	result.Tokens = tokens

	otps, err := s.otps.DeleteExpired(ctx, now)
	if err != nil {
		return result, err
	}
	result.OTPs = otps

	s.logger.Info("expired auth records removed",
		"tokens", result.Tokens,
		"otps", result.OTPs,
	)
	return result, nil
}

func (s *Service) issuePair(ctx context.Context, user *UserInfo) (*TokenPair, error) {
	access, err := s.jwt.CreateAccessToken(user.ID, user.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(user.ID, user.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refresh.Token, refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresAt:    access.ExpiresAt,
	}, nil
}

func (s *Service) sendResetLink(ctx context.Context, user *UserInfo) error {
	token, err := s.jwt.CreatePasswordResetToken(user.ID, user.CompanyID)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	if err := s.mailer.SendResetPassword(ctx, user.Email, s.link("/reset-password", token.Token)); err != nil {
		s.logger.Error("send reset link failed", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *Service) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}
