// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/resource"
)

// Verifier sends the account verification link for a new user.
type Verifier interface {
	SendVerification(ctx context.Context, userID, email string) error
}

// Service prepares user documents around the generic create and update
// verbs.
type Service struct {
	verifier Verifier
	logger   *slog.Logger
	hash     func(string) (string, error)
}

func NewService(verifier Verifier, logger *slog.Logger) *Service {
	return &Service{
		verifier: verifier,
		logger:   logger,
		hash:     core.HashPassword,
	}
}

func (s *Service) Hooks() resource.Hooks[*User] {
	return resource.Hooks[*User]{
		BeforeCreate: s.beforeCreate,
		AfterCreate:  s.afterCreate,
		BeforeUpdate: s.beforeUpdate,
	}
}

// beforeCreate hashes the password. New accounts always start unverified
// and inside the creator's company.
func (s *Service) beforeCreate(_ context.Context, doc *User, caller *middleware.Principal) error {
	if caller == nil || caller.CompanyID == "" {
		return core.ValidationError("User not assigned to a company")
	}

	hash, err := s.hash(doc.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	doc.Email = strings.ToLower(strings.TrimSpace(doc.Email))
	doc.HashedPassword = hash
	doc.Password = ""
	doc.IsVerified = false
	doc.RefreshToken = nil
	doc.RefreshTokenExpiresAt = nil
	if doc.Role == "" {
		doc.Role = RoleCashier
	}
	if doc.Permissions == nil {
		doc.Permissions = pq.StringArray{}
	}
	return nil
}

func (s *Service) afterCreate(ctx context.Context, doc *User, _ *middleware.Principal) {
	if s.verifier == nil {
		return
	}
	if err := s.verifier.SendVerification(ctx, doc.ID, doc.Email); err != nil {
		s.logger.Error("verification email not queued",
			"user_id", doc.ID,
			"error", err,
		)
	}
}

// beforeUpdate never trusts a client supplied hash. A password in the
// payload replaces the stored hash.
func (s *Service) beforeUpdate(_ context.Context, doc *User, changes map[string]any) error {
	delete(changes, "hashed_password")

	if _, ok := changes["password"]; ok {
		delete(changes, "password")
		hash, err := s.hash(doc.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		changes["hashed_password"] = hash
	}

	if _, ok := changes["email"]; ok {
		changes["email"] = strings.ToLower(strings.TrimSpace(doc.Email))
	}
	if v, ok := changes["permissions"]; ok {
		if perms, _ := v.(pq.StringArray); perms == nil {
			changes["permissions"] = pq.StringArray{}
		}
	}
	return nil
}
