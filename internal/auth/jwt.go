// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
)

const (
	TypeAccess  = "access_token"
	TypeRefresh = "refresh_token"

	PurposeVerification  = "account_verification"
	PurposePasswordReset = "password_reset"
)

// Expect names the discriminator a token must carry to be accepted.
// Exactly one of Type or Purpose is set.
type Expect struct {
	Type    string
	Purpose string
}

var (
	ExpectAccess        = Expect{Type: TypeAccess}
	ExpectRefresh       = Expect{Type: TypeRefresh}
	ExpectVerification  = Expect{Purpose: PurposeVerification}
	ExpectPasswordReset = Expect{Purpose: PurposePasswordReset}
)

type Claims struct {
	Subject   string
	CompanyID string
	Type      string
	Purpose   string
	ExpiresAt time.Time
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.JWTConfig
	now        func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return NewJWTManagerFromPEM(privateKeyPEM, cfg)
}

func NewJWTManagerFromPEM(privateKeyPEM []byte, cfg config.JWTConfig) (*JWTManager, error) {
	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
		now:        time.Now,
	}, nil
}

// GenerateKeyPEM returns a fresh ES256 private key in PEM form.
func GenerateKeyPEM() ([]byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return nil, fmt.Errorf("encode private key: %w", err)
	}
	return privatePEM, nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privatePEM, err := GenerateKeyPEM()
	if err != nil {
		return err
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	jwkPrivate, err := jwk.ParseKey(privatePEM, jwk.WithPEM(true))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}

func (m *JWTManager) CreateAccessToken(subject, companyID string) (IssuedToken, error) {
	return m.issue(subject, companyID, "type", TypeAccess, m.config.AccessTokenExpire)
}

func (m *JWTManager) CreateRefreshToken(subject, companyID string) (IssuedToken, error) {
	return m.issue(subject, companyID, "type", TypeRefresh, m.config.RefreshTokenExpire)
}

func (m *JWTManager) CreateVerificationToken(subject string) (IssuedToken, error) {
	return m.issue(subject, "", "purpose", PurposeVerification, m.config.VerificationExpire)
}

func (m *JWTManager) CreatePasswordResetToken(subject, companyID string) (IssuedToken, error) {
	return m.issue(subject, companyID, "purpose", PurposePasswordReset, m.config.ResetExpire)
}

func (m *JWTManager) issue(
	subject, companyID, discriminator, value string,
	ttl time.Duration,
) (IssuedToken, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(subject).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim(discriminator, value)
	if companyID != "" {
		builder = builder.Claim("company_id", companyID)
	}

	token, err := builder.Build()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return IssuedToken{Token: string(signed), ExpiresAt: expiresAt}, nil
}

// Decode verifies signature, expiry, issuer and audience, then checks the
// discriminator named by expect. Every failure is reported the same way.
func (m *JWTManager) Decode(tokenString string, expect Expect) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		return nil, core.TokenInvalidError()
	}

	claims := &Claims{}

	//nolint:errcheck // absent claims leave the zero value, checked below
	_ = token.Get("type", &claims.Type)
	//nolint:errcheck // see above
	_ = token.Get("purpose", &claims.Purpose)
	//nolint:errcheck // see above
	_ = token.Get("company_id", &claims.CompanyID)

	switch {
	case expect.Type != "" && claims.Type != expect.Type:
		return nil, core.TokenInvalidError()
	case expect.Purpose != "" && claims.Purpose != expect.Purpose:
		return nil, core.TokenInvalidError()
	case expect.Type == "" && expect.Purpose == "":
		return nil, core.TokenInvalidError()
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, core.TokenInvalidError()
	}
	claims.Subject = subject

	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}

func (m *JWTManager) GetKeyID() string {
	var kid string
	//nolint:errcheck // key ID always set during NewJWTManagerFromPEM
	_ = m.privateKey.Get(jwk.KeyIDKey, &kid)
	return kid
}
