package service

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

// AuthConfig configures admin session issuance.
type AuthConfig struct {
	Secret    string
	TTL       time.Duration
	Passwords map[string]string
}

// AuthService is the session guard: it checks department credentials and
// issues/verifies the signed, time-limited session tokens that authorize
// mutations. Sessions are stateless; there is no server-side revocation.
type AuthService struct {
	config    AuthConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs the guard.
func NewAuthService(cfg AuthConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{config: cfg, validator: validate, logger: logger}
}

// Login verifies the department credentials and issues a session token.
// Unknown departments and wrong passwords both come back as Unauthorized;
// only the missing-field case is a validation error.
func (s *AuthService) Login(req models.LoginRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			"department and password are required")
	}

	expected, ok := s.config.Passwords[req.Department]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid department")
	}
	if !passwordMatches(expected, req.Password) {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid password")
	}

	token, err := s.issueToken(req.Department)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			"failed to sign session token")
	}

	s.logger.Info("admin login", zap.String("department", req.Department))
	return token, nil
}

// Verify parses and validates a session token, returning its claims.
// Absent, malformed, mis-signed and expired tokens are all Unauthorized.
func (s *AuthService) Verify(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, appErrors.ErrUnauthorized
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

// TTL exposes the configured session lifetime for cookie MaxAge.
func (s *AuthService) TTL() time.Duration {
	return s.config.TTL
}

func (s *AuthService) issueToken(department string) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.SessionClaims{
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   department,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// passwordMatches compares the supplied password against the configured
// value: bcrypt when the stored value is a bcrypt hash, constant-time
// string equality otherwise.
func passwordMatches(expected, supplied string) bool {
	if strings.HasPrefix(expected, "$2a$") || strings.HasPrefix(expected, "$2b$") || strings.HasPrefix(expected, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
