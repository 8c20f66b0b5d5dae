package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

func newTestAuthService(ttl time.Duration) *AuthService {
	return NewAuthService(AuthConfig{
		Secret: "test-secret",
		TTL:    ttl,
		Passwords: map[string]string{
			"Super Admin": "superadmin123",
			"Library":     "library123",
		},
	}, nil, nil)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	token, err := svc.Login(models.LoginRequest{Department: "Library", Password: "library123"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "Library", claims.Department)
	assert.Equal(t, "Library", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginRejectsMissingFields(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.Login(models.LoginRequest{Department: "Library"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(models.LoginRequest{Password: "library123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsUnknownDepartment(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.Login(models.LoginRequest{Department: "Canteen", Password: "anything"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Equal(t, "invalid department", appErr.Message)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.Login(models.LoginRequest{Department: "Library", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Equal(t, "invalid password", appErr.Message)
}

func TestLoginAcceptsBcryptHashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hostel123"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{
		Secret:    "test-secret",
		TTL:       time.Hour,
		Passwords: map[string]string{"Hostel": string(hash)},
	}, nil, nil)

	token, err := svc.Login(models.LoginRequest{Department: "Hostel", Password: "hostel123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login(models.LoginRequest{Department: "Hostel", Password: "hostel124"})
	require.Error(t, err)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.Verify("")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.Verify("not.a.jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsWrongSignature(t *testing.T) {
	issuer := newTestAuthService(time.Hour)
	token, err := issuer.Login(models.LoginRequest{Department: "Library", Password: "library123"})
	require.NoError(t, err)

	verifier := NewAuthService(AuthConfig{
		Secret:    "different-secret",
		TTL:       time.Hour,
		Passwords: map[string]string{},
	}, nil, nil)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService(-time.Minute)

	token, err := svc.Login(models.LoginRequest{Department: "Library", Password: "library123"})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{
		Department: "Library",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
