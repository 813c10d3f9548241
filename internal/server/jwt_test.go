package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "ada@student.dev", db.RoleStudent)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ada@student.dev", claims.Email)
	assert.Equal(t, db.RoleStudent, claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)

	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, "student", claims.GetRole())
}

func TestValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{
			Secret:          "some-other-secret-value",
			ExpirationHours: 1,
		})
		token, err := other.GenerateToken(uuid.New(), "ada@student.dev", db.RoleStudent)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		userID := uuid.New()
		claims := &Claims{
			UserID: userID,
			Email:  "ada@student.dev",
			Role:   db.RoleStudent,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("test-secret-key-0123456789"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("wrong signing method", func(t *testing.T) {
		// alg=none tokens must be rejected outright.
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: uuid.NewString()})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestAsTokenValidator(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "ada@student.dev", db.RoleStartup)
	require.NoError(t, err)

	claims, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, "startup", claims.GetRole())
}
