package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms/backend/internal/infrastructure/config"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-that-is-long-enough-32ch",
		AccessTokenExpiration: expiration,
		Issuer:                "wms-backend-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	t.Run("round-trips claims", func(t *testing.T) {
		svc := newTestService(15 * time.Minute)
		userID := uuid.New()

		token, expiresAt, err := svc.GenerateToken(userID, "warehouse-clerk")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "warehouse-clerk", claims.Username)
		assert.Equal(t, "wms-backend-test", claims.Issuer)

		parsed, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, parsed)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		svc := newTestService(-1 * time.Minute)

		token, _, err := svc.GenerateToken(uuid.New(), "clerk")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		svc := newTestService(15 * time.Minute)
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-that-is-long-enough-32",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "wms-backend-test",
		})

		token, _, err := other.GenerateToken(uuid.New(), "clerk")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects unexpected signing method", func(t *testing.T) {
		svc := newTestService(15 * time.Minute)

		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New().String()})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token without user id", func(t *testing.T) {
		svc := newTestService(15 * time.Minute)

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		})
		signed, err := token.SignedString([]byte("test-secret-that-is-long-enough-32ch"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("garbage input is invalid", func(t *testing.T) {
		svc := newTestService(15 * time.Minute)

		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	svc := newTestService(10 * time.Minute)

	token, _, err := svc.GenerateToken(uuid.New(), "clerk")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	ttl := claims.GetRemainingTTL()
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}
