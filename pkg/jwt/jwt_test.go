package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-access-secret-key-for-testing-purposes"
	testIssuer = "smarttransit-booking"
)

func testIdentity() Identity {
	return Identity{
		Email: "Asha@Example.com",
		Name:  "Asha",
		Phone: "9876543210",
		Roles: []string{RolePassenger},
	}
}

func TestNewService(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, testIssuer, service.issuer)
	assert.Equal(t, time.Hour, service.accessTokenExpiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	token, err := service.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, "9876543210", claims.Phone)
	assert.Equal(t, []string{RolePassenger}, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, "asha@example.com", claims.Subject)

	_, err = service.GenerateAccessToken(Identity{Name: "No Email"})
	assert.Error(t, err)
}

func TestValidateAccessToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	token, err := service.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	t.Run("invalid token", func(t *testing.T) {
		_, err := service.ValidateAccessToken("invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewService("wrong-secret", testIssuer, time.Hour).ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewService(testSecret, "someone-else", time.Hour).ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong token type", func(t *testing.T) {
		claims := Claims{
			Email:     "asha@example.com",
			TokenType: TokenType("refresh"),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    testIssuer,
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(signed)
		assert.ErrorContains(t, err, "invalid token type")
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{Email: "asha@example.com", TokenType: AccessToken}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(signed)
		assert.Error(t, err)
	})
}

func TestIsExpired(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	t.Run("expired token", func(t *testing.T) {
		old, err := NewService(testSecret, testIssuer, -time.Minute).GenerateAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(old)
		require.Error(t, err)
		assert.True(t, IsExpired(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.ValidateAccessToken("garbage")
		require.Error(t, err)
		assert.False(t, IsExpired(err))
	})

	t.Run("expired token with forged signature", func(t *testing.T) {
		old, err := NewService("attacker-secret", testIssuer, -time.Minute).GenerateAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(old)
		require.Error(t, err)
		assert.False(t, IsExpired(err))
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := service.GenerateAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.False(t, IsExpired(err))
	})
}

func TestClaims_HasRole(t *testing.T) {
	c := &Claims{Roles: []string{RoleConductor}}
	assert.True(t, c.HasRole(RoleAdmin, RoleConductor))
	assert.False(t, c.HasRole(RoleAdmin))
}
