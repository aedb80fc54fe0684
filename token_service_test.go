package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssuePair(t *testing.T) {
	service := newTestTokenService(time.Minute*15, time.Hour*24*7)
	subject := testIdentity{id: "user-123", username: "tester", email: "tester@example.com"}

	pair, err := service.IssuePair(subject)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	t.Run("access token resolves to the same identity", func(t *testing.T) {
		claims, err := service.Validate(pair.Access)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, identity.TokenUseAccess, claims.Use())
	})

	t.Run("refresh token carries a revocation id", func(t *testing.T) {
		claims, err := service.VerifyRefresh(pair.Refresh)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, identity.TokenUseRefresh, claims.Use())
		assert.NotEmpty(t, claims.TokenID())
	})

	t.Run("refresh outlives access", func(t *testing.T) {
		access, err := service.Validate(pair.Access)
		require.NoError(t, err)
		refresh, err := service.VerifyRefresh(pair.Refresh)
		require.NoError(t, err)
		assert.True(t, refresh.Expires().After(access.Expires()))
	})

	t.Run("pairs are unique per issuance", func(t *testing.T) {
		second, err := service.IssuePair(subject)
		require.NoError(t, err)

		first, err := service.VerifyRefresh(pair.Refresh)
		require.NoError(t, err)
		other, err := service.VerifyRefresh(second.Refresh)
		require.NoError(t, err)

		assert.NotEqual(t, first.TokenID(), other.TokenID())
	})
}

func TestTokenService_Validate(t *testing.T) {
	service := newTestTokenService(time.Minute*15, time.Hour)
	subject := testIdentity{id: "user-123"}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not-a-token")
		assert.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		expired := newTestTokenService(-time.Minute, time.Hour)
		token, err := expired.IssueAccess(subject)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, identity.ErrTokenExpired)
	})

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		other := identity.NewTokenService([]byte("other-key"), time.Minute*15, time.Hour, "test-issuer", nil, nil)
		token, err := other.IssueAccess(subject)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("rejects a refresh token presented as access", func(t *testing.T) {
		pair, err := service.IssuePair(subject)
		require.NoError(t, err)

		_, err = service.Validate(pair.Refresh)
		assert.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("rejects an access token presented as refresh", func(t *testing.T) {
		pair, err := service.IssuePair(subject)
		require.NoError(t, err)

		_, err = service.VerifyRefresh(pair.Access)
		assert.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})
}

func TestTokenService_ClaimsShape(t *testing.T) {
	service := newTestTokenService(time.Minute*15, time.Hour)
	subject := testIdentity{id: "user-123"}

	token, err := service.IssueAccess(subject)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &identity.JWTClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(testSigningKey), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*identity.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.UID)
	assert.Equal(t, "user-123", claims.RegisteredClaims.Subject)
	assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
	assert.NotNil(t, claims.RegisteredClaims.IssuedAt)
	assert.NotNil(t, claims.RegisteredClaims.ExpiresAt)
}
