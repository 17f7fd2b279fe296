package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sentry/pkg/domain-errors"
)

var issuer = NewJWTService("test-signing-key", "sentry-test")

func TestGenerateAndValidate(t *testing.T) {
	token, err := issuer.GenerateToken("partner-a", []string{ScopeRegistryRead, ScopeBulkScan}, time.Hour)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "partner-a", claims.Subject)
	assert.True(t, claims.HasScope(ScopeBulkScan))
	assert.False(t, claims.HasScope("registry:write"))
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateRejects(t *testing.T) {
	mint := func(svc *JWTService, ttl time.Duration) string {
		tok, err := svc.GenerateToken("partner-a", nil, ttl)
		require.NoError(t, err)
		return tok
	}
	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"expired":      mint(issuer, -time.Hour),
		"wrong key":    mint(NewJWTService("another-key", "sentry-test"), time.Hour),
		"wrong issuer": mint(NewJWTService("test-signing-key", "someone-else"), time.Hour),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
		})
	}
}

func TestAdapterExposesScopes(t *testing.T) {
	token, err := issuer.GenerateToken("partner-b", []string{ScopeRegistryRead}, time.Hour)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(issuer).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "partner-b", claims.Subject)
	assert.Equal(t, []string{ScopeRegistryRead}, claims.Scopes)
}
