package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("test-secret"), AccessTokenTTL: time.Hour}

	token, expiresIn, err := GenerateAccessToken(cfg, "laptop-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := ValidateAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "laptop-1", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestGenerateAccessToken_EmptySubject(t *testing.T) {
	_, _, err := GenerateAccessToken(JWTConfig{Secret: []byte("s"), AccessTokenTTL: time.Hour}, "")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("test-secret"), AccessTokenTTL: time.Hour}

	expired, _, err := GenerateAccessToken(JWTConfig{Secret: cfg.Secret, AccessTokenTTL: -time.Minute}, "laptop-1")
	require.NoError(t, err)

	foreign, _, err := GenerateAccessToken(JWTConfig{Secret: []byte("other"), AccessTokenTTL: time.Hour}, "laptop-1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "laptop-1",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "none algorithm", token: noneToken},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAccessToken(cfg, tt.token)
			assert.Error(t, err)
		})
	}
}
