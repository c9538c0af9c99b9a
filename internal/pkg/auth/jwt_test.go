package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			Issuer:             "caster-store-test",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateAccessToken(Principal{UserID: 7, Email: "kim@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "kim@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.Principal().IsAdmin())
}

func TestValidateTokenRejects(t *testing.T) {
	cfg := testConfig()
	m := NewJWTManager(cfg)

	other := testConfig()
	other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
	forged, err := NewJWTManager(other).GenerateAccessToken(Principal{UserID: 1, Email: "a@b.c", Role: RoleAdmin})
	require.NoError(t, err)

	expiredManager := NewJWTManager(cfg)
	expiredManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredManager.GenerateAccessToken(Principal{UserID: 1, Email: "a@b.c", Role: RoleCustomer})
	require.NoError(t, err)

	refresh, err := m.GenerateRefreshToken(1, "a@b.c")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: 1, Role: RoleAdmin, TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "wrong secret", token: forged, wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "refresh used as access", token: refresh, wantErr: ErrInvalidToken},
		{name: "alg none", token: unsigned, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not-a-token", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateRefreshToken(3, "lee@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer "))
}

func TestPrincipal(t *testing.T) {
	var anonymous *Principal
	assert.False(t, anonymous.IsAdmin())

	uid := uint(5)
	p := &Principal{UserID: 5, Role: RoleCustomer}
	assert.False(t, p.IsAdmin())
	assert.True(t, p.Owns(&uid))
	assert.False(t, p.Owns(nil))
}
