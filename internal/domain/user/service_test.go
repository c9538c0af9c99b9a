package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/config"
	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/infrastructure/database/memory"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

func newUserService(t *testing.T) (*user.Service, *auth.JWTManager, *memory.DB) {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			Issuer:             "caster-store-test",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
	db := memory.New()
	tokens := auth.NewJWTManager(cfg)
	return user.NewService(db.Users(), auth.NewPasswordManager(cfg), tokens), tokens, db
}

func registration(email string) *user.RegisterRequest {
	return &user.RegisterRequest{
		Email:           email,
		Password:        "Casters2024",
		ConfirmPassword: "Casters2024",
		FullName:        " Sam Park ",
	}
}

func TestRegister(t *testing.T) {
	svc, tokens, _ := newUserService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registration("  Sam@Example.COM "))
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", resp.User.Email)
	assert.Equal(t, "Sam Park", resp.User.FullName)
	assert.Equal(t, auth.RoleCustomer, resp.User.Role)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.NotEqual(t, "Casters2024", resp.User.Password)

	claims, err := tokens.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, auth.RoleCustomer, claims.Role)

	_, err = svc.Register(ctx, registration("sam@example.com"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newUserService(t)

	tests := []struct {
		name   string
		mutate func(r *user.RegisterRequest)
	}{
		{"bad email", func(r *user.RegisterRequest) { r.Email = "not-an-email" }},
		{"mismatch", func(r *user.RegisterRequest) { r.ConfirmPassword = "Different99" }},
		{"short", func(r *user.RegisterRequest) { r.Password, r.ConfirmPassword = "ab1", "ab1" }},
		{"no digits", func(r *user.RegisterRequest) { r.Password, r.ConfirmPassword = "onlyletters", "onlyletters" }},
		{"common", func(r *user.RegisterRequest) { r.Password, r.ConfirmPassword = "password123", "password123" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registration("v@example.com")
			tt.mutate(req)
			_, err := svc.Register(context.Background(), req)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, db := newUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registration("login@example.com"))
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &user.LoginRequest{Email: "LOGIN@example.com", Password: "Casters2024"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "login@example.com", Password: "Wrong12345"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "nobody@example.com", Password: "Casters2024"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	u, err := db.Users().GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, db.Users().Update(ctx, u))

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "login@example.com", Password: "Casters2024"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.GetProfile(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRefreshToken(t *testing.T) {
	svc, tokens, db := newUserService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registration("refresh@example.com"))
	require.NoError(t, err)

	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	_, err = svc.RefreshToken(ctx, "garbage")
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	u, err := db.Users().GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	u.Role = auth.RoleAdmin
	require.NoError(t, db.Users().Update(ctx, u))

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "Admin@Example.com", "Adm1nSecret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)

	again, err := svc.EnsureAdmin(ctx, "admin@example.com", "Adm1nSecret")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	customer, err := svc.Register(ctx, registration("promote@example.com"))
	require.NoError(t, err)
	promoted, err := svc.EnsureAdmin(ctx, "promote@example.com", "Adm1nSecret")
	require.NoError(t, err)
	assert.Equal(t, customer.User.ID, promoted.ID)
	assert.Equal(t, auth.RoleAdmin, promoted.Role)

	_, err = svc.EnsureAdmin(ctx, "", "x")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	login, err := svc.Login(ctx, &user.LoginRequest{Email: "admin@example.com", Password: "Adm1nSecret"})
	require.NoError(t, err)
	principal := login.User.Principal()
	assert.True(t, principal.IsAdmin())
}

func TestListUsers(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "admin@example.com", "Adm1nSecret")
	require.NoError(t, err)
	for _, name := range []string{"Mina Kim", "Joon Lee", "Hana Kim"} {
		req := registration(strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com")
		req.FullName = name
		_, err := svc.Register(ctx, req)
		require.NoError(t, err)
	}
	adminPrincipal := admin.Principal()
	principal := &adminPrincipal

	tests := []struct {
		name      string
		req       user.ListUsersRequest
		wantNames []string
		wantTotal int64
	}{
		{"all newest first", user.ListUsersRequest{}, []string{"Hana Kim", "Joon Lee", "Mina Kim", "Administrator"}, 4},
		{"search by name", user.ListUsersRequest{Search: " kim "}, []string{"Hana Kim", "Mina Kim"}, 2},
		{"search by email", user.ListUsersRequest{Search: "JOON.LEE@"}, []string{"Joon Lee"}, 1},
		{"role filter", user.ListUsersRequest{Role: "Admin"}, []string{"Administrator"}, 1},
		{"second page", user.ListUsersRequest{Page: 2, Limit: 3}, []string{"Administrator"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListUsers(ctx, principal, &tt.req)
			require.NoError(t, err)

			names := make([]string, 0, len(resp.Users))
			for _, u := range resp.Users {
				names = append(names, u.FullName)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, resp.Pagination.Total)
		})
	}

	resp, err := svc.ListUsers(ctx, principal, &user.ListUsersRequest{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.Limit)

	_, err = svc.ListUsers(ctx, principal, &user.ListUsersRequest{Role: "owner"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	customer := &auth.Principal{UserID: 2, Role: auth.RoleCustomer}
	_, err = svc.ListUsers(ctx, customer, &user.ListUsersRequest{})
	assert.ErrorIs(t, err, user.ErrForbidden)
	_, err = svc.ListUsers(ctx, nil, &user.ListUsersRequest{})
	assert.ErrorIs(t, err, user.ErrForbidden)
}
