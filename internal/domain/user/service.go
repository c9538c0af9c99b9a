// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// Service handles user business logic
type Service struct {
	repo            Repository
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	now             func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository, passwords *auth.PasswordManager, tokens *auth.JWTManager) *Service {
	return &Service{
		repo:            repo,
		passwordManager: passwords,
		jwtManager:      tokens,
		now:             time.Now,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FullName        string `json:"full_name" binding:"required"`
	Phone           string `json:"phone"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// SessionID is the anonymous cart to merge after login
	SessionID string `json:"session_id"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Register creates a new customer account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperror.Validation("passwords do not match")
	}
	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		Email:       email,
		Password:    hashedPassword,
		FullName:    strings.TrimSpace(req.FullName),
		Phone:       strings.TrimSpace(req.Phone),
		Role:        auth.RoleCustomer,
		IsActive:    true,
		LastLoginAt: &now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("User registered")

	return s.issue(user)
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	user.LastLoginAt = &now

	return s.issue(user)
}

// RefreshToken exchanges a refresh token for a new token pair. The role is
// reloaded from the user record.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, ErrInvalidRefresh.Error())
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidRefresh
	}

	return s.issue(user)
}

// GetProfile gets the active user by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsersRequest represents admin user list query parameters
type ListUsersRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Role   string `form:"role"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []User                `json:"users"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ListUsers lists accounts for the admin console, newest first. Admin only.
func (s *Service) ListUsers(ctx context.Context, principal *auth.Principal, req *ListUsersRequest) (*UserListResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	page, limit := pagination.Normalize(req.Page, req.Limit)
	filter := ListFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(req.Search),
	}
	if req.Role != "" {
		role := auth.Role(strings.ToLower(strings.TrimSpace(req.Role)))
		if !role.Valid() {
			return nil, apperror.Validation("role must be customer or admin")
		}
		filter.Role = role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []User{}
	}

	return &UserListResponse{
		Users:      users,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// EnsureAdmin creates the admin account when it does not exist yet, or
// promotes an existing account with that email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("admin email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == auth.RoleAdmin {
			return user, nil
		}
		user.Role = auth.RoleAdmin
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	hashedPassword, err := s.passwordManager.HashPassword(password)
	if err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}

	user = &User{
		Email:    email,
		Password: hashedPassword,
		FullName: "Administrator",
		Role:     auth.RoleAdmin,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	logrus.WithField("email", email).Info("Admin account created")
	return user, nil
}

func (s *Service) issue(user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.Principal())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.AccessTokenExpiry().Seconds()),
	}, nil
}
