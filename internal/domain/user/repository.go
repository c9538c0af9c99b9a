package user

import (
	"context"
	"time"

	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

var (
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "user with this email already exists")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrInvalidRefresh     = apperror.New(apperror.KindUnauthorized, "invalid refresh token")
	ErrForbidden          = apperror.New(apperror.KindForbidden, "admin access required")
)

// ListFilter narrows an admin user listing. Page and Limit are normalized.
type ListFilter struct {
	Page   int
	Limit  int
	Search string
	Role   auth.Role
}

// Repository persists users
type Repository interface {
	GetByID(ctx context.Context, id uint) (*User, error)
	// GetByEmail matches the normalized email
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
	// List returns one page, newest first, with the total match count
	List(ctx context.Context, filter ListFilter) ([]User, int64, error)
}
