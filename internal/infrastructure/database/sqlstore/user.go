package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/pkg/pagination"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, user.ErrUserNotFound, nil)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("email = ?", user.NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, translate(err, user.ErrUserNotFound, nil)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, nil, user.ErrEmailTaken)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Save(u).Error, nil, user.ErrEmailTaken)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]user.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&user.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []user.User
	err := query.Order("created_at DESC, id DESC").
		Offset(pagination.Offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&users).Error
	return users, total, err
}
