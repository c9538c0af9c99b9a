package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	var (
		u  user.User
		ok bool
	)
	r.db.read(func(d *dataset) { u, ok = d.users[id] })
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	var (
		found user.User
		ok    bool
	)
	r.db.read(func(d *dataset) {
		for _, u := range d.users {
			if u.Email == email {
				found, ok = u, true
				return
			}
		}
	})
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &found, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	return r.db.write(func(d *dataset) error {
		for _, existing := range d.users {
			if existing.Email == u.Email {
				return user.ErrEmailTaken
			}
		}
		now := r.db.timestamp()
		u.ID = d.nextID("users")
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.db.write(func(d *dataset) error {
		if _, ok := d.users[u.ID]; !ok {
			return user.ErrUserNotFound
		}
		u.UpdatedAt = r.db.timestamp()
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.write(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		u.LastLoginAt = &at
		d.users[id] = u
		return nil
	})
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	r.db.read(func(d *dataset) { n = int64(len(d.users)) })
	return n, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]user.User, int64, error) {
	search := strings.ToLower(filter.Search)
	var matched []user.User
	r.db.read(func(d *dataset) {
		for _, u := range d.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(u.FullName), search) &&
				!strings.Contains(strings.ToLower(u.Email), search) {
				continue
			}
			matched = append(matched, u)
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := pagination.Window(filter.Page, filter.Limit, len(matched))
	return matched[start:end], int64(len(matched)), nil
}
