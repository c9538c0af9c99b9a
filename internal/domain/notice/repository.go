package notice

import (
	"context"

	"github.com/your-org/caster-store/internal/pkg/apperror"
)

var ErrNoticeNotFound = apperror.New(apperror.KindNotFound, "notice not found")

// ListFilter is a normalized notice query
type ListFilter struct {
	Page     int
	Limit    int
	Category string
}

// Repository persists notices
type Repository interface {
	// List orders pinned notices first, then newest first
	List(ctx context.Context, filter ListFilter) ([]Notice, int64, error)
	GetByID(ctx context.Context, id uint) (*Notice, error)
	IncrementViews(ctx context.Context, id uint) error
	Create(ctx context.Context, n *Notice) error
	Update(ctx context.Context, n *Notice) error
	Delete(ctx context.Context, id uint) error
}
