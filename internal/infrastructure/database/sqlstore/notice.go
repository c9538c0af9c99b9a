package sqlstore

import (
	"context"

	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/pkg/pagination"
	"gorm.io/gorm"
)

// NoticeRepository implements notice.Repository
type NoticeRepository struct {
	db *gorm.DB
}

var _ notice.Repository = (*NoticeRepository)(nil)

func (r *NoticeRepository) List(ctx context.Context, f notice.ListFilter) ([]notice.Notice, int64, error) {
	query := r.db.WithContext(ctx).Model(&notice.Notice{})
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notices []notice.Notice
	err := query.
		Order("is_pinned DESC, created_at DESC, id DESC").
		Offset(pagination.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&notices).Error
	return notices, total, err
}

func (r *NoticeRepository) GetByID(ctx context.Context, id uint) (*notice.Notice, error) {
	var n notice.Notice
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, translate(err, notice.ErrNoticeNotFound, nil)
	}
	return &n, nil
}

func (r *NoticeRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&notice.Notice{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *NoticeRepository) Create(ctx context.Context, n *notice.Notice) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NoticeRepository) Update(ctx context.Context, n *notice.Notice) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *NoticeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&notice.Notice{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notice.ErrNoticeNotFound
	}
	return nil
}
