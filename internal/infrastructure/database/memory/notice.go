package memory

import (
	"context"
	"sort"

	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// NoticeRepository implements notice.Repository
type NoticeRepository struct {
	db *DB
}

var _ notice.Repository = (*NoticeRepository)(nil)

func (r *NoticeRepository) List(ctx context.Context, f notice.ListFilter) ([]notice.Notice, int64, error) {
	var out []notice.Notice
	r.db.read(func(d *dataset) {
		for _, n := range d.notices {
			if f.Category == "" || n.Category == f.Category {
				out = append(out, n)
			}
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := int64(len(out))
	start, end := pagination.Window(f.Page, f.Limit, len(out))
	return out[start:end], total, nil
}

func (r *NoticeRepository) GetByID(ctx context.Context, id uint) (*notice.Notice, error) {
	var (
		n  notice.Notice
		ok bool
	)
	r.db.read(func(d *dataset) { n, ok = d.notices[id] })
	if !ok {
		return nil, notice.ErrNoticeNotFound
	}
	return &n, nil
}

func (r *NoticeRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.write(func(d *dataset) error {
		n, ok := d.notices[id]
		if !ok {
			return notice.ErrNoticeNotFound
		}
		n.Views++
		d.notices[id] = n
		return nil
	})
}

func (r *NoticeRepository) Create(ctx context.Context, n *notice.Notice) error {
	return r.db.write(func(d *dataset) error {
		now := r.db.timestamp()
		n.ID = d.nextID("notices")
		n.CreatedAt, n.UpdatedAt = now, now
		d.notices[n.ID] = *n
		return nil
	})
}

func (r *NoticeRepository) Update(ctx context.Context, n *notice.Notice) error {
	return r.db.write(func(d *dataset) error {
		if _, ok := d.notices[n.ID]; !ok {
			return notice.ErrNoticeNotFound
		}
		n.UpdatedAt = r.db.timestamp()
		d.notices[n.ID] = *n
		return nil
	})
}

func (r *NoticeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.write(func(d *dataset) error {
		if _, ok := d.notices[id]; !ok {
			return notice.ErrNoticeNotFound
		}
		delete(d.notices, id)
		return nil
	})
}
