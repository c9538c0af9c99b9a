package notice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/infrastructure/database/memory"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

var (
	admin    = &auth.Principal{UserID: 1, Email: "admin@example.com", Role: auth.RoleAdmin}
	customer = &auth.Principal{UserID: 2, Email: "buyer@example.com", Role: auth.RoleCustomer}
)

func TestNoticeLifecycle(t *testing.T) {
	svc := notice.NewService(memory.New().Notices())
	ctx := context.Background()

	_, err := svc.CreateNotice(ctx, customer, &notice.CreateRequest{Title: "t", Content: "c", Category: "news"})
	assert.ErrorIs(t, err, notice.ErrForbidden)

	_, err = svc.CreateNotice(ctx, admin, &notice.CreateRequest{Title: " ", Content: "c", Category: "news"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	first, err := svc.CreateNotice(ctx, admin, &notice.CreateRequest{Title: "Holiday hours", Content: "Closed on the 3rd", Category: "news"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", first.Author)

	pinned, err := svc.CreateNotice(ctx, admin, &notice.CreateRequest{Title: "Shipping delays", Content: "Expect two extra days", Category: "shipping", Author: "Ops", IsPinned: true})
	require.NoError(t, err)
	assert.Equal(t, "Ops", pinned.Author)

	list, err := svc.ListNotices(ctx, &notice.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Notices, 2)
	assert.Equal(t, pinned.ID, list.Notices[0].ID)

	news, err := svc.ListNotices(ctx, &notice.ListRequest{Category: "news"})
	require.NoError(t, err)
	require.Len(t, news.Notices, 1)
	assert.Equal(t, first.ID, news.Notices[0].ID)

	viewed, err := svc.GetNotice(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), viewed.Views)
	viewed, err = svc.GetNotice(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), viewed.Views)

	title := "Holiday hours (updated)"
	updated, err := svc.UpdateNotice(ctx, admin, first.ID, &notice.UpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Closed on the 3rd", updated.Content)

	blank := ""
	_, err = svc.UpdateNotice(ctx, admin, first.ID, &notice.UpdateRequest{Content: &blank})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateNotice(ctx, customer, first.ID, &notice.UpdateRequest{Title: &title})
	assert.ErrorIs(t, err, notice.ErrForbidden)

	toggled, err := svc.TogglePin(ctx, admin, first.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPinned)
	toggled, err = svc.TogglePin(ctx, admin, pinned.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPinned)

	list, err = svc.ListNotices(ctx, &notice.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, list.Notices[0].ID)

	assert.ErrorIs(t, svc.DeleteNotice(ctx, customer, first.ID), notice.ErrForbidden)
	require.NoError(t, svc.DeleteNotice(ctx, admin, first.ID))

	_, err = svc.GetNotice(ctx, first.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.DeleteNotice(ctx, admin, first.ID)))
}
