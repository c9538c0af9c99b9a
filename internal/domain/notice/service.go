// internal/domain/notice/service.go
package notice

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

var ErrForbidden = apperror.New(apperror.KindForbidden, "admin access required")

// Service handles the notice board
type Service struct {
	repo Repository
}

// NewService creates a new notice service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRequest represents notice list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"`
}

// ListResponse is a page of notices
type ListResponse struct {
	Notices    []Notice              `json:"notices"`
	Pagination pagination.Pagination `json:"pagination"`
}

// CreateRequest represents notice creation data
type CreateRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"required,max=50"`
	Author   string `json:"author"`
	IsPinned bool   `json:"is_pinned"`
}

// UpdateRequest represents a partial notice update
type UpdateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Author   *string `json:"author"`
	IsPinned *bool   `json:"is_pinned"`
}

// ListNotices returns pinned notices first, then newest
func (s *Service) ListNotices(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	notices, total, err := s.repo.List(ctx, ListFilter{
		Page:     page,
		Limit:    limit,
		Category: strings.TrimSpace(req.Category),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}

	return &ListResponse{
		Notices:    notices,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetNotice returns a notice and counts the view
func (s *Service) GetNotice(ctx context.Context, id uint) (*Notice, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		logrus.WithError(err).WithField("notice_id", id).Warn("Failed to count notice view")
	} else {
		n.Views++
	}

	return n, nil
}

// CreateNotice publishes a notice. The author defaults to the admin's email.
func (s *Service) CreateNotice(ctx context.Context, principal *auth.Principal, req *CreateRequest) (*Notice, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	n := &Notice{
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
		Category: strings.TrimSpace(req.Category),
		Author:   strings.TrimSpace(req.Author),
		IsPinned: req.IsPinned,
	}
	if n.Title == "" || n.Content == "" || n.Category == "" {
		return nil, apperror.Validation("title, content and category are required")
	}
	if n.Author == "" {
		n.Author = principal.Email
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notice: %w", err)
	}
	return n, nil
}

// UpdateNotice applies a partial update
func (s *Service) UpdateNotice(ctx context.Context, principal *auth.Principal, id uint, req *UpdateRequest) (*Notice, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			return apperror.Validation("%s must not be empty", field)
		}
		*dst = v
		return nil
	}
	if err := set(&n.Title, req.Title, "title"); err != nil {
		return nil, err
	}
	if err := set(&n.Content, req.Content, "content"); err != nil {
		return nil, err
	}
	if err := set(&n.Category, req.Category, "category"); err != nil {
		return nil, err
	}
	if req.Author != nil {
		n.Author = strings.TrimSpace(*req.Author)
	}
	if req.IsPinned != nil {
		n.IsPinned = *req.IsPinned
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update notice: %w", err)
	}
	return n, nil
}

// DeleteNotice removes a notice
func (s *Service) DeleteNotice(ctx context.Context, principal *auth.Principal, id uint) error {
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// TogglePin flips the pinned flag
func (s *Service) TogglePin(ctx context.Context, principal *auth.Principal, id uint) (*Notice, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n.IsPinned = !n.IsPinned

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update notice: %w", err)
	}
	return n, nil
}
