// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

// Service handles cart business logic
type Service struct {
	repo     Repository
	products product.Repository
}

// NewService creates a new cart service
func NewService(repo Repository, products product.Repository) *Service {
	return &Service{
		repo:     repo,
		products: products,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetCart renders the owner's cart. Lines whose product is no longer
// published are left out.
func (s *Service) GetCart(ctx context.Context, owner Owner) (*CartResponse, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	resp := &CartResponse{
		UserID:     owner.UserID,
		SessionID:  owner.SessionID,
		Items:      []CartItemResponse{},
		Subtotal:   decimal.Zero,
		AllInStock: true,
	}

	c, err := s.repo.FindCart(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	items, err := s.repo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	for _, item := range items {
		p := item.Product
		if p == nil || !p.IsPublished {
			continue
		}
		line := CartItemResponse{
			ProductID:     p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			Slug:          p.Slug,
			MainImage:     p.MainImage,
			Price:         p.Price,
			Quantity:      item.Quantity,
			LineTotal:     p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			StockQuantity: p.StockQuantity,
			InStock:       p.InStock(item.Quantity),
			AddedAt:       item.CreatedAt,
		}
		resp.Items = append(resp.Items, line)
		resp.ItemCount++
		resp.TotalQuantity += item.Quantity
		resp.Subtotal = resp.Subtotal.Add(line.LineTotal)
		resp.AllInStock = resp.AllInStock && line.InStock
	}

	return resp, nil
}

// AddItem adds quantity of a product, merging with an existing line
func (s *Service) AddItem(ctx context.Context, owner Owner, req *AddToCartRequest) (*CartResponse, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	p, err := s.publishedProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item, err := s.repo.GetItem(ctx, c.ID, p.ID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		item = &CartItem{CartID: c.ID, ProductID: p.ID}
	case err != nil:
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}

	newQuantity := item.Quantity + req.Quantity
	if !p.InStock(newQuantity) {
		return nil, &product.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   newQuantity,
			Available:   p.StockQuantity,
		}
	}

	item.Quantity = newQuantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save cart item: %w", err)
	}

	return s.GetCart(ctx, owner)
}

// UpdateItem sets the quantity of an existing line; zero removes it
func (s *Service) UpdateItem(ctx context.Context, owner Owner, productID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, apperror.Validation("quantity cannot be negative")
	}

	c, err := s.repo.FindCart(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item, err := s.repo.GetItem(ctx, c.ID, productID)
	if err != nil {
		return nil, err
	}

	if req.Quantity == 0 {
		if err := s.repo.DeleteItem(ctx, c.ID, productID); err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return s.GetCart(ctx, owner)
	}

	p, err := s.publishedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock(req.Quantity) {
		return nil, &product.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   req.Quantity,
			Available:   p.StockQuantity,
		}
	}

	item.Quantity = req.Quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(ctx, owner)
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID uint) (*CartResponse, error) {
	return s.UpdateItem(ctx, owner, productID, &UpdateCartItemRequest{Quantity: 0})
}

// ClearCart removes every line from the owner's cart
func (s *Service) ClearCart(ctx context.Context, owner Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	c, err := s.repo.FindCart(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	if err := s.repo.ClearItems(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Snapshot returns the owner's lines for checkout. It skips the same lines
// GetCart hides, so checkout orders exactly what the customer sees.
func (s *Service) Snapshot(ctx context.Context, owner Owner) ([]Line, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.FindCart(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items, err := s.repo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsPublished {
			continue
		}
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}

// MergeGuestCart moves a session cart into the user's cart after login.
// Quantities are summed and capped at current stock.
func (s *Service) MergeGuestCart(ctx context.Context, sessionID string, userID uint) error {
	if sessionID == "" {
		return nil
	}

	guest, err := s.repo.FindCart(ctx, SessionOwner(sessionID))
	if errors.Is(err, ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load guest cart: %w", err)
	}

	guestItems, err := s.repo.ListItems(ctx, guest.ID)
	if err != nil {
		return fmt.Errorf("failed to load guest cart items: %w", err)
	}

	if len(guestItems) > 0 {
		userCart, err := s.repo.GetOrCreateCart(ctx, UserOwner(userID))
		if err != nil {
			return fmt.Errorf("failed to load user cart: %w", err)
		}

		for _, guestItem := range guestItems {
			p := guestItem.Product
			if p == nil || !p.IsPublished {
				continue
			}

			item, err := s.repo.GetItem(ctx, userCart.ID, guestItem.ProductID)
			switch {
			case errors.Is(err, ErrItemNotFound):
				item = &CartItem{CartID: userCart.ID, ProductID: guestItem.ProductID}
			case err != nil:
				return fmt.Errorf("failed to load user cart item: %w", err)
			}

			quantity := item.Quantity + guestItem.Quantity
			if quantity > p.StockQuantity {
				quantity = p.StockQuantity
			}
			if quantity < 1 {
				continue
			}
			item.Quantity = quantity

			if err := s.repo.SaveItem(ctx, item); err != nil {
				return fmt.Errorf("failed to merge cart item: %w", err)
			}
		}
	}

	if err := s.repo.DeleteCart(ctx, guest.ID); err != nil {
		return fmt.Errorf("failed to remove guest cart: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"items":   len(guestItems),
	}).Info("Merged guest cart into user cart")

	return nil
}

func (s *Service) publishedProduct(ctx context.Context, id uint) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}
