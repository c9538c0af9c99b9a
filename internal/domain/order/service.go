// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
	"github.com/your-org/caster-store/internal/pkg/hashid"
	"github.com/your-org/caster-store/internal/pkg/metrics"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

const publishTimeout = 5 * time.Second

// Service handles order placement and the order lifecycle
type Service struct {
	store     Store
	carts     *cart.Service
	numbers   *hashid.Encoder
	publisher EventPublisher
	now       func() time.Time
}

// NewService creates a new order service. A nil publisher drops events.
func NewService(store Store, carts *cart.Service, numbers *hashid.Encoder, publisher EventPublisher) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Service{
		store:     store,
		carts:     carts,
		numbers:   numbers,
		publisher: publisher,
		now:       time.Now,
	}
}

// LineRequest is one requested (product, quantity) pair
type LineRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PlaceOrderRequest represents checkout input
type PlaceOrderRequest struct {
	Email          string         `json:"email" binding:"required,email"`
	FullName       string         `json:"full_name" binding:"required"`
	Phone          string         `json:"phone" binding:"required"`
	Address        string         `json:"address" binding:"required"`
	PaymentMethod  PaymentMethod  `json:"payment_method" binding:"required"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	Notes          string         `json:"notes"`
	SessionID      string         `json:"session_id"`
	// Items defaults to the caller's cart when empty
	Items []LineRequest `json:"items"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// CancelOrderRequest represents a cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ListOrdersRequest represents order list query parameters
type ListOrdersRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status string `form:"status"`
	Search string `form:"search"`
}

// ListOrdersResponse is a page of orders
type ListOrdersResponse struct {
	Orders       []Order               `json:"orders"`
	Pagination   pagination.Pagination `json:"pagination"`
	StatusCounts map[OrderStatus]int64 `json:"status_counts,omitempty"`
}

func (r *PlaceOrderRequest) normalize() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.SessionID = strings.TrimSpace(r.SessionID)

	var missing []string
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.FullName == "" {
		missing = append(missing, "full_name")
	}
	if r.Phone == "" {
		missing = append(missing, "phone")
	}
	if r.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return apperror.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	if !r.PaymentMethod.Valid() {
		return apperror.Validation("payment_method must be one of: card, bank")
	}
	if r.ShippingMethod == "" {
		r.ShippingMethod = ShippingMethodStandard
	}
	if !r.ShippingMethod.Valid() {
		return apperror.Validation("shipping_method must be one of: standard, express")
	}

	return nil
}

func validateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	for i, line := range lines {
		if line.ProductID == 0 {
			return apperror.Validation("items[%d]: product_id is required", i)
		}
		if line.Quantity <= 0 {
			return apperror.Validation("items[%d]: quantity must be greater than zero", i)
		}
	}
	return nil
}

// PlaceOrder validates stock, persists the order with snapshot items,
// decrements inventory and clears the ordered lines from the source cart in
// one transaction. A nil principal places a guest order keyed by session id.
func (s *Service) PlaceOrder(ctx context.Context, principal *auth.Principal, req *PlaceOrderRequest) (*Order, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var owner cart.Owner
	order := &Order{
		Email:          req.Email,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Address:        req.Address,
		Status:         OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		Notes:          strings.TrimSpace(req.Notes),
	}
	switch {
	case principal != nil:
		userID := principal.UserID
		owner = cart.UserOwner(userID)
		order.UserID = &userID
	case req.SessionID != "":
		owner = cart.SessionOwner(req.SessionID)
		order.SessionID = req.SessionID
	default:
		return nil, ErrMissingOwner
	}

	lines := req.Items
	if len(lines) == 0 && s.carts != nil {
		snapshot, err := s.carts.Snapshot(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, l := range snapshot {
			lines = append(lines, LineRequest{ProductID: l.ProductID, Quantity: l.Quantity})
		}
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		// Stock is checked against the running total per product so repeated
		// lines for one product cannot jointly exceed what is on hand.
		requested := make(map[uint]int, len(lines))
		total := decimal.Zero
		items := make([]OrderItem, 0, len(lines))

		for _, line := range lines {
			p, err := tx.LockProduct(ctx, line.ProductID)
			if errors.Is(err, product.ErrProductNotFound) || (err == nil && !p.IsPublished) {
				return fmt.Errorf("%w: id %d", ErrUnknownProduct, line.ProductID)
			}
			if err != nil {
				return fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
			}

			requested[p.ID] += line.Quantity
			if !p.InStock(requested[p.ID]) {
				return &product.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   requested[p.ID],
					Available:   p.StockQuantity,
				}
			}

			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductSKU:   p.SKU,
				ProductPrice: p.Price,
				Quantity:     line.Quantity,
				TotalPrice:   lineTotal,
			})
		}

		order.TotalAmount = total
		order.Items = items
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		number, err := s.numbers.Encode(order.ID)
		if err != nil {
			return err
		}
		if err := tx.SetOrderNumber(ctx, order.ID, number); err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}
		order.OrderNumber = number

		for _, item := range items {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return fmt.Errorf("%w for product %q", product.ErrInsufficientStock, item.ProductName)
				}
				return fmt.Errorf("failed to update inventory: %w", err)
			}
		}

		history := OrderStatusHistory{
			OrderID: order.ID,
			Status:  OrderStatusPending,
			Comment: "Order placed",
		}
		if order.UserID != nil {
			history.CreatedBy = order.UserID
		}
		if err := tx.AddHistory(ctx, &history); err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		order.StatusHistory = []OrderStatusHistory{history}

		if err := tx.RemoveCartLines(ctx, owner, order.ProductIDs()); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
		"total":        order.TotalAmount.String(),
		"guest":        order.UserID == nil,
	}).Info("Order placed")

	s.publish(ctx, Event{
		Type:        EventOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Order:       order,
	})

	return order, nil
}

// UpdateStatus moves an order along the transition table. Admin only.
// Entering cancelled restores stock for every line in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, principal *auth.Principal, id uint, req *UpdateStatusRequest) (*Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	target, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, principal, id, target, strings.TrimSpace(req.Comment), nil)
}

// CancelOrder cancels an order. Customers may cancel their own pending
// orders; admins may cancel any order the transition table allows.
func (s *Service) CancelOrder(ctx context.Context, principal *auth.Principal, id uint, req *CancelOrderRequest) (*Order, error) {
	if principal == nil {
		return nil, ErrForbidden
	}

	comment := "Cancelled"
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		comment = reason
	}

	guard := func(o *Order) error {
		if principal.IsAdmin() {
			return nil
		}
		if !principal.Owns(o.UserID) {
			return ErrOrderNotFound
		}
		// terminal orders fall through to the transition check
		if o.Status != OrderStatusPending && !o.Status.IsTerminal() {
			return fmt.Errorf("%w: order is %s", ErrCancelNotAllowed, o.Status)
		}
		return nil
	}

	return s.transition(ctx, principal, id, OrderStatusCancelled, comment, guard)
}

func (s *Service) transition(ctx context.Context, principal *auth.Principal, id uint, target OrderStatus, comment string, guard func(*Order) error) (*Order, error) {
	var from OrderStatus

	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(o); err != nil {
				return err
			}
		}

		if !o.Status.CanTransitionTo(target) {
			return &TransitionError{From: o.Status, To: target}
		}
		from = o.Status

		if err := tx.SetStatus(ctx, o.ID, target); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if target == OrderStatusCancelled {
			for _, item := range o.Items {
				if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("failed to restore inventory for product %d: %w", item.ProductID, err)
				}
			}
		}

		history := &OrderStatusHistory{
			OrderID:    o.ID,
			FromStatus: from,
			Status:     target,
			Comment:    comment,
		}
		if principal != nil {
			userID := principal.UserID
			history.CreatedBy = &userID
		}
		if err := tx.AddHistory(ctx, history); err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(from), string(target)).Inc()

	updated, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"from":     from,
		"to":       target,
	}).Info("Order status changed")

	s.publish(ctx, Event{
		Type:           EventOrderStatusChanged,
		OrderID:        updated.ID,
		OrderNumber:    updated.OrderNumber,
		Status:         updated.Status,
		PreviousStatus: from,
		Order:          updated,
	})

	return updated, nil
}

// GetOrder returns an order visible to the principal. Other customers'
// orders are reported as not found.
func (s *Service) GetOrder(ctx context.Context, principal *auth.Principal, id uint) (*Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && !principal.Owns(o.UserID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// GetOrderByNumber finds a guest order by its public number and contact email
func (s *Service) GetOrderByNumber(ctx context.Context, number, email string) (*Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	email = strings.TrimSpace(email)
	if number == "" || email == "" {
		return nil, apperror.Validation("order number and email are required")
	}

	id, err := s.numbers.Decode(number)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OrderNumber != number || !strings.EqualFold(o.Email, email) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListOrders lists all orders with per-status counts. Admin only.
func (s *Service) ListOrders(ctx context.Context, principal *auth.Principal, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	resp, err := s.list(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	resp.StatusCounts = counts

	return resp, nil
}

// ListUserOrders lists the principal's own orders
func (s *Service) ListUserOrders(ctx context.Context, principal *auth.Principal, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	if principal == nil {
		return nil, ErrForbidden
	}
	userID := principal.UserID
	return s.list(ctx, req, &userID)
}

func (s *Service) list(ctx context.Context, req *ListOrdersRequest, userID *uint) (*ListOrdersResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	filter := ListFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(req.Search),
		UserID: userID,
	}
	if req.Status != "" {
		status, err := ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	orders, total, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListOrdersResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	event.OccurredAt = s.now().UTC()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"event":    event.Type,
		}).Warn("Failed to publish order event")
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrUnknownProduct):
		return "unknown_product"
	case apperror.KindOf(err) == apperror.KindValidation:
		return "validation"
	default:
		return "error"
	}
}
