package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/order"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/infra/mq"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
)

// EventPublisher emits post-commit order notifications. A nil publisher
// disables them.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, ev mq.OrderPlaced) error
}

// OrderService owns the order placement transaction and the status
// lifecycle. All stock arithmetic happens inside a single database
// transaction; no in-process locks are involved.
type OrderService struct {
	db     *gorm.DB
	events EventPublisher
}

// NewOrderService creates the order service. events may be nil.
func NewOrderService(db *gorm.DB, events EventPublisher) *OrderService {
	return &OrderService{db: db, events: events}
}

// CartLine is one requested product in a placement request.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// PlaceOrderInput carries buyer contact fields and the cart.
type PlaceOrderInput struct {
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	PostalCode     string     `json:"postal_code"`
	PaypalOrderID  string     `json:"paypal_order_id"`
	IdempotencyKey string     `json:"idempotency_key"`
	Items          []CartLine `json:"items"`
}

func (in *PlaceOrderInput) validate() error {
	v := apperrors.NewValidation()
	require := func(field, value string) {
		if value == "" {
			v.Add(field, "The %s field is required.", field)
		}
	}
	require("name", in.Name)
	require("email", in.Email)
	require("phone", in.Phone)
	require("address", in.Address)
	require("city", in.City)
	require("postal_code", in.PostalCode)
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			v.Add("email", "The email field must be a valid email address.")
		}
	}
	if len(in.Items) == 0 {
		v.Add("items", "The items field is required.")
	}
	for i, line := range in.Items {
		if line.ProductID <= 0 {
			v.Add(fmt.Sprintf("items.%d.product_id", i), "The product id field is required.")
		}
		if line.Quantity < 1 {
			v.Add(fmt.Sprintf("items.%d.quantity", i), "The quantity field must be at least 1.")
		}
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// PlaceOrder validates the cart, reserves stock, snapshots prices and
// persists the order with its line items, all-or-nothing.
//
// Stock checks fail fast on the first violating line, before any mutation.
// The decrement itself is a conditional update re-checking stock inside the
// transaction, so two concurrent placements on the same product can never
// drive stock negative regardless of what their earlier reads saw.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*order.Order, error) {
	if err := in.validate(); err != nil {
		v, _ := apperrors.AsValidation(err)
		zap.L().Warn("order validation failed", zap.Any("errors", v.Fields))
		return nil, err
	}

	// Replay of a keyed request returns the original order untouched.
	if in.IdempotencyKey != "" {
		existing, err := mysql.NewOrderRepository(s.db).GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			zap.L().Info("order replayed by idempotency key",
				zap.Int64("order_id", existing.ID),
				zap.String("idempotency_key", in.IdempotencyKey))
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("idempotency lookup failed", zap.Error(err))
			return nil, err
		}
	}

	type lineSnapshot struct {
		productID int64
		quantity  int64
		unitPrice decimal.Decimal
		name      string
	}

	var placedID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := mysql.NewProductRepository(tx)

		// Pass 1: lock, verify, snapshot. No mutation happens until
		// every line has passed.
		snapshots := make([]lineSnapshot, 0, len(in.Items))
		total := decimal.Zero
		for i, line := range in.Items {
			p, err := products.GetForUpdate(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Invalid(
						fmt.Sprintf("items.%d.product_id", i),
						"The selected product id is invalid.")
				}
				return err
			}
			if p.Stock < line.Quantity {
				return &apperrors.InsufficientStockError{
					ProductName: p.Name,
					Requested:   line.Quantity,
					Available:   p.Stock,
				}
			}
			snapshots = append(snapshots, lineSnapshot{
				productID: p.ID,
				quantity:  line.Quantity,
				unitPrice: p.Price,
				name:      p.Name,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(line.Quantity)))
		}

		// Pass 2: decrement. The conditional update re-checks stock
		// atomically; a zero-row result means a concurrent placement
		// won the remaining units.
		for _, snap := range snapshots {
			if err := products.DecrementStock(ctx, snap.productID, snap.quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return stockShortage(ctx, products, snap.name, snap.productID, snap.quantity)
				}
				return err
			}
		}

		o := &order.Order{
			Reference:     uuid.NewString(),
			Name:          in.Name,
			Email:         in.Email,
			Phone:         in.Phone,
			Address:       in.Address,
			City:          in.City,
			PostalCode:    in.PostalCode,
			PaypalOrderID: in.PaypalOrderID,
			Total:         total,
			Status:        order.StatusPending,
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			o.IdempotencyKey = &key
		}
		for _, snap := range snapshots {
			o.Items = append(o.Items, order.OrderItem{
				ProductID: snap.productID,
				Quantity:  snap.quantity,
				Price:     snap.unitPrice,
			})
		}
		if err := mysql.NewOrderRepository(tx).Create(ctx, o); err != nil {
			return err
		}
		placedID = o.ID
		return nil
	})
	if err != nil {
		// Two keyed requests racing past the pre-check: the unique
		// index decides, the loser returns the winner's order.
		if in.IdempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			return mysql.NewOrderRepository(s.db).GetByIdempotencyKey(ctx, in.IdempotencyKey)
		}
		if v, ok := apperrors.AsValidation(err); ok {
			zap.L().Warn("order validation failed", zap.Any("errors", v.Fields))
			return nil, err
		}
		if is, ok := apperrors.AsInsufficientStock(err); ok {
			zap.L().Warn("order rejected for stock",
				zap.String("product", is.ProductName),
				zap.Int64("requested", is.Requested),
				zap.Int64("available", is.Available))
			return nil, err
		}
		zap.L().Error("order creation failed", zap.Error(err))
		return nil, err
	}

	placed, err := mysql.NewOrderRepository(s.db).GetByID(ctx, placedID, true)
	if err != nil {
		zap.L().Error("order reload failed", zap.Int64("order_id", placedID), zap.Error(err))
		return nil, err
	}

	if s.events != nil {
		ev := mq.OrderPlaced{
			OrderID:   placed.ID,
			Reference: placed.Reference,
			Email:     placed.Email,
			Total:     placed.Total.String(),
			PlacedAt:  time.Now(),
		}
		if err := s.events.OrderPlaced(ctx, ev); err != nil {
			// The order is already committed; fulfillment can be
			// replayed from the database.
			zap.L().Warn("order event publish failed",
				zap.Int64("order_id", placed.ID), zap.Error(err))
		}
	}

	zap.L().Info("order created",
		zap.Int64("order_id", placed.ID),
		zap.String("reference", placed.Reference),
		zap.String("total", placed.Total.String()))
	return placed, nil
}

// stockShortage builds the rejection for a failed conditional decrement,
// re-reading the row so the reported availability is current.
func stockShortage(ctx context.Context, products product.Repository, name string, id, requested int64) error {
	e := &apperrors.InsufficientStockError{ProductName: name, Requested: requested}
	if fresh, err := products.GetByID(ctx, id); err == nil {
		e.Available = fresh.Stock
		if e.ProductName == "" {
			e.ProductName = fresh.Name
		}
	}
	return e
}

// GetOrder loads an order with items and products.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	o, err := mysql.NewOrderRepository(s.db).GetByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, err
	}
	return o, nil
}

// ListOrders returns all orders, newest first, with items and products.
func (s *OrderService) ListOrders(ctx context.Context) ([]*order.Order, error) {
	return mysql.NewOrderRepository(s.db).ListAll(ctx)
}

// UpdateStatus moves an order to any status in the enumerated set. The set
// is flat: no transition graph is enforced, and repeating the current
// status is a no-op. A cancelled order holds no stock: entering cancelled
// restores each line's quantity, leaving cancelled reserves it again with
// the same conditional decrement as placement. Keying the restock on the
// status being left keeps inventory conserved across any cancel/reinstate
// sequence; repeating cancelled does not restock twice.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, newStatus order.Status) (*order.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Invalid("status", "The selected status is invalid.")
	}

	var updated *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := mysql.NewOrderRepository(tx)
		o, err := orders.GetByID(ctx, id, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order", id)
			}
			return err
		}
		if o.Status == newStatus {
			updated = o
			return nil
		}
		products := mysql.NewProductRepository(tx)
		switch {
		case newStatus == order.StatusCancelled:
			for _, item := range o.Items {
				if err := products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case o.Status == order.StatusCancelled:
			// Reinstating fails if the restocked units were sold in the
			// meantime; the rollback leaves the order cancelled.
			for _, item := range o.Items {
				if err := products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, product.ErrInsufficientStock) {
						name := ""
						if item.Product != nil {
							name = item.Product.Name
						}
						return stockShortage(ctx, products, name, item.ProductID, item.Quantity)
					}
					return err
				}
			}
		}
		o.Status = newStatus
		if err := orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		if is, ok := apperrors.AsInsufficientStock(err); ok {
			zap.L().Warn("order reinstate rejected for stock",
				zap.Int64("order_id", id),
				zap.String("product", is.ProductName),
				zap.Int64("requested", is.Requested),
				zap.Int64("available", is.Available))
			return nil, err
		}
		if _, ok := apperrors.AsNotFound(err); !ok {
			zap.L().Error("order status update failed", zap.Int64("order_id", id), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("order status updated",
		zap.Int64("order_id", updated.ID),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// DeleteOrder removes the order and its line items. Stock is not restored:
// deletion purges the record, cancellation is the operation that restocks.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	repo := mysql.NewOrderRepository(s.db)
	if _, err := repo.GetByID(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("order", id)
		}
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		zap.L().Error("order delete failed", zap.Int64("order_id", id), zap.Error(err))
		return err
	}
	zap.L().Info("order deleted", zap.Int64("order_id", id))
	return nil
}
