package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
)

// Status is the order lifecycle value. The set is closed but flat: any
// status may move to any other.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s belongs to the enumerated set.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is created exactly once by order placement; only Status changes
// afterwards. Total is the sum of item price snapshots and is never
// recomputed from the catalog.
type Order struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	Reference      string          `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Email          string          `gorm:"size:255;not null" json:"email"`
	Phone          string          `gorm:"size:20;not null" json:"phone"`
	Address        string          `gorm:"size:255;not null" json:"address"`
	City           string          `gorm:"size:100;not null" json:"city"`
	PostalCode     string          `gorm:"size:20;not null" json:"postal_code"`
	PaypalOrderID  string          `gorm:"column:paypal_order_id;size:255" json:"paypal_order_id,omitempty"`
	IdempotencyKey *string         `gorm:"size:64;uniqueIndex" json:"-"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status         Status          `gorm:"size:16;index;not null" json:"status"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is a line snapshot: quantity and unit price captured at order
// creation, immutable afterwards and decoupled from later catalog changes.
type OrderItem struct {
	ID        int64            `gorm:"primaryKey" json:"id"`
	OrderID   int64            `gorm:"index;not null" json:"order_id"`
	ProductID int64            `gorm:"index;not null" json:"product_id"`
	Quantity  int64            `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	Product   *product.Product `json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Repository is the persistence interface for orders. Create writes the
// order together with its items in one statement batch; callers wrap it in
// a transaction when stock mutations ride along.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// GetByID loads an order, optionally preloading items and their
	// products for client display.
	GetByID(ctx context.Context, id int64, withItems bool) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	Update(ctx context.Context, o *Order) error
	// Delete removes the order and its line items.
	Delete(ctx context.Context, id int64) error
}
