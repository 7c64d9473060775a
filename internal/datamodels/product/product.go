package product

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
)

// ErrInsufficientStock is returned by DecrementStock when the conditional
// update finds fewer units than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// Product is a catalog entry. Stock never goes below zero: every decrement
// runs as a conditional update at the storage layer.
type Product struct {
	ID             int64              `gorm:"primaryKey" json:"id"`
	Name           string             `gorm:"size:255;not null" json:"name"`
	Description    string             `gorm:"type:text" json:"description"`
	Price          decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock          int64              `gorm:"not null" json:"stock"`
	SizeML         int                `gorm:"column:size_ml" json:"size_ml"`
	Gender         string             `gorm:"size:32;index" json:"gender"`
	OlfactiveNotes string             `gorm:"size:255" json:"olfactive_notes"`
	CategoryID     *int64             `gorm:"index" json:"category_id"`
	Category       *category.Category `json:"category,omitempty"`
	// At most one hero and at most three flagships exist system-wide;
	// both are enforced inside the product write transaction.
	IsHero     bool      `json:"is_hero"`
	IsFlagship bool      `json:"is_flagship"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository is the persistence interface for products. GetForUpdate and
// the stock mutators carry the concurrency guarantees of order placement;
// the rest is plain catalog access.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// GetForUpdate reads a product under a row lock where the dialect
	// supports one, serializing concurrent placements on the same row.
	GetForUpdate(ctx context.Context, id int64) (*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListFiltered(ctx context.Context, categoryID int64, gender string) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	// DecrementStock atomically runs
	// UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?
	// and returns ErrInsufficientStock when no row qualifies.
	DecrementStock(ctx context.Context, id, quantity int64) error
	// IncrementStock returns units to stock (order cancellation).
	IncrementStock(ctx context.Context, id, quantity int64) error

	// DemoteHero clears the hero flag on every product except exceptID.
	DemoteHero(ctx context.Context, exceptID int64) error
	// CountFlagship counts flagship products, excluding exceptID.
	CountFlagship(ctx context.Context, exceptID int64) (int64, error)
}
