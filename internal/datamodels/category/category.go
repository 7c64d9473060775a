package category

import (
	"context"
	"time"
)

// Category groups products for storefront navigation.
type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository is the persistence interface for categories.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
}
