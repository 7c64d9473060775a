package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository on the given connection,
// which may be a transaction handle.
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// Create persists the order and its line items in one go; GORM inserts the
// associated items with the generated order id.
func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64, withItems bool) (*order.Order, error) {
	query := r.db.WithContext(ctx)
	if withItems {
		query = query.Preload("Items").Preload("Items.Product")
	}
	var o order.Order
	if err := query.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("idempotency_key = ?", key).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(o).Error
}

// Delete removes the order's items first, then the order, mirroring a
// cascading foreign key without relying on the database to enforce one.
func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order.Order{}, id).Error
	})
}
