package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository on the given
// connection, which may be a transaction handle.
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetForUpdate locks the product row for the rest of the transaction under
// MySQL. SQLite has no FOR UPDATE; its single-writer lock together with the
// conditional decrement guard carries the same invariant there.
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*product.Product, error) {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p product.Product
	if err := tx.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListFiltered(ctx context.Context, categoryID int64, gender string) ([]*product.Product, error) {
	query := r.db.WithContext(ctx).Preload("Category")
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if gender != "" {
		query = query.Where("gender = ?", gender)
	}
	var list []*product.Product
	if err := query.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

// DecrementStock is the hard guarantee behind "stock never goes negative":
// the stock >= quantity predicate and the subtraction execute as one
// statement, so two concurrent placements cannot both pass a stale check.
func (r *productRepo) DecrementStock(ctx context.Context, id, quantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id, quantity int64) error {
	return r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

func (r *productRepo) DemoteHero(ctx context.Context, exceptID int64) error {
	return r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("is_hero = ? AND id <> ?", true, exceptID).
		UpdateColumn("is_hero", false).Error
}

func (r *productRepo) CountFlagship(ctx context.Context, exceptID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("is_flagship = ? AND id <> ?", true, exceptID).
		Count(&count).Error
	return count, err
}
