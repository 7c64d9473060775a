package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
)

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository creates a category repository.
func NewCategoryRepository(db *gorm.DB) category.Repository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	var c category.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) ListAll(ctx context.Context) ([]*category.Category, error) {
	var list []*category.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *category.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) Update(ctx context.Context, c *category.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete detaches products from the category before removing it, so a
// catalog entry never points at a missing category.
func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product.Product{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category.Category{}, id).Error
	})
}
