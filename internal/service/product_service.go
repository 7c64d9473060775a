package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
)

// maxFlagships is the storefront merchandising cap.
const maxFlagships = 3

// ProductService handles catalog writes. The hero and flagship cardinality
// rules run inside the same transaction as the product write, so two
// concurrent "set hero" calls cannot both observe zero heroes.
type ProductService struct {
	db *gorm.DB
}

// NewProductService creates the product service.
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func validateProduct(p *product.Product) error {
	v := apperrors.NewValidation()
	if p.Name == "" {
		v.Add("name", "The name field is required.")
	}
	if p.Price.Sign() < 0 {
		v.Add("price", "The price field must be at least 0.")
	}
	if p.Stock < 0 {
		v.Add("stock", "The stock field must be at least 0.")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := mysql.NewProductRepository(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return mysql.NewProductRepository(s.db).ListAll(ctx)
}

// ListFiltered returns products matching the optional category and gender
// filters.
func (s *ProductService) ListFiltered(ctx context.Context, categoryID int64, gender string) ([]*product.Product, error) {
	return mysql.NewProductRepository(s.db).ListFiltered(ctx, categoryID, gender)
}

// Create inserts a product, enforcing the merchandising invariants in the
// same transaction as the write.
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := mysql.NewProductRepository(tx)
		if err := s.checkCategory(ctx, tx, p); err != nil {
			return err
		}
		if p.IsFlagship {
			count, err := products.CountFlagship(ctx, 0)
			if err != nil {
				return err
			}
			if count >= maxFlagships {
				return apperrors.Invalid("is_flagship", "Maximum %d flagship products allowed.", maxFlagships)
			}
		}
		if p.IsHero {
			if err := products.DemoteHero(ctx, 0); err != nil {
				return err
			}
		}
		return products.Create(ctx, p)
	})
	if err != nil {
		if _, ok := apperrors.AsValidation(err); !ok {
			zap.L().Error("product creation failed", zap.Error(err))
		}
		return err
	}
	zap.L().Info("product created", zap.Int64("product_id", p.ID))
	return nil
}

// Update re-reads the product under a row lock, applies the caller's
// changes to that fresh row and saves it under the same invariants as
// Create. Mutating the locked row rather than saving a caller-held struct
// keeps an admin edit from overwriting stock decrements committed since
// the edit form was loaded.
func (s *ProductService) Update(ctx context.Context, id int64, apply func(*product.Product)) (*product.Product, error) {
	var updated *product.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := mysql.NewProductRepository(tx)
		p, err := products.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product", id)
			}
			return err
		}
		apply(p)
		p.ID = id
		if err := validateProduct(p); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, tx, p); err != nil {
			return err
		}
		if p.IsFlagship {
			count, err := products.CountFlagship(ctx, id)
			if err != nil {
				return err
			}
			if count >= maxFlagships {
				return apperrors.Invalid("is_flagship", "Maximum %d flagship products allowed.", maxFlagships)
			}
		}
		if p.IsHero {
			if err := products.DemoteHero(ctx, id); err != nil {
				return err
			}
		}
		if err := products.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if _, okV := apperrors.AsValidation(err); !okV {
			if _, okN := apperrors.AsNotFound(err); !okN {
				zap.L().Error("product update failed", zap.Int64("product_id", id), zap.Error(err))
			}
		}
		return nil, err
	}
	zap.L().Info("product updated", zap.Int64("product_id", id))
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	products := mysql.NewProductRepository(s.db)
	if _, err := products.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product", id)
		}
		return err
	}
	if err := products.Delete(ctx, id); err != nil {
		zap.L().Error("product delete failed", zap.Int64("product_id", id), zap.Error(err))
		return err
	}
	zap.L().Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, tx *gorm.DB, p *product.Product) error {
	if p.CategoryID == nil {
		return nil
	}
	if _, err := mysql.NewCategoryRepository(tx).GetByID(ctx, *p.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Invalid("category_id", "The selected category id is invalid.")
		}
		return err
	}
	return nil
}
