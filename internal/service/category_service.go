package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
)

// CategoryService handles plain category CRUD.
type CategoryService struct {
	repo category.Repository
}

// NewCategoryService creates the category service.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{repo: mysql.NewCategoryRepository(db)}
}

func (s *CategoryService) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) ListAll(ctx context.Context) ([]*category.Category, error) {
	return s.repo.ListAll(ctx)
}

func (s *CategoryService) Create(ctx context.Context, c *category.Category) error {
	if c.Name == "" {
		return apperrors.Invalid("name", "The name field is required.")
	}
	return s.repo.Create(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, c *category.Category) error {
	if c.Name == "" {
		return apperrors.Invalid("name", "The name field is required.")
	}
	if _, err := s.GetByID(ctx, c.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
