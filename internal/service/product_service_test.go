package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
)

func heroCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&product.Product{}).Where("is_hero = ?", true).Count(&n).Error)
	return n
}

func TestCreateProductHeroStaysUnique(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	first := &product.Product{Name: "Nuit d'Ambre", Price: decimal.RequireFromString("89.50"), IsHero: true}
	require.NoError(t, svc.Create(context.Background(), first))

	second := &product.Product{Name: "Jardin Blanc", Price: decimal.RequireFromString("64.00"), IsHero: true}
	require.NoError(t, svc.Create(context.Background(), second))

	assert.Equal(t, int64(1), heroCount(t, db))
	reloaded, err := svc.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsHero, "previous hero must be demoted")
}

func TestUpdateProductHeroDemotesOthers(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	hero := &product.Product{Name: "Nuit d'Ambre", Price: decimal.RequireFromString("89.50"), IsHero: true}
	require.NoError(t, svc.Create(context.Background(), hero))
	plain := &product.Product{Name: "Jardin Blanc", Price: decimal.RequireFromString("64.00")}
	require.NoError(t, svc.Create(context.Background(), plain))

	_, err := svc.Update(context.Background(), plain.ID, func(p *product.Product) {
		p.IsHero = true
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), heroCount(t, db))
	reloaded, err := svc.GetByID(context.Background(), plain.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsHero)
}

func TestFlagshipCapEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	for _, name := range []string{"One", "Two", "Three"} {
		p := &product.Product{Name: name, Price: decimal.RequireFromString("10.00"), IsFlagship: true}
		require.NoError(t, svc.Create(context.Background(), p))
	}

	fourth := &product.Product{Name: "Four", Price: decimal.RequireFromString("10.00"), IsFlagship: true}
	err := svc.Create(context.Background(), fourth)
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, v.Fields, "is_flagship")

	// Re-saving an existing flagship must not count itself.
	var existing product.Product
	require.NoError(t, db.Where("name = ?", "One").First(&existing).Error)
	_, err = svc.Update(context.Background(), existing.ID, func(*product.Product) {})
	require.NoError(t, err)
}

func TestUpdateProductPreservesConcurrentStockChanges(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	orders := NewOrderService(db, nil)

	p := seedProduct(t, db, "Nuit d'Ambre", "30.00", 5)

	// An order lands between the admin loading the edit form and saving it.
	_, err := orders.PlaceOrder(context.Background(), buyerInput(CartLine{ProductID: p.ID, Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, int64(2), productStock(t, db, p.ID))

	updated, err := products.Update(context.Background(), p.ID, func(fresh *product.Product) {
		fresh.Name = "Nuit d'Ambre Intense"
	})
	require.NoError(t, err)

	// The rename must not resurrect the sold units.
	assert.Equal(t, "Nuit d'Ambre Intense", updated.Name)
	assert.Equal(t, int64(2), updated.Stock)
	assert.Equal(t, int64(2), productStock(t, db, p.ID))
}

func TestUpdateProductUnknownIDNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	_, err := svc.Update(context.Background(), 404404, func(*product.Product) {})
	_, ok := apperrors.AsNotFound(err)
	assert.True(t, ok, "expected not found, got %v", err)
}

func TestProductValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	err := svc.Create(context.Background(), &product.Product{
		Price: decimal.RequireFromString("-1.00"),
		Stock: -5,
	})
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "name")
	assert.Contains(t, v.Fields, "price")
	assert.Contains(t, v.Fields, "stock")
}

func TestProductUnknownCategoryRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	missing := int64(4242)
	err := svc.Create(context.Background(), &product.Product{
		Name:       "Nuit d'Ambre",
		Price:      decimal.RequireFromString("10.00"),
		CategoryID: &missing,
	})
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, v.Fields, "category_id")
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	categories := NewCategoryService(db)

	c := &category.Category{Name: "Colognes"}
	require.NoError(t, categories.Create(context.Background(), c))
	p := &product.Product{Name: "Côte Sauvage", Price: decimal.RequireFromString("48.00"), CategoryID: &c.ID}
	require.NoError(t, products.Create(context.Background(), p))

	require.NoError(t, categories.Delete(context.Background(), c.ID))

	reloaded, err := products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)
}
