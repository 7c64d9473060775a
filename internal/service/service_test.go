package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
)

// newTestDB opens a fresh shared in-memory SQLite database. The unique name
// keeps tests isolated while letting every pooled connection see the same
// data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, mysql.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int64) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func buyerInput(items ...CartLine) PlaceOrderInput {
	return PlaceOrderInput{
		Name:       "Jamie Buyer",
		Email:      "jamie@example.com",
		Phone:      "+32470000000",
		Address:    "12 Rue des Fleurs",
		City:       "Brussels",
		PostalCode: "1000",
		Items:      items,
	}
}

func productStock(t *testing.T, db *gorm.DB, id int64) int64 {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
