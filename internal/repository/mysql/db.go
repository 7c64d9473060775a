package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/order"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init opens the global GORM instance and migrates the schema.
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = Migrate(db); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// Migrate creates or updates the schema on any GORM connection. Tests use
// it against an in-memory SQLite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&category.Category{},
		&product.Product{},
		&order.Order{},
		&order.OrderItem{},
	)
}

// DB returns the global connection.
func DB() *gorm.DB {
	return db
}
