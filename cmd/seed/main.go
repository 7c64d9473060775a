// Command seed creates an admin account and a starter catalog so the API
// can be exercised right after a fresh migration.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/shopspring/decimal"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/category"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/product"
	"github.com/n4wf3l/perfume-platform-backend/internal/repository/mysql"
	"github.com/n4wf3l/perfume-platform-backend/internal/service"
)

func main() {
	adminEmail := flag.String("admin-email", "admin@example.com", "admin account email")
	adminPassword := flag.String("admin-password", "admin123", "admin account password")
	flag.Parse()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db := mysql.Init(&cfg.MySQL)
	ctx := context.Background()

	userRepo := mysql.NewUserRepository(db)
	if _, err := userRepo.GetByEmail(ctx, *adminEmail); err != nil {
		userSvc := service.NewUserService(userRepo, &cfg.JWT, nil)
		if _, err := userSvc.Register(ctx, *adminEmail, *adminPassword); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		log.Printf("admin user %s created", *adminEmail)
	}

	categories := mysql.NewCategoryRepository(db)
	existing, err := categories.ListAll(ctx)
	if err != nil {
		log.Fatalf("failed to list categories: %v", err)
	}
	if len(existing) > 0 {
		log.Println("catalog already seeded, nothing to do")
		return
	}

	eaux := &category.Category{Name: "Eaux de Parfum", Description: "Concentrated fragrances"}
	colognes := &category.Category{Name: "Colognes", Description: "Light daily wear"}
	for _, c := range []*category.Category{eaux, colognes} {
		if err := categories.Create(ctx, c); err != nil {
			log.Fatalf("failed to create category %s: %v", c.Name, err)
		}
	}

	productSvc := service.NewProductService(db)
	samples := []*product.Product{
		{
			Name:           "Nuit d'Ambre",
			Description:    "Warm amber with a smoky drydown",
			Price:          decimal.RequireFromString("89.50"),
			Stock:          25,
			SizeML:         100,
			Gender:         "unisex",
			OlfactiveNotes: "amber, oud, vanilla",
			CategoryID:     &eaux.ID,
			IsHero:         true,
			IsFlagship:     true,
		},
		{
			Name:           "Jardin Blanc",
			Description:    "White florals over green tea",
			Price:          decimal.RequireFromString("64.00"),
			Stock:          40,
			SizeML:         50,
			Gender:         "women",
			OlfactiveNotes: "jasmine, neroli, green tea",
			CategoryID:     &eaux.ID,
			IsFlagship:     true,
		},
		{
			Name:           "Côte Sauvage",
			Description:    "Citrus opening with a mineral finish",
			Price:          decimal.RequireFromString("48.00"),
			Stock:          60,
			SizeML:         100,
			Gender:         "men",
			OlfactiveNotes: "bergamot, sea salt, cedar",
			CategoryID:     &colognes.ID,
		},
	}
	for _, p := range samples {
		if err := productSvc.Create(ctx, p); err != nil {
			log.Fatalf("failed to create product %s: %v", p.Name, err)
		}
	}
	log.Printf("seeded %d categories and %d products", 2, len(samples))
}
