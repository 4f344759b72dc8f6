package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/db"
	"github.com/rpalomino/storefront-backend/pkg/db/models"
	"github.com/rpalomino/storefront-backend/pkg/logger"
	"github.com/rpalomino/storefront-backend/pkg/security"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

// seed loads a small demo catalog plus one known login so a freshly migrated
// dev database is browsable immediately. Products are only inserted into an
// empty catalog and the demo user upserts on email, so re-running is harmless.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed a production database")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	gormDB := dbClient.DB()

	var existing int64
	if err := gormDB.WithContext(ctx).Model(&models.Product{}).Count(&existing).Error; err != nil {
		logg.Error(ctx, "failed to inspect catalog", err)
		os.Exit(1)
	}

	products := demoProducts()
	if existing == 0 {
		if err := gormDB.WithContext(ctx).Create(&products).Error; err != nil {
			logg.Error(ctx, "failed to seed products", err)
			os.Exit(1)
		}
	} else {
		products = nil
	}

	hash, err := security.HashPassword(demoPassword, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash demo password", err)
		os.Exit(1)
	}
	demo := models.User{Name: "Demo Shopper", Email: demoEmail, PasswordHash: hash}
	err = gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&demo).Error
	if err != nil {
		logg.Error(ctx, "failed to seed demo user", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"products":   len(products),
		"demo_email": demoEmail,
	}), "seed complete")
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func demoProducts() []models.Product {
	return []models.Product{
		{Title: "Walnut Standing Desk", Description: "Solid walnut desk with dual-motor height adjustment.", Price: price("649.00"), Image: "https://images.example.com/walnut-desk.jpg", Category: "furniture", InStock: true},
		{Title: "Ergonomic Mesh Chair", Description: "Breathable mesh back with adjustable lumbar support.", Price: price("289.99"), Image: "https://images.example.com/mesh-chair.jpg", Category: "furniture", InStock: true},
		{Title: "Ceramic Pour-Over Set", Description: "Hand-glazed dripper, carafe and two cups.", Price: price("58.50"), Image: "https://images.example.com/pour-over.jpg", Category: "kitchen", InStock: true},
		{Title: "Cast Iron Skillet 12\"", Description: "Pre-seasoned skillet that goes from stovetop to oven.", Price: price("41.00"), Image: "https://images.example.com/skillet.jpg", Category: "kitchen", InStock: true},
		{Title: "Japanese Chef Knife", Description: "VG-10 steel, 67-layer damascus, octagonal handle.", Price: price("129.00"), Image: "https://images.example.com/chef-knife.jpg", Category: "kitchen", InStock: false},
		{Title: "Wool Throw Blanket", Description: "Merino wool blanket woven in a herringbone pattern.", Price: price("98.00"), Image: "https://images.example.com/throw.jpg", Category: "home", InStock: true},
		{Title: "Linen Duvet Cover", Description: "Stonewashed European flax, queen size.", Price: price("159.00"), Image: "https://images.example.com/duvet.jpg", Category: "home", InStock: true},
		{Title: "Smart LED Floor Lamp", Description: "Tunable white and color, works with the usual assistants.", Price: price("112.00"), Image: "https://images.example.com/lamp.jpg", Category: "lighting", InStock: true},
		{Title: "Noise Cancelling Headphones", Description: "Over-ear, 35 hour battery, multipoint pairing.", Price: price("279.00"), Image: "https://images.example.com/headphones.jpg", Category: "electronics", InStock: true},
		{Title: "Mechanical Keyboard", Description: "Hot-swappable switches, PBT keycaps, aluminium case.", Price: price("145.00"), Image: "https://images.example.com/keyboard.jpg", Category: "electronics", InStock: true},
		{Title: "4K Webcam", Description: "Sony sensor, auto-framing, USB-C.", Price: price("189.00"), Image: "https://images.example.com/webcam.jpg", Category: "electronics", InStock: false},
		{Title: "Canvas Weekender Bag", Description: "Waxed canvas with full-grain leather trim.", Price: price("135.00"), Image: "https://images.example.com/weekender.jpg", Category: "travel", InStock: true},
	}
}
