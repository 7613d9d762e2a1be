package migrations

import (
	"context"
	"fmt"
	"order_manager/internal/repository"
	"order_manager/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	AdminEmail    string
	AdminPassword string
	// SeedCatalog adds a small demo catalog when no category exists yet.
	SeedCatalog bool
}

// SeedDefaults creates the default admin user and, when requested, a demo
// catalog. It is safe to run on every start.
func SeedDefaults(ctx context.Context, db *gorm.DB, opts Options, log *zap.Logger) error {
	store := repository.NewStore(db)

	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		userService := services.NewUserService(store.Users())
		admin, created, err := userService.EnsureAdmin(ctx, opts.AdminEmail, opts.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		if created {
			log.Info("admin user created", zap.String("email", admin.Email))
		} else {
			log.Debug("admin user already exists", zap.String("email", admin.Email))
		}
	}

	if opts.SeedCatalog {
		if err := seedCatalog(ctx, services.NewCatalogService(store), log); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

type demoProduct struct {
	name     string
	variants map[string]string
}

var demoCatalog = map[string][]demoProduct{
	"Drinks": {
		{name: "Lemonade", variants: map[string]string{"Small": "3.50", "Large": "5.00"}},
		{name: "Iced Tea", variants: map[string]string{"Regular": "4.00"}},
	},
	"Food": {
		{name: "Burger", variants: map[string]string{"Single": "9.50", "Double": "12.75"}},
		{name: "Fries", variants: map[string]string{"Regular": "3.25"}},
	},
}

func seedCatalog(ctx context.Context, catalog services.CatalogService, log *zap.Logger) error {
	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Debug("catalog already seeded", zap.Int("categories", len(existing)))
		return nil
	}

	products := 0
	for categoryName, items := range demoCatalog {
		category, err := catalog.CreateCategory(ctx, services.CategoryInput{Name: categoryName})
		if err != nil {
			return err
		}
		for _, item := range items {
			input := services.ProductInput{CategoryID: category.ID, Name: item.name}
			for variantName, price := range item.variants {
				input.Variants = append(input.Variants, services.VariantInput{
					Name:  variantName,
					Price: decimal.RequireFromString(price),
				})
			}
			if _, err := catalog.CreateProduct(ctx, input); err != nil {
				return err
			}
			products++
		}
	}

	log.Info("demo catalog created", zap.Int("categories", len(demoCatalog)), zap.Int("products", products))
	return nil
}
