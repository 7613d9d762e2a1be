package services

import (
	"context"
	"errors"
	"fmt"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"strings"

	"github.com/shopspring/decimal"
)

type CatalogService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uint, patch CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error

	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	CreateVariant(ctx context.Context, productID uint, input VariantInput) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID uint, patch VariantPatch) (*models.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID uint) error
}

type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CategoryPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

type VariantInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type VariantPatch struct {
	Name  Optional[string]          `json:"name"`
	Price Optional[decimal.Decimal] `json:"price"`
}

type ProductInput struct {
	CategoryID  uint           `json:"category_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	IsActive    *bool          `json:"is_active"`
	Variants    []VariantInput `json:"variants"`
}

type ProductPatch struct {
	CategoryID  Optional[uint]   `json:"category_id"`
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	IsActive    Optional[bool]   `json:"is_active"`
}

type catalogService struct {
	store repository.UnitOfWork
}

func NewCatalogService(store repository.UnitOfWork) CatalogService {
	return &catalogService{store: store}
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError("name is required")
	}

	category := &models.Category{Name: name, Description: input.Description}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return loadCategory(ctx, s.store.Categories(), id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uint, patch CategoryPatch) (*models.Category, error) {
	fields := map[string]interface{}{}
	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, NewValidationError("name cannot be empty")
		}
		fields["name"] = name
	}
	if patch.Description.Set {
		fields["description"] = nullableString(patch.Description)
	}

	var category *models.Category
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadCategory(ctx, tx.Categories(), id); err != nil {
			return err
		}
		if err := tx.Categories().Update(ctx, id, fields); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		var err error
		category, err = loadCategory(ctx, tx.Categories(), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to remove a category that still has products.
func (s *catalogService) DeleteCategory(ctx context.Context, id uint) error {
	return repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadCategory(ctx, tx.Categories(), id); err != nil {
			return err
		}
		count, err := tx.Products().CountByCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if count > 0 {
			return NewConflictError("category %d still has %d products", id, count)
		}
		if err := tx.Categories().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError("name is required")
	}
	for i, v := range input.Variants {
		if err := validateVariant(v.Name, v.Price); err != nil {
			return nil, NewValidationError("variants[%d]: %s", i, err.Error())
		}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var product *models.Product
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadCategory(ctx, tx.Categories(), input.CategoryID); err != nil {
			return err
		}

		created := &models.Product{
			CategoryID:  input.CategoryID,
			Name:        name,
			Description: input.Description,
			IsActive:    active,
		}
		if err := tx.Products().Create(ctx, created); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		variants := make([]models.ProductVariant, 0, len(input.Variants))
		for _, v := range input.Variants {
			variants = append(variants, models.ProductVariant{
				ProductID: created.ID,
				Name:      strings.TrimSpace(v.Name),
				Price:     v.Price,
			})
		}
		if err := tx.Variants().CreateBatch(ctx, variants); err != nil {
			return fmt.Errorf("create variants: %w", err)
		}

		var err error
		product, err = loadProduct(ctx, tx.Products(), created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return loadProduct(ctx, s.store.Products(), id)
}

func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	products, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	fields := map[string]interface{}{}
	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, NewValidationError("name cannot be empty")
		}
		fields["name"] = name
	}
	if patch.Description.Set {
		fields["description"] = nullableString(patch.Description)
	}
	if patch.IsActive.Set {
		if patch.IsActive.Null {
			return nil, NewValidationError("is_active cannot be null")
		}
		fields["is_active"] = patch.IsActive.Value
	}
	if patch.CategoryID.Set && patch.CategoryID.Null {
		return nil, NewValidationError("category_id cannot be null")
	}

	var product *models.Product
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadProduct(ctx, tx.Products(), id); err != nil {
			return err
		}
		if patch.CategoryID.Set {
			if _, err := loadCategory(ctx, tx.Categories(), patch.CategoryID.Value); err != nil {
				return err
			}
			fields["category_id"] = patch.CategoryID.Value
		}
		if err := tx.Products().Update(ctx, id, fields); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		var err error
		product, err = loadProduct(ctx, tx.Products(), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	return repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if err := tx.Products().Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFoundError("product", id)
			}
			if errors.Is(err, repository.ErrInUse) {
				return NewConflictError("product %d is referenced by existing orders", id)
			}
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
}

func (s *catalogService) CreateVariant(ctx context.Context, productID uint, input VariantInput) (*models.ProductVariant, error) {
	if err := validateVariant(input.Name, input.Price); err != nil {
		return nil, err
	}
	if _, err := loadProduct(ctx, s.store.Products(), productID); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID: productID,
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
	}
	if err := s.store.Variants().Create(ctx, variant); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return variant, nil
}

func (s *catalogService) UpdateVariant(ctx context.Context, productID, variantID uint, patch VariantPatch) (*models.ProductVariant, error) {
	fields := map[string]interface{}{}
	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, NewValidationError("name cannot be empty")
		}
		fields["name"] = name
	}
	if patch.Price.Set {
		if patch.Price.Null {
			return nil, NewValidationError("price cannot be null")
		}
		if err := validatePrice(patch.Price.Value); err != nil {
			return nil, err
		}
		fields["price"] = patch.Price.Value
	}

	var variant *models.ProductVariant
	err := repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadVariant(ctx, tx.Variants(), productID, variantID); err != nil {
			return err
		}
		if err := tx.Variants().Update(ctx, variantID, fields); err != nil {
			return fmt.Errorf("update variant: %w", err)
		}
		var err error
		variant, err = loadVariant(ctx, tx.Variants(), productID, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *catalogService) DeleteVariant(ctx context.Context, productID, variantID uint) error {
	return repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		if _, err := loadVariant(ctx, tx.Variants(), productID, variantID); err != nil {
			return err
		}
		if err := tx.Variants().Delete(ctx, variantID); err != nil {
			return fmt.Errorf("delete variant: %w", err)
		}
		return nil
	})
}

func loadCategory(ctx context.Context, categories repository.CategoryRepository, id uint) (*models.Category, error) {
	category, err := categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("category", id)
		}
		return nil, fmt.Errorf("load category: %w", err)
	}
	return category, nil
}

func loadProduct(ctx context.Context, products repository.ProductRepository, id uint) (*models.Product, error) {
	product, err := products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("product", id)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

func loadVariant(ctx context.Context, variants repository.VariantRepository, productID, variantID uint) (*models.ProductVariant, error) {
	variant, err := variants.GetForProduct(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("variant", variantID)
		}
		return nil, fmt.Errorf("load variant: %w", err)
	}
	return variant, nil
}

func validateVariant(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name is required")
	}
	return validatePrice(price)
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("price must not be negative")
	}
	if !price.Equal(price.Truncate(moneyScale)) {
		return NewValidationError("price must have at most %d decimals", moneyScale)
	}
	if price.GreaterThan(maxMoney) {
		return NewValidationError("price exceeds %s", maxMoney.StringFixed(moneyScale))
	}
	return nil
}

func nullableString(o Optional[string]) interface{} {
	if o.Null {
		return nil
	}
	return o.Value
}
