package repository

import (
	"context"

	"promo-designer/models"
)

// ProductRepositoryInterface defines the contract for product metadata access
type ProductRepositoryInterface interface {
	GetByKey(ctx context.Context, key string) (*models.ProductTemplate, error)
	GetByID(ctx context.Context, id int) (*models.ProductTemplate, error)
}

// ColorVariantRepositoryInterface defines the contract for color-variant metadata access
type ColorVariantRepositoryInterface interface {
	ListByProduct(ctx context.Context, productID int) ([]models.ColorVariant, error)
}

// PrintAreaRepositoryInterface defines the contract for print-area metadata access
type PrintAreaRepositoryInterface interface {
	ListByProductAndView(ctx context.Context, productID int, view models.View) ([]models.PrintArea, error)
}
