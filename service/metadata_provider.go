package service

import (
	"context"

	"promo-designer/designer"
	"promo-designer/models"
	"promo-designer/repository"
)

// MetadataProvider composes the metadata repositories into the single
// provider contract the designer orchestrator consumes.
type MetadataProvider struct {
	products repository.ProductRepositoryInterface
	colors   repository.ColorVariantRepositoryInterface
	areas    repository.PrintAreaRepositoryInterface
}

// NewMetadataProvider creates a new MetadataProvider
func NewMetadataProvider(
	products repository.ProductRepositoryInterface,
	colors repository.ColorVariantRepositoryInterface,
	areas repository.PrintAreaRepositoryInterface,
) *MetadataProvider {
	return &MetadataProvider{
		products: products,
		colors:   colors,
		areas:    areas,
	}
}

// Ensure MetadataProvider satisfies the orchestrator's contract
var _ designer.MetadataProvider = (*MetadataProvider)(nil)

// GetProductByKey fetches a product template by key
func (p *MetadataProvider) GetProductByKey(ctx context.Context, key string) (*models.ProductTemplate, error) {
	return p.products.GetByKey(ctx, key)
}

// ListColorVariants fetches the color variants of a product
func (p *MetadataProvider) ListColorVariants(ctx context.Context, productID int) ([]models.ColorVariant, error) {
	return p.colors.ListByProduct(ctx, productID)
}

// ListPrintAreas fetches the printable regions of a product view
func (p *MetadataProvider) ListPrintAreas(ctx context.Context, productID int, view models.View) ([]models.PrintArea, error) {
	return p.areas.ListByProductAndView(ctx, productID, view)
}
