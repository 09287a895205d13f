package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"promo-designer/db"
	"promo-designer/models"
)

// ProductRepository handles database operations for product templates
type ProductRepository struct{}

// NewProductRepository creates a new ProductRepository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// Ensure ProductRepository implements ProductRepositoryInterface
var _ ProductRepositoryInterface = (*ProductRepository)(nil)

// GetByKey fetches a product template by its stable key
func (r *ProductRepository) GetByKey(ctx context.Context, key string) (*models.ProductTemplate, error) {
	query := `
		SELECT id, key, name, base_price, min_order_qty
		FROM products
		WHERE key = $1
	`

	var p models.ProductTemplate
	err := db.DB.QueryRowContext(ctx, query, key).Scan(
		&p.ID, &p.Key, &p.Name, &p.BasePrice, &p.MinOrderQty,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %q: %w", key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by key: %w", err)
	}

	p.PrintAreas = make(map[models.View][]models.PrintArea)

	log.Printf("✓ Product loaded: id=%d key=%s name=%s", p.ID, p.Key, p.Name)
	return &p, nil
}

// GetByID fetches a product template by its numeric id
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.ProductTemplate, error) {
	query := `
		SELECT id, key, name, base_price, min_order_qty
		FROM products
		WHERE id = $1
	`

	var p models.ProductTemplate
	err := db.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Key, &p.Name, &p.BasePrice, &p.MinOrderQty,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product id %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	p.PrintAreas = make(map[models.View][]models.PrintArea)
	return &p, nil
}
