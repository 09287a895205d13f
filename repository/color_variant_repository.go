package repository

import (
	"context"
	"fmt"
	"log"

	"promo-designer/db"
	"promo-designer/models"
)

// ColorVariantRepository handles database operations for color variants.
// Overlay-kind variants come from the join-table shape (color row with hex);
// direct-kind variants additionally carry per-view asset rows.
type ColorVariantRepository struct{}

// NewColorVariantRepository creates a new ColorVariantRepository
func NewColorVariantRepository() *ColorVariantRepository {
	return &ColorVariantRepository{}
}

// Ensure ColorVariantRepository implements ColorVariantRepositoryInterface
var _ ColorVariantRepositoryInterface = (*ColorVariantRepository)(nil)

// ListByProduct fetches all color variants for a product, including the
// per-view assets of direct-kind variants.
func (r *ColorVariantRepository) ListByProduct(ctx context.Context, productID int) ([]models.ColorVariant, error) {
	query := `
		SELECT id, name, COALESCE(hex_color, '') AS hex_color, kind
		FROM color_variants
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := db.DB.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list color variants: %w", err)
	}
	defer rows.Close()

	var variants []models.ColorVariant
	for rows.Next() {
		var v models.ColorVariant
		var kind string
		if err := rows.Scan(&v.ID, &v.Name, &v.Hex, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan color variant: %w", err)
		}
		v.Kind = models.ColorKind(kind)
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate color variants: %w", err)
	}

	// Attach per-view assets for direct-kind variants
	for i := range variants {
		if variants[i].Kind != models.ColorKindDirect {
			continue
		}
		assets, err := r.listAssets(ctx, variants[i].ID)
		if err != nil {
			return nil, err
		}
		variants[i].Assets = assets
	}

	log.Printf("✓ Loaded %d color variants for product id=%d", len(variants), productID)
	return variants, nil
}

// listAssets fetches the view -> asset URL map of one direct-kind variant
func (r *ColorVariantRepository) listAssets(ctx context.Context, variantID int) (map[models.View]string, error) {
	query := `
		SELECT view, asset_url
		FROM color_variant_assets
		WHERE color_variant_id = $1
	`

	rows, err := db.DB.QueryContext(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variant assets: %w", err)
	}
	defer rows.Close()

	assets := make(map[models.View]string)
	for rows.Next() {
		var viewStr, url string
		if err := rows.Scan(&viewStr, &url); err != nil {
			return nil, fmt.Errorf("failed to scan variant asset: %w", err)
		}
		view, err := models.ParseView(viewStr)
		if err != nil {
			log.Printf("warning: variant %d has asset for %v, skipping", variantID, err)
			continue
		}
		assets[view] = url
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variant assets: %w", err)
	}

	return assets, nil
}
