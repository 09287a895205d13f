package repository

import (
	"context"
	"fmt"
	"log"
	"strings"

	"promo-designer/db"
	"promo-designer/models"
)

// areaKeyViews is the fixed area-key -> view mapping table. Area keys not
// listed here fall back to the "{view}_{rest}" prefix convention.
var areaKeyViews = map[string]models.View{
	"chest":        models.ViewFront,
	"chest_left":   models.ViewFront,
	"chest_right":  models.ViewFront,
	"full_front":   models.ViewFront,
	"full_back":    models.ViewBack,
	"nape":         models.ViewBack,
	"sleeve_left":  models.ViewLeft,
	"sleeve_right": models.ViewRight,
}

// ViewForAreaKey resolves which view a print-area key belongs to.
func ViewForAreaKey(key string) (models.View, bool) {
	if v, ok := areaKeyViews[key]; ok {
		return v, true
	}
	if idx := strings.IndexByte(key, '_'); idx > 0 {
		if v, err := models.ParseView(key[:idx]); err == nil {
			return v, true
		}
	}
	return "", false
}

// PrintAreaRepository handles database operations for printable regions.
// Print areas are scoped to product+view and do not change with color.
type PrintAreaRepository struct{}

// NewPrintAreaRepository creates a new PrintAreaRepository
func NewPrintAreaRepository() *PrintAreaRepository {
	return &PrintAreaRepository{}
}

// Ensure PrintAreaRepository implements PrintAreaRepositoryInterface
var _ PrintAreaRepositoryInterface = (*PrintAreaRepository)(nil)

// ListByProductAndView fetches the printable regions of one product view.
// All rows of the product are read and filtered through the area-key ->
// view mapping table.
func (r *PrintAreaRepository) ListByProductAndView(ctx context.Context, productID int, view models.View) ([]models.PrintArea, error) {
	query := `
		SELECT area_key, name, shape, x, y, width, height,
		       COALESCE(max_width, 0), COALESCE(max_height, 0),
		       COALESCE(width_mm, 0), COALESCE(height_mm, 0)
		FROM print_areas
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := db.DB.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list print areas: %w", err)
	}
	defer rows.Close()

	var areas []models.PrintArea
	for rows.Next() {
		var a models.PrintArea
		var shape string
		if err := rows.Scan(
			&a.Key, &a.Name, &shape, &a.X, &a.Y, &a.Width, &a.Height,
			&a.MaxWidth, &a.MaxHeight, &a.WidthMm, &a.HeightMm,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print area: %w", err)
		}
		a.Shape = models.PrintAreaShape(shape)

		areaView, ok := ViewForAreaKey(a.Key)
		if !ok {
			log.Printf("warning: print area %q has no view mapping, skipping", a.Key)
			continue
		}
		if areaView != view {
			continue
		}

		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print areas: %w", err)
	}

	log.Printf("✓ Loaded %d print areas for product id=%d view=%s", len(areas), productID, view)
	return areas, nil
}
