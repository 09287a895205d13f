package service

import (
	"context"

	"promo-designer/models"
)

// AssetStoreInterface defines the contract for product asset storage. Real
// photography is kept under one folder per product key, with file names
// following the {sanitizedColor}-{view}.png convention; the shared neutral
// baseline uses the reserved color name "neutral".
type AssetStoreInterface interface {
	// FindProductPhoto looks up an uploaded color-specific photo by naming
	// convention. The second return is false when no such photo exists.
	FindProductPhoto(ctx context.Context, productKey, colorName string, view models.View) ([]byte, bool, error)

	// FetchNeutralBaseline returns the neutral baseline asset for a view,
	// or ErrNotFound.
	FetchNeutralBaseline(ctx context.Context, productKey string, view models.View) ([]byte, error)

	// FetchURL downloads a pre-rendered asset by public URL
	FetchURL(ctx context.Context, url string) ([]byte, error)
}
