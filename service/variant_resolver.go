package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"

	"promo-designer/designer"
	"promo-designer/models"
	"promo-designer/utils"
)

// SourceKind tags where a resolved image came from.
type SourceKind string

const (
	SourcePhoto     SourceKind = "photo"     // uploaded color-specific photography
	SourceDirect    SourceKind = "direct"    // pre-rendered per-view asset
	SourceCache     SourceKind = "cache"     // previously generated overlay
	SourceGenerated SourceKind = "generated" // freshly synthesized overlay
	SourceNeutral   SourceKind = "neutral"   // neutral baseline, pipeline bypassed
)

// ResolvedImage is a variant image plus where it came from
type ResolvedImage struct {
	Data   []byte
	Width  int
	Height int
	Source SourceKind
}

// VariantResolver determines which image to show for a (product, color,
// view) tuple. Real photography always wins over synthesized color, and
// synthesis is never repeated once cached.
type VariantResolver struct {
	assets  AssetStoreInterface
	overlay OverlayServiceInterface
	cache   *OverlayCache
}

// NewVariantResolver creates a new VariantResolver
func NewVariantResolver(assets AssetStoreInterface, overlay OverlayServiceInterface, cache *OverlayCache) *VariantResolver {
	return &VariantResolver{
		assets:  assets,
		overlay: overlay,
		cache:   cache,
	}
}

// Ensure VariantResolver satisfies the orchestrator's resolver contract
var _ designer.TemplateResolver = (*VariantResolver)(nil)

// ResolveImage runs the priority chain:
//  1. uploaded color-specific photo (naming convention)
//  2. direct-kind per-view asset, no further processing
//  3. overlay cache hit
//  4. fresh overlay against the neutral baseline, then cached
//  5. no baseline -> ErrNotFound
func (r *VariantResolver) ResolveImage(ctx context.Context, product *models.ProductTemplate, color *models.ColorVariant, view models.View) (*ResolvedImage, error) {
	// 1. Real photography beats everything
	photo, found, err := r.assets.FindProductPhoto(ctx, product.Key, color.Name, view)
	if err != nil {
		log.Printf("⚠️  Photo lookup failed for %s/%s-%s: %v", product.Key, color.Name, view, err)
	}
	if found {
		return makeResolved(photo, SourcePhoto)
	}

	// 2. Direct-kind variants carry explicit pre-rendered assets
	if color.Kind == models.ColorKindDirect {
		url, ok := color.Assets[view]
		if !ok {
			return nil, fmt.Errorf("direct color %q has no asset for view %s: %w", color.Name, view, models.ErrNotFound)
		}
		data, err := r.assets.FetchURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch direct asset: %w", err)
		}
		return makeResolved(data, SourceDirect)
	}

	// 3. Previously synthesized overlay
	if cached, ok := r.cache.Get(product.ID, color.ID, view); ok {
		return makeResolved(cached, SourceCache)
	}

	// 4/5. Synthesize from the neutral baseline
	baseline, err := r.assets.FetchNeutralBaseline(ctx, product.Key, view)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s/%s-%s: %w", product.Key, color.Name, view, err)
	}

	target, err := utils.ParseHexColor(color.Hex)
	if err != nil {
		return nil, fmt.Errorf("color %q has invalid hex %q: %w", color.Name, color.Hex, err)
	}

	// Near-white targets bypass the pipeline entirely
	if !r.overlay.NeedsOverlay(target) {
		log.Printf("⬜ Color %q is near-white, using neutral baseline unmodified", color.Name)
		return makeResolved(baseline, SourceNeutral)
	}

	generated, err := r.overlay.OverlayBytes(baseline, color.Hex)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Put(product.ID, color.ID, view, generated); err != nil {
		// Cache trouble never blocks resolution
		log.Printf("⚠️  Failed to cache overlay for %s/%s-%s: %v", product.Key, color.Name, view, err)
	}

	return makeResolved(generated, SourceGenerated)
}

// ResolveTemplate adapts ResolveImage to the designer orchestrator's contract
func (r *VariantResolver) ResolveTemplate(ctx context.Context, product *models.ProductTemplate, color *models.ColorVariant, view models.View) (*designer.ResolvedTemplate, error) {
	resolved, err := r.ResolveImage(ctx, product, color, view)
	if err != nil {
		return nil, err
	}
	return &designer.ResolvedTemplate{
		Data:   resolved.Data,
		Width:  resolved.Width,
		Height: resolved.Height,
		Source: string(resolved.Source),
	}, nil
}

// makeResolved decodes the image header for dimensions and tags the source
func makeResolved(data []byte, source SourceKind) (*ResolvedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode resolved image (%s): %w", source, models.ErrAssetLoad)
	}
	return &ResolvedImage{
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Source: source,
	}, nil
}
