package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"

	"github.com/disintegration/imaging"

	"promo-designer/models"
	"promo-designer/utils"
)

const (
	// nearWhiteBrightness is the perceived-brightness cutoff above which a
	// target color needs no overlay: the neutral baseline already reads as
	// that color.
	nearWhiteBrightness = 240.0

	// alphaThreshold: pixels at or below this alpha are left untouched
	alphaThreshold = 8
)

// OverlayService synthesizes a colored product image from a neutral
// baseline photo and a target color. Pure over its inputs: no caching, no
// I/O beyond decode/encode at the byte-level entry points.
type OverlayService struct{}

// NewOverlayService creates a new OverlayService
func NewOverlayService() *OverlayService {
	return &OverlayService{}
}

// Ensure OverlayService implements OverlayServiceInterface
var _ OverlayServiceInterface = (*OverlayService)(nil)

// NeedsOverlay reports whether a target color requires synthesis at all.
// Near-white targets use the neutral baseline unmodified.
func (s *OverlayService) NeedsOverlay(target color.NRGBA) bool {
	return utils.PerceivedBrightness(target) < nearWhiteBrightness
}

// IntensityFor buckets the target color into 5 brightness bands and picks
// the blend intensity. Calibrated so dark targets do not wash out grey
// texture and light targets preserve the baseline fabric detail.
func (s *OverlayService) IntensityFor(target color.NRGBA) float64 {
	b := utils.PerceivedBrightness(target)
	switch {
	case b < 51: // very dark
		return 0.95
	case b < 102: // dark
		return 0.93
	case b < 153: // medium
		return 0.91
	case b < 204: // light
		return 0.89
	default: // very light
		return 0.88
	}
}

// Overlay tints every sufficiently opaque pixel of base toward target:
// the pixel's luminosity scales the target color, then the tinted value is
// blended with the original at the given intensity. Alpha is never touched.
func (s *OverlayService) Overlay(base image.Image, target color.NRGBA, intensity float64) *image.NRGBA {
	src := imaging.Clone(base)
	bounds := src.Bounds()

	tr := float64(target.R)
	tg := float64(target.G)
	tb := float64(target.B)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			a := row[x+3]
			if a <= alphaThreshold {
				continue
			}

			r := float64(row[x])
			g := float64(row[x+1])
			b := float64(row[x+2])

			// Luminosity normalized to [0,1] drives the tint strength
			lum := (0.299*r + 0.587*g + 0.114*b) / 255.0

			row[x] = blend(tr*lum, r, intensity)
			row[x+1] = blend(tg*lum, g, intensity)
			row[x+2] = blend(tb*lum, b, intensity)
		}
	}

	return src
}

// blendEpsilon absorbs float error at the .5 boundary so exact halves
// round up: 255*(1-0.9) evaluates to 25.4999... and must still become 26.
const blendEpsilon = 1e-9

func blend(tinted, original, intensity float64) uint8 {
	v := math.Round(tinted*intensity + original*(1-intensity) + blendEpsilon)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// OverlayBytes decodes a baseline image, applies the overlay for the given
// hex color at the classifier-selected intensity, and re-encodes as PNG.
// Decode failures are ErrAssetLoad so callers can fall back to the neutral
// baseline.
func (s *OverlayService) OverlayBytes(baseline []byte, hexColor string) ([]byte, error) {
	target, err := utils.ParseHexColor(hexColor)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(baseline))
	if err != nil {
		return nil, fmt.Errorf("failed to decode baseline image: %w", models.ErrAssetLoad)
	}

	intensity := s.IntensityFor(target)
	log.Printf("🎨 Overlay: format=%s bounds=%v color=%s intensity=%.2f", format, img.Bounds(), hexColor, intensity)

	out := s.Overlay(img, target, intensity)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode overlay image: %w", err)
	}
	return buf.Bytes(), nil
}
