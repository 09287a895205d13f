package utils

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor parses "#RGB" or "#RRGGBB" (leading '#' optional) into an
// opaque NRGBA color.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")

	var r, g, b uint8
	switch len(h) {
	case 3:
		if _, err := fmt.Sscanf(h, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		// Expand each nibble: "f" -> 0xff
		r *= 17
		g *= 17
		b *= 17
	case 6:
		if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: expected 3 or 6 hex digits, got %d", s, len(h))
	}

	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// PerceivedBrightness returns the perceived brightness of a color on the
// 0..255 scale using the standard luminosity weights.
func PerceivedBrightness(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
