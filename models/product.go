package models

import "fmt"

// View identifies which side of the product a template asset shows.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewLeft  View = "left"
	ViewRight View = "right"
)

// AllViews lists the closed set of supported views.
var AllViews = []View{ViewFront, ViewBack, ViewLeft, ViewRight}

// ParseView validates a view name coming from a request or a database row
func ParseView(s string) (View, error) {
	for _, v := range AllViews {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// ProductTemplate represents a customizable product as loaded when the
// Designer opens. PrintAreas starts empty and is refined per view as the
// buyer visits them; everything else is immutable after load.
type ProductTemplate struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	BasePrice   int64  `json:"basePrice"` // cents
	MinOrderQty int    `json:"minOrderQty"`

	PrintAreas map[View][]PrintArea `json:"printAreas,omitempty"`
}

// ColorKind discriminates how a color variant gets its template image.
type ColorKind string

const (
	// ColorKindOverlay variants are synthesized from the neutral baseline
	// through the overlay pipeline.
	ColorKindOverlay ColorKind = "overlay"
	// ColorKindDirect variants carry pre-rendered per-view assets and
	// bypass the pipeline entirely.
	ColorKindDirect ColorKind = "direct"
)

// ColorVariant is one orderable color of a product.
type ColorVariant struct {
	ID   int       `json:"id"`
	Name string    `json:"name"`
	Hex  string    `json:"hex,omitempty"` // "#RRGGBB", overlay kind only
	Kind ColorKind `json:"kind"`

	// Assets maps view -> asset URL for direct-kind variants.
	Assets map[View]string `json:"assets,omitempty"`
}

// PrintAreaShape is the drawable shape of a printable region.
type PrintAreaShape string

const (
	ShapeRectangle PrintAreaShape = "rectangle"
	ShapeCircle    PrintAreaShape = "circle"
	ShapeEllipse   PrintAreaShape = "ellipse"
)

// PrintArea is a printable region within a template, expressed in the
// authored asset's pixel space. Max sizes and physical sizes are optional
// (zero when unset).
type PrintArea struct {
	Key    string         `json:"areaKey"`
	Name   string         `json:"name"`
	Shape  PrintAreaShape `json:"shape"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`

	MaxWidth  float64 `json:"maxWidth,omitempty"`
	MaxHeight float64 `json:"maxHeight,omitempty"`

	WidthMm  float64 `json:"widthMm,omitempty"`
	HeightMm float64 `json:"heightMm,omitempty"`
}

// DefaultPrintAreaKey names the synthetic full-template region used when a
// product has no authored print areas at all.
const DefaultPrintAreaKey = "default"

// DefaultPrintArea builds the fallback full-area region for a template of
// the given natural size.
func DefaultPrintArea(naturalW, naturalH float64) PrintArea {
	return PrintArea{
		Key:    DefaultPrintAreaKey,
		Name:   "Full area",
		Shape:  ShapeRectangle,
		X:      0,
		Y:      0,
		Width:  naturalW,
		Height: naturalH,
	}
}
