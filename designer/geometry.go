package designer

// The design surface works in two coordinate spaces: the authored asset's
// native pixel space (where print areas and object placements live) and the
// canvas's display space. One FitTransform value projects between them and
// must be used for the template image, every guide and every constraint
// calculation of a single render pass.

// templateFillRatio is how much of the canvas's shorter constraint the
// template image occupies.
const templateFillRatio = 0.9

// FitTransform projects authored pixel coordinates onto the canvas:
// screen = authored*Scale + Offset.
type FitTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// FitTemplate computes the uniform scale and centering offset that make an
// asset of the given natural size occupy 90% of the canvas's shorter
// constraint while preserving aspect ratio.
func FitTemplate(naturalW, naturalH, canvasW, canvasH float64) FitTransform {
	if naturalW <= 0 || naturalH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return FitTransform{Scale: 1}
	}

	scaleX := canvasW / naturalW
	scaleY := canvasH / naturalH
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	scale *= templateFillRatio

	return FitTransform{
		Scale:   scale,
		OffsetX: (canvasW - naturalW*scale) / 2,
		OffsetY: (canvasH - naturalH*scale) / 2,
	}
}

// Project converts a point from authored pixel space to canvas space
func (t FitTransform) Project(x, y float64) (float64, float64) {
	return x*t.Scale + t.OffsetX, y*t.Scale + t.OffsetY
}

// Unproject converts a point from canvas space back to authored pixel space
func (t FitTransform) Unproject(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return 0, 0
	}
	return (x - t.OffsetX) / t.Scale, (y - t.OffsetY) / t.Scale
}

// Rect is an axis-aligned rectangle in authored pixel space
type Rect struct {
	X, Y, W, H float64
}

// MaxX returns the right edge
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Contains reports whether other lies fully inside r
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// ProjectRect converts a rectangle from authored pixel space to canvas space
func (t FitTransform) ProjectRect(r Rect) Rect {
	x, y := t.Project(r.X, r.Y)
	return Rect{X: x, Y: y, W: r.W * t.Scale, H: r.H * t.Scale}
}
