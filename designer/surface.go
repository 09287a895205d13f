package designer

import (
	"fmt"
	"log"
	"math"

	"promo-designer/models"
)

// AreaState is the per-print-area lifecycle of the design surface.
type AreaState string

const (
	AreaInactive      AreaState = "inactive"
	AreaLoading       AreaState = "loading"
	AreaActiveVisible AreaState = "activeVisible"
	AreaHidden        AreaState = "hidden"
)

// RotationStep is the angle increment of the rotate operation, in degrees.
const RotationStep = 15.0

// Nudge distances in authored pixels.
const (
	NudgeFine   = 1.0
	NudgeCoarse = 10.0
)

// TextMeasurer reports the native bounding box of a text run at a font size.
// The surface only needs a box for constraint math; the raster package
// installs a real font-backed measurer at wiring time.
type TextMeasurer func(text string, size float64) (w, h float64)

// estimateText is the fallback measurer: average glyph advance of ~55% of
// the em size, line height of 120%.
func estimateText(text string, size float64) (float64, float64) {
	return float64(len([]rune(text))) * size * 0.55, size * 1.2
}

// Surface owns the on-screen drawing state: the template node, print-area
// guide nodes, and the buyer's text/image objects. All mutation funnels
// through its methods; nodes carry an explicit role tag, never inferred.
type Surface struct {
	canvasW, canvasH float64

	template  *models.DesignObject
	templateW float64
	templateH float64
	fit       FitTransform

	guides  []*models.DesignObject
	objects []*models.DesignObject // user content, in z-order

	state      AreaState
	activeArea *models.PrintArea
	selectedID string
	zoom       float64
	nextID     int

	// MeasureText sizes new text objects. Replaceable for tests and for
	// the font-backed implementation in the raster package.
	MeasureText TextMeasurer
}

// NewSurface creates an empty surface for a canvas of the given display size
func NewSurface(canvasW, canvasH float64) *Surface {
	return &Surface{
		canvasW:     canvasW,
		canvasH:     canvasH,
		state:       AreaInactive,
		zoom:        1,
		fit:         FitTransform{Scale: 1},
		MeasureText: estimateText,
	}
}

// State returns the current per-print-area state
func (s *Surface) State() AreaState { return s.state }

// ActiveArea returns the active print area, nil when none
func (s *Surface) ActiveArea() *models.PrintArea { return s.activeArea }

// Fit returns the transform of the current render pass
func (s *Surface) Fit() FitTransform { return s.fit }

// Zoom returns the current zoom level
func (s *Surface) Zoom() float64 { return s.zoom }

// SetZoom adjusts the zoom level, clamped to a sane range
func (s *Surface) SetZoom(z float64) {
	if z < 0.1 {
		z = 0.1
	}
	if z > 8 {
		z = 8
	}
	s.zoom = z
}

// Template returns the template node, nil before the first swap
func (s *Surface) Template() *models.DesignObject { return s.template }

// TemplateSize returns the template's natural pixel dimensions
func (s *Surface) TemplateSize() (float64, float64) { return s.templateW, s.templateH }

// Objects returns the buyer's live objects in z-order
func (s *Surface) Objects() []*models.DesignObject {
	out := make([]*models.DesignObject, len(s.objects))
	copy(out, s.objects)
	return out
}

// Guides returns the live guide nodes
func (s *Surface) Guides() []*models.DesignObject {
	out := make([]*models.DesignObject, len(s.guides))
	copy(out, s.guides)
	return out
}

// SelectedID returns the id of the currently selected object, "" when none
func (s *Surface) SelectedID() string { return s.selectedID }

// SetTemplate swaps in a new template image and re-stabilizes the fit
// transform. Guides and constraints must be recomputed against this same
// transform afterwards; the orchestrator's render lock enforces that they
// never run against a stale one.
func (s *Surface) SetTemplate(sourceRef string, naturalW, naturalH float64) {
	s.templateW = naturalW
	s.templateH = naturalH
	s.fit = FitTemplate(naturalW, naturalH, s.canvasW, s.canvasH)

	s.template = &models.DesignObject{
		ID:        "template",
		Role:      models.RoleTemplate,
		Kind:      models.KindImage,
		SourceRef: sourceRef,
		Width:     naturalW,
		Height:    naturalH,
		Transform: models.Transform{
			X:      naturalW / 2,
			Y:      naturalH / 2,
			ScaleX: 1,
			ScaleY: 1,
			Anchor: "center",
		},
	}
}

// BeginArea starts a transition into the given print area. Re-selecting
// the currently active, visible area is a toggle: guides and unsaved live
// objects are cleared and the surface goes Hidden (any saved snapshot is
// untouched). Otherwise unsaved objects are discarded and the surface goes
// Loading. Returns true when the call was a toggle into Hidden.
func (s *Surface) BeginArea(area models.PrintArea) bool {
	if s.state == AreaActiveVisible && s.activeArea != nil && s.activeArea.Key == area.Key {
		log.Printf("👁  Print area %q toggled hidden, clearing unsaved objects", area.Key)
		s.guides = nil
		s.objects = nil
		s.selectedID = ""
		s.state = AreaHidden
		return true
	}

	s.guides = nil
	s.objects = nil
	s.selectedID = ""
	a := area
	s.activeArea = &a
	s.state = AreaLoading
	return false
}

// RenderGuides rebuilds the guide nodes for the given print areas against
// the current fit transform. Guides are excluded from save and from export.
func (s *Surface) RenderGuides(areas []models.PrintArea) {
	s.guides = s.guides[:0]
	for i := range areas {
		a := areas[i]
		s.guides = append(s.guides, &models.DesignObject{
			ID:     "guide-" + a.Key,
			Role:   models.RoleGuide,
			Width:  a.Width,
			Height: a.Height,
			Transform: models.Transform{
				X:      a.X + a.Width/2,
				Y:      a.Y + a.Height/2,
				ScaleX: 1,
				ScaleY: 1,
				Anchor: "center",
			},
		})
	}
}

// Activate marks the transition complete: Loading (or Hidden) -> ActiveVisible
func (s *Surface) Activate() {
	s.state = AreaActiveVisible
}

// Deactivate resets the surface to Inactive and drops all live nodes
func (s *Surface) Deactivate() {
	s.state = AreaInactive
	s.activeArea = nil
	s.guides = nil
	s.objects = nil
	s.selectedID = ""
}

// ClearUserObjects removes all live user-owned objects. Idempotent.
func (s *Surface) ClearUserObjects() {
	s.objects = nil
	s.selectedID = ""
}

func (s *Surface) newID() string {
	s.nextID++
	return fmt.Sprintf("obj-%d", s.nextID)
}

// requireActive guards object mutations: content can only be placed on an
// active, visible print area.
func (s *Surface) requireActive() error {
	if s.state != AreaActiveVisible || s.activeArea == nil {
		return fmt.Errorf("no active print area (state %s)", s.state)
	}
	return nil
}

// AddText places a new text object centered in the active print area
func (s *Surface) AddText(text, font string, fontSize float64, colorHex, align string) (*models.DesignObject, error) {
	if err := s.requireActive(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("text content is required")
	}
	if fontSize <= 0 {
		fontSize = 32
	}
	if align == "" {
		align = "center"
	}

	w, h := s.MeasureText(text, fontSize)
	obj := &models.DesignObject{
		ID:       s.newID(),
		Role:     models.RoleUserContent,
		Kind:     models.KindText,
		Text:     text,
		Font:     font,
		FontSize: fontSize,
		Color:    colorHex,
		Align:    align,
		Width:    w,
		Height:   h,
		Transform: models.Transform{
			X:      s.activeArea.X + s.activeArea.Width/2,
			Y:      s.activeArea.Y + s.activeArea.Height/2,
			ScaleX: 1,
			ScaleY: 1,
			Anchor: "center",
		},
	}

	s.objects = append(s.objects, obj)
	s.selectedID = obj.ID
	s.constrain(obj)
	return obj, nil
}

// AddImage places a new image object centered in the active print area.
// naturalW/H are the decoded source dimensions in pixels.
func (s *Surface) AddImage(sourceRef string, naturalW, naturalH float64) (*models.DesignObject, error) {
	if err := s.requireActive(); err != nil {
		return nil, err
	}
	if sourceRef == "" {
		return nil, fmt.Errorf("image source is required")
	}
	if naturalW <= 0 || naturalH <= 0 {
		return nil, fmt.Errorf("image dimensions must be positive, got %gx%g", naturalW, naturalH)
	}

	obj := &models.DesignObject{
		ID:        s.newID(),
		Role:      models.RoleUserContent,
		Kind:      models.KindImage,
		SourceRef: sourceRef,
		Width:     naturalW,
		Height:    naturalH,
		Transform: models.Transform{
			X:      s.activeArea.X + s.activeArea.Width/2,
			Y:      s.activeArea.Y + s.activeArea.Height/2,
			ScaleX: 1,
			ScaleY: 1,
			Anchor: "center",
		},
	}

	s.objects = append(s.objects, obj)
	s.selectedID = obj.ID
	s.constrain(obj)
	return obj, nil
}

// findObject returns the live user object with the given id
func (s *Surface) findObject(id string) (*models.DesignObject, error) {
	for _, o := range s.objects {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("object %q: %w", id, models.ErrNotFound)
}

// SelectObject marks an object as selected
func (s *Surface) SelectObject(id string) error {
	if _, err := s.findObject(id); err != nil {
		return err
	}
	s.selectedID = id
	return nil
}

// MoveObject translates an object by (dx, dy) authored pixels
func (s *Surface) MoveObject(id string, dx, dy float64) error {
	obj, err := s.findObject(id)
	if err != nil {
		return err
	}
	obj.Transform.X += dx
	obj.Transform.Y += dy
	s.constrain(obj)
	return nil
}

// NudgeObject moves an object one step in a cardinal direction: 1px, or
// 10px when coarse is set.
func (s *Surface) NudgeObject(id, direction string, coarse bool) error {
	step := NudgeFine
	if coarse {
		step = NudgeCoarse
	}

	switch direction {
	case "up":
		return s.MoveObject(id, 0, -step)
	case "down":
		return s.MoveObject(id, 0, step)
	case "left":
		return s.MoveObject(id, -step, 0)
	case "right":
		return s.MoveObject(id, step, 0)
	default:
		return fmt.Errorf("unknown nudge direction %q", direction)
	}
}

// ScaleObject multiplies the object's scale factors
func (s *Surface) ScaleObject(id string, factorX, factorY float64) error {
	obj, err := s.findObject(id)
	if err != nil {
		return err
	}
	if factorX <= 0 || factorY <= 0 {
		return fmt.Errorf("scale factors must be positive, got %g, %g", factorX, factorY)
	}
	obj.Transform.ScaleX *= factorX
	obj.Transform.ScaleY *= factorY
	s.constrain(obj)
	return nil
}

// RotateObject turns an object by whole 15-degree steps
func (s *Surface) RotateObject(id string, steps int) error {
	obj, err := s.findObject(id)
	if err != nil {
		return err
	}
	angle := obj.Transform.Rotation + float64(steps)*RotationStep
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	obj.Transform.Rotation = angle
	s.constrain(obj)
	return nil
}

// FlipObject mirrors an object across the given axis ("x" or "y")
func (s *Surface) FlipObject(id, axis string) error {
	obj, err := s.findObject(id)
	if err != nil {
		return err
	}
	switch axis {
	case "x":
		obj.Transform.FlipX = !obj.Transform.FlipX
	case "y":
		obj.Transform.FlipY = !obj.Transform.FlipY
	default:
		return fmt.Errorf("unknown flip axis %q", axis)
	}
	return nil
}

// DeleteObject removes a live user object
func (s *Surface) DeleteObject(id string) error {
	for i, o := range s.objects {
		if o.ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			if s.selectedID == id {
				s.selectedID = ""
			}
			return nil
		}
	}
	return fmt.Errorf("object %q: %w", id, models.ErrNotFound)
}

// boundingBox computes the object's axis-aligned bounding box in authored
// pixel space, accounting for scale and rotation around the center anchor.
func boundingBox(obj *models.DesignObject) Rect {
	w := obj.Width * obj.Transform.ScaleX
	h := obj.Height * obj.Transform.ScaleY
	rad := obj.Transform.Rotation * math.Pi / 180
	cos := math.Abs(math.Cos(rad))
	sin := math.Abs(math.Sin(rad))

	aabbW := w*cos + h*sin
	aabbH := w*sin + h*cos

	return Rect{
		X: obj.Transform.X - aabbW/2,
		Y: obj.Transform.Y - aabbH/2,
		W: aabbW,
		H: aabbH,
	}
}

// constrain enforces the active print area's limits on one object: if the
// bounding box exceeds the area's maximum width or height, downscale
// uniformly by the smaller required ratio (capped at 1.0, never upscale),
// then translate minimally so the box falls within the area's bounds.
func (s *Surface) constrain(obj *models.DesignObject) {
	area := s.activeArea
	if area == nil {
		return
	}

	box := boundingBox(obj)

	ratio := 1.0
	if area.MaxWidth > 0 && box.W > area.MaxWidth {
		if r := area.MaxWidth / box.W; r < ratio {
			ratio = r
		}
	}
	if area.MaxHeight > 0 && box.H > area.MaxHeight {
		if r := area.MaxHeight / box.H; r < ratio {
			ratio = r
		}
	}
	if ratio < 1 {
		obj.Transform.ScaleX *= ratio
		obj.Transform.ScaleY *= ratio
		box = boundingBox(obj)
	}

	bounds := Rect{X: area.X, Y: area.Y, W: area.Width, H: area.Height}

	// Clamp, not bounce: shift just enough per axis. When the box is
	// larger than the area the left/top edge wins.
	if box.MaxX() > bounds.MaxX() {
		obj.Transform.X -= box.MaxX() - bounds.MaxX()
		box = boundingBox(obj)
	}
	if box.X < bounds.X {
		obj.Transform.X += bounds.X - box.X
	}
	box = boundingBox(obj)
	if box.MaxY() > bounds.MaxY() {
		obj.Transform.Y -= box.MaxY() - bounds.MaxY()
		box = boundingBox(obj)
	}
	if box.Y < bounds.Y {
		obj.Transform.Y += bounds.Y - box.Y
	}
}

// restoreObject recreates a snapshot entry on the surface, reapplying the
// persisted transform verbatim. No constraint recomputation: the snapshot
// was valid when saved and must round-trip exactly.
func (s *Surface) restoreObject(entry models.SnapshotEntry) *models.DesignObject {
	obj := &models.DesignObject{
		ID:        s.newID(),
		Role:      models.RoleUserContent,
		Kind:      entry.Kind,
		Text:      entry.Text,
		Font:      entry.Font,
		FontSize:  entry.FontSize,
		Color:     entry.Color,
		Align:     entry.Align,
		SourceRef: entry.SourceRef,
		Width:     entry.Width,
		Height:    entry.Height,
		Transform: entry.Transform,
	}
	s.objects = append(s.objects, obj)
	return obj
}
