package designer

import (
	"math"
	"testing"

	"promo-designer/models"
)

func chestArea() models.PrintArea {
	return models.PrintArea{
		Key:       "chest",
		Name:      "Chest",
		Shape:     models.ShapeRectangle,
		X:         100,
		Y:         100,
		Width:     600,
		Height:    400,
		MaxWidth:  300,
		MaxHeight: 300,
	}
}

func activeSurface(t *testing.T, area models.PrintArea) *Surface {
	t.Helper()
	s := NewSurface(1000, 800)
	s.SetTemplate("template:test", 800, 600)
	if toggled := s.BeginArea(area); toggled {
		t.Fatal("fresh activation should not toggle")
	}
	s.RenderGuides([]models.PrintArea{area})
	s.Activate()
	return s
}

func TestUniformDownscaleUsesMinimumRatio(t *testing.T) {
	// 600x300 object in a 300x300 max: width needs 0.5, height 1.0.
	// The uniform scale must be 0.5, producing 300x150, never 300x300.
	s := activeSurface(t, chestArea())

	obj, err := s.AddImage("uploads/logo.png", 600, 300)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	if obj.Transform.ScaleX != 0.5 || obj.Transform.ScaleY != 0.5 {
		t.Fatalf("scale = (%g, %g), want (0.5, 0.5)", obj.Transform.ScaleX, obj.Transform.ScaleY)
	}

	box := boundingBox(obj)
	if math.Abs(box.W-300) > 1e-9 || math.Abs(box.H-150) > 1e-9 {
		t.Errorf("bounding box = %gx%g, want 300x150", box.W, box.H)
	}
}

func TestConstraintNeverUpscales(t *testing.T) {
	s := activeSurface(t, chestArea())

	obj, err := s.AddImage("uploads/small.png", 50, 50)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if obj.Transform.ScaleX != 1 || obj.Transform.ScaleY != 1 {
		t.Errorf("small object was rescaled to (%g, %g)", obj.Transform.ScaleX, obj.Transform.ScaleY)
	}
}

func TestMoveClampsIntoPrintArea(t *testing.T) {
	area := chestArea()
	s := activeSurface(t, area)

	obj, err := s.AddImage("uploads/logo.png", 100, 100)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	// Drag far outside: the object must be clamped back, not bounced
	if err := s.MoveObject(obj.ID, 5000, 5000); err != nil {
		t.Fatalf("MoveObject: %v", err)
	}

	box := boundingBox(obj)
	bounds := Rect{X: area.X, Y: area.Y, W: area.Width, H: area.Height}
	if !bounds.Contains(box) {
		t.Errorf("bounding box %+v escaped print area %+v", box, bounds)
	}
	// Clamp pins to the far edge
	if math.Abs(box.MaxX()-bounds.MaxX()) > 1e-9 || math.Abs(box.MaxY()-bounds.MaxY()) > 1e-9 {
		t.Errorf("object not clamped to the edge: box %+v", box)
	}
}

func TestRotationAppliesFifteenDegreeSteps(t *testing.T) {
	s := activeSurface(t, chestArea())
	obj, _ := s.AddImage("uploads/logo.png", 50, 50)

	if err := s.RotateObject(obj.ID, 2); err != nil {
		t.Fatalf("RotateObject: %v", err)
	}
	if obj.Transform.Rotation != 30 {
		t.Errorf("rotation = %g, want 30", obj.Transform.Rotation)
	}

	if err := s.RotateObject(obj.ID, -4); err != nil {
		t.Fatalf("RotateObject: %v", err)
	}
	if obj.Transform.Rotation != 330 {
		t.Errorf("rotation = %g, want 330 after wrapping", obj.Transform.Rotation)
	}
}

func TestRotationGrowsBoundingBox(t *testing.T) {
	area := chestArea()
	area.MaxWidth = 0
	area.MaxHeight = 0
	s := activeSurface(t, area)

	obj, _ := s.AddImage("uploads/logo.png", 200, 100)
	if err := s.RotateObject(obj.ID, 6); err != nil { // 90 degrees
		t.Fatalf("RotateObject: %v", err)
	}

	box := boundingBox(obj)
	if math.Abs(box.W-100) > 1e-6 || math.Abs(box.H-200) > 1e-6 {
		t.Errorf("rotated bounding box = %gx%g, want 100x200", box.W, box.H)
	}
}

func TestNudgeDistances(t *testing.T) {
	s := activeSurface(t, chestArea())
	obj, _ := s.AddImage("uploads/logo.png", 50, 50)

	x := obj.Transform.X
	if err := s.NudgeObject(obj.ID, "right", false); err != nil {
		t.Fatalf("NudgeObject: %v", err)
	}
	if obj.Transform.X != x+1 {
		t.Errorf("fine nudge moved %g, want 1", obj.Transform.X-x)
	}

	x = obj.Transform.X
	if err := s.NudgeObject(obj.ID, "left", true); err != nil {
		t.Fatalf("NudgeObject: %v", err)
	}
	if obj.Transform.X != x-10 {
		t.Errorf("coarse nudge moved %g, want -10", obj.Transform.X-x)
	}
}

func TestFlipToggles(t *testing.T) {
	s := activeSurface(t, chestArea())
	obj, _ := s.AddImage("uploads/logo.png", 50, 50)

	s.FlipObject(obj.ID, "x")
	if !obj.Transform.FlipX {
		t.Error("first flip should set FlipX")
	}
	s.FlipObject(obj.ID, "x")
	if obj.Transform.FlipX {
		t.Error("second flip should clear FlipX")
	}
}

func TestAddRequiresActiveVisibleArea(t *testing.T) {
	s := NewSurface(1000, 800)
	s.SetTemplate("template:test", 800, 600)

	if _, err := s.AddText("hello", "", 32, "#000000", "center"); err == nil {
		t.Fatal("expected error adding text with no active print area")
	}
}

func TestDoubleActivationTogglesHidden(t *testing.T) {
	area := chestArea()
	s := activeSurface(t, area)

	if _, err := s.AddText("hello", "", 32, "#000000", "center"); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if len(s.Objects()) != 1 || len(s.Guides()) != 1 {
		t.Fatalf("setup: objects=%d guides=%d", len(s.Objects()), len(s.Guides()))
	}

	// Re-selecting the active, visible area hides guides and clears
	// unsaved live objects
	if toggled := s.BeginArea(area); !toggled {
		t.Fatal("re-selecting the active visible area should toggle")
	}
	if s.State() != AreaHidden {
		t.Errorf("state = %s, want %s", s.State(), AreaHidden)
	}
	if len(s.Objects()) != 0 {
		t.Errorf("unsaved objects survived the toggle: %d", len(s.Objects()))
	}
	if len(s.Guides()) != 0 {
		t.Errorf("guides survived the toggle: %d", len(s.Guides()))
	}

	// Selecting again from Hidden re-enters the loading path
	if toggled := s.BeginArea(area); toggled {
		t.Fatal("activation from Hidden should not toggle")
	}
	if s.State() != AreaLoading {
		t.Errorf("state = %s, want %s", s.State(), AreaLoading)
	}
}

func TestDeleteObject(t *testing.T) {
	s := activeSurface(t, chestArea())
	obj, _ := s.AddText("bye", "", 32, "#000000", "center")

	if err := s.DeleteObject(obj.ID); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if len(s.Objects()) != 0 {
		t.Errorf("object survived deletion")
	}
	if err := s.DeleteObject(obj.ID); err == nil {
		t.Error("deleting twice should fail")
	}
}

func TestGuideNodesAreRoleTagged(t *testing.T) {
	s := activeSurface(t, chestArea())

	for _, g := range s.Guides() {
		if g.Role != models.RoleGuide {
			t.Errorf("guide role = %s", g.Role)
		}
	}
	if tmpl := s.Template(); tmpl == nil || tmpl.Role != models.RoleTemplate {
		t.Error("template node missing or mis-tagged")
	}
}
