package designer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"promo-designer/models"
)

// fakeMetadata serves a single product in memory and counts loader calls.
type fakeMetadata struct {
	product        *models.ProductTemplate
	colors         []models.ColorVariant
	areas          map[models.View][]models.PrintArea
	printAreaCalls int
}

func (f *fakeMetadata) GetProductByKey(ctx context.Context, key string) (*models.ProductTemplate, error) {
	if f.product == nil || f.product.Key != key {
		return nil, fmt.Errorf("product %q: %w", key, models.ErrNotFound)
	}
	p := *f.product
	p.PrintAreas = make(map[models.View][]models.PrintArea)
	return &p, nil
}

func (f *fakeMetadata) ListColorVariants(ctx context.Context, productID int) ([]models.ColorVariant, error) {
	return f.colors, nil
}

func (f *fakeMetadata) ListPrintAreas(ctx context.Context, productID int, view models.View) ([]models.PrintArea, error) {
	f.printAreaCalls++
	return f.areas[view], nil
}

// fakeResolver returns a fixed-size template and counts resolutions.
type fakeResolver struct {
	calls int
	fail  error
}

func (f *fakeResolver) ResolveTemplate(ctx context.Context, product *models.ProductTemplate, color *models.ColorVariant, view models.View) (*ResolvedTemplate, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return &ResolvedTemplate{
		Data:   []byte("png"),
		Width:  800,
		Height: 600,
		Source: "generated",
	}, nil
}

func testMetadata() *fakeMetadata {
	return &fakeMetadata{
		product: &models.ProductTemplate{
			ID:   7,
			Key:  "classic-tee",
			Name: "Classic Tee",
		},
		colors: []models.ColorVariant{
			{ID: 1, Name: "white", Hex: "#ffffff", Kind: models.ColorKindOverlay},
			{ID: 2, Name: "navy-blue", Hex: "#1a3552", Kind: models.ColorKindOverlay},
			{ID: 3, Name: "red", Hex: "#cc0000", Kind: models.ColorKindDirect},
		},
		areas: map[models.View][]models.PrintArea{
			models.ViewFront: {chestArea()},
			models.ViewBack: {{
				Key: "full_back", Name: "Full Back", Shape: models.ShapeRectangle,
				X: 50, Y: 50, Width: 700, Height: 500, MaxWidth: 400, MaxHeight: 400,
			}},
		},
	}
}

func testOrchestrator(t *testing.T, meta *fakeMetadata, resolver *fakeResolver) *Orchestrator {
	t.Helper()
	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	return NewOrchestrator(meta, resolver, store, NewSurface(1000, 800))
}

func TestSelectProductReachesReady(t *testing.T) {
	meta := testMetadata()
	resolver := &fakeResolver{}
	o := testOrchestrator(t, meta, resolver)

	if o.State() != StateIdle {
		t.Fatalf("initial state = %s", o.State())
	}
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}
	if o.State() != StateReady {
		t.Fatalf("state = %s, want %s", o.State(), StateReady)
	}

	sel := o.Selection()
	if sel.ProductKey != "classic-tee" || sel.View != models.ViewFront {
		t.Errorf("selection = %+v", sel)
	}
	// First color is the default
	if sel.ColorName != "white" {
		t.Errorf("default color = %q, want white", sel.ColorName)
	}
	if sel.PrintAreaKey != "chest" {
		t.Errorf("default print area = %q, want chest", sel.PrintAreaKey)
	}
	if len(o.Colors()) != 3 {
		t.Errorf("colors = %d, want 3", len(o.Colors()))
	}
	if resolver.calls != 1 {
		t.Errorf("template resolutions = %d, want 1", resolver.calls)
	}
	err := o.WithSurface(func(s *Surface) error {
		if s.State() != AreaActiveVisible {
			return fmt.Errorf("surface state %s", s.State())
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestSelectUnknownProduct(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	err := o.SelectProduct(context.Background(), "mystery-mug")
	if err == nil || !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestColorChangeSkipsPrintAreaReload(t *testing.T) {
	meta := testMetadata()
	resolver := &fakeResolver{}
	o := testOrchestrator(t, meta, resolver)

	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}
	if meta.printAreaCalls != 1 {
		t.Fatalf("print area loads after product select = %d, want 1", meta.printAreaCalls)
	}

	// N color switches: the template re-resolves each time, the print-area
	// loader is never touched again
	for _, name := range []string{"navy-blue", "red", "white", "navy-blue"} {
		if err := o.SelectColor(context.Background(), name); err != nil {
			t.Fatalf("SelectColor(%s): %v", name, err)
		}
	}
	if meta.printAreaCalls != 1 {
		t.Errorf("print area loads after color switches = %d, want 1", meta.printAreaCalls)
	}
	if resolver.calls != 5 {
		t.Errorf("template resolutions = %d, want 5", resolver.calls)
	}
	if sel := o.Selection(); sel.ColorName != "navy-blue" {
		t.Errorf("color = %q", sel.ColorName)
	}
}

func TestViewChangeLoadsAreasOnceThenCaches(t *testing.T) {
	meta := testMetadata()
	o := testOrchestrator(t, meta, &fakeResolver{})

	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	if err := o.SelectView(context.Background(), models.ViewBack); err != nil {
		t.Fatalf("SelectView(back): %v", err)
	}
	if meta.printAreaCalls != 2 {
		t.Fatalf("print area loads = %d, want 2 after first back switch", meta.printAreaCalls)
	}
	if sel := o.Selection(); sel.PrintAreaKey != "full_back" {
		t.Errorf("print area = %q, want full_back", sel.PrintAreaKey)
	}

	// Revisits hit the per-view cache on the product
	if err := o.SelectView(context.Background(), models.ViewFront); err != nil {
		t.Fatalf("SelectView(front): %v", err)
	}
	if err := o.SelectView(context.Background(), models.ViewBack); err != nil {
		t.Fatalf("SelectView(back) again: %v", err)
	}
	if meta.printAreaCalls != 2 {
		t.Errorf("print area loads = %d, want 2 after revisits", meta.printAreaCalls)
	}
}

func TestUnknownColorIsRejected(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}
	err := o.SelectColor(context.Background(), "chartreuse")
	if err == nil || !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// The selection stays untouched
	if sel := o.Selection(); sel.ColorName != "white" {
		t.Errorf("color = %q, want white", sel.ColorName)
	}
}

func TestGuideRenderDroppedWhileSwapInFlight(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	snap := o.Selection()
	o.mu.Lock()
	o.renderLock = true
	o.mu.Unlock()

	err := o.renderGuidePass(snap)
	if !errors.Is(err, models.ErrRaceGuardSkip) {
		t.Fatalf("err = %v, want ErrRaceGuardSkip", err)
	}

	o.mu.Lock()
	pending := o.guidesPending
	o.renderLock = false
	o.mu.Unlock()
	if !pending {
		t.Error("dropped guide render did not set the pending flag")
	}
}

func TestPendingGuidesRetriggerAfterSwap(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	o.mu.Lock()
	o.renderLock = true
	o.mu.Unlock()
	if err := o.renderGuidePass(o.Selection()); !errors.Is(err, models.ErrRaceGuardSkip) {
		t.Fatalf("err = %v, want ErrRaceGuardSkip", err)
	}
	o.mu.Lock()
	o.renderLock = false
	o.mu.Unlock()

	// The next transition finishes the swap and flushes the pending render
	if err := o.SelectColor(context.Background(), "red"); err != nil {
		t.Fatalf("SelectColor: %v", err)
	}
	o.mu.Lock()
	pending := o.guidesPending
	o.mu.Unlock()
	if pending {
		t.Error("pending flag survived the next template swap")
	}
	err := o.WithSurface(func(s *Surface) error {
		if len(s.Guides()) == 0 {
			return fmt.Errorf("no guides after re-trigger")
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	// Capture the context, then change the selection underneath it: every
	// late apply must report a stale result.
	snap := o.Selection()
	o.mu.Lock()
	o.sel.ColorName = "red"
	o.mu.Unlock()

	if err := o.renderGuidePass(snap); !errors.Is(err, models.ErrStaleResult) {
		t.Errorf("guide render err = %v, want ErrStaleResult", err)
	}
	if err := o.activateAndRestore(snap); !errors.Is(err, models.ErrStaleResult) {
		t.Errorf("restore err = %v, want ErrStaleResult", err)
	}
	if err := o.swapTemplate(context.Background(), snap); !errors.Is(err, models.ErrStaleResult) {
		t.Errorf("swap err = %v, want ErrStaleResult", err)
	}
}

func TestSelectPrintAreaToggleAndAutoSelect(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	// Re-selecting the active area hides it
	hidden, err := o.SelectPrintArea(context.Background(), "chest")
	if err != nil {
		t.Fatalf("SelectPrintArea: %v", err)
	}
	if !hidden {
		t.Fatal("re-selecting the active area should hide it")
	}

	// An unknown key falls back to the first loaded area, reactivating it
	hidden, err = o.SelectPrintArea(context.Background(), "sleeve_left")
	if err != nil {
		t.Fatalf("SelectPrintArea(unknown): %v", err)
	}
	if hidden {
		t.Fatal("auto-select from Hidden reported a toggle")
	}
	if sel := o.Selection(); sel.PrintAreaKey != "chest" {
		t.Errorf("print area = %q, want auto-selected chest", sel.PrintAreaKey)
	}
	err = o.WithSurface(func(s *Surface) error {
		if s.State() != AreaActiveVisible {
			return fmt.Errorf("surface state %s", s.State())
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestZeroPrintAreasSynthesizeFullAreaDefault(t *testing.T) {
	meta := testMetadata()
	meta.areas[models.ViewLeft] = nil
	o := testOrchestrator(t, meta, &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	if err := o.SelectView(context.Background(), models.ViewLeft); err != nil {
		t.Fatalf("SelectView(left): %v", err)
	}
	if o.State() != StateReady {
		t.Fatalf("state = %s", o.State())
	}

	areas := o.PrintAreas()
	if len(areas) != 1 || areas[0].Key != models.DefaultPrintAreaKey {
		t.Fatalf("areas = %+v, want one synthesized default", areas)
	}
	if sel := o.Selection(); sel.PrintAreaKey != models.DefaultPrintAreaKey {
		t.Errorf("print area = %q, want %q", sel.PrintAreaKey, models.DefaultPrintAreaKey)
	}
	// The default spans the placed template
	err := o.WithSurface(func(s *Surface) error {
		w, h := s.TemplateSize()
		if areas[0].Width != w || areas[0].Height != h {
			return fmt.Errorf("default area %gx%g, template %gx%g", areas[0].Width, areas[0].Height, w, h)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestTemplateFailureDegradesToLastKnownGood(t *testing.T) {
	resolver := &fakeResolver{}
	o := testOrchestrator(t, testMetadata(), resolver)
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}
	good := o.Template()
	if good == nil {
		t.Fatal("no template after product select")
	}

	resolver.fail = fmt.Errorf("variant missing: %w", models.ErrNotFound)
	if err := o.SelectColor(context.Background(), "navy-blue"); err != nil {
		t.Fatalf("SelectColor with failing resolver: %v", err)
	}
	if o.State() != StateReady {
		t.Errorf("state = %s, want %s", o.State(), StateReady)
	}
	if o.Template() != good {
		t.Error("template was replaced despite the resolution failure")
	}
}

func TestTemplateFailureWithNoFallbackFails(t *testing.T) {
	resolver := &fakeResolver{fail: fmt.Errorf("variant missing: %w", models.ErrNotFound)}
	o := testOrchestrator(t, testMetadata(), resolver)

	err := o.SelectProduct(context.Background(), "classic-tee")
	if err == nil {
		t.Fatal("expected the first load to fail with no fallback template")
	}
}

func TestSaveRestoreRequireReady(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if _, err := o.Save(); err == nil {
		t.Error("Save before Ready should fail")
	}
	if _, err := o.Restore(); err == nil {
		t.Error("Restore before Ready should fail")
	}
}

func TestSaveRestoreThroughOrchestrator(t *testing.T) {
	o := testOrchestrator(t, testMetadata(), &fakeResolver{})
	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	err := o.WithSurface(func(s *Surface) error {
		_, err := s.AddText("promo", "", 36, "#000000", "center")
		return err
	})
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	snap, err := o.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("saved entries = %d, want 1", len(snap.Entries))
	}

	// Switch color and back: the tuple changes, so the design reappears
	// only on the saved tuple
	if err := o.SelectColor(context.Background(), "red"); err != nil {
		t.Fatalf("SelectColor(red): %v", err)
	}
	err = o.WithSurface(func(s *Surface) error {
		if n := len(s.Objects()); n != 0 {
			return fmt.Errorf("red tuple has %d objects, want 0", n)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}

	if err := o.SelectColor(context.Background(), "white"); err != nil {
		t.Fatalf("SelectColor(white): %v", err)
	}
	err = o.WithSurface(func(s *Surface) error {
		if n := len(s.Objects()); n != 1 {
			return fmt.Errorf("white tuple has %d objects, want 1", n)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestProductIsDetachedCopy(t *testing.T) {
	meta := testMetadata()
	resolver := &fakeResolver{}
	o := testOrchestrator(t, meta, resolver)

	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	p := o.Product()
	if p == nil {
		t.Fatal("Product returned nil after load")
	}
	p.Name = "scribbled"
	p.PrintAreas[models.ViewFront] = nil
	p.PrintAreas[models.ViewLeft] = []models.PrintArea{{Key: "bogus"}}

	q := o.Product()
	if q.Name != "Classic Tee" {
		t.Errorf("internal name = %q, caller mutation leaked", q.Name)
	}
	if len(q.PrintAreas[models.ViewFront]) == 0 {
		t.Error("internal front areas cleared by caller mutation")
	}
	if _, ok := q.PrintAreas[models.ViewLeft]; ok {
		t.Error("caller-added view leaked into internal template")
	}
}

func TestProductReadsSafeDuringTransitions(t *testing.T) {
	meta := testMetadata()
	resolver := &fakeResolver{}
	o := testOrchestrator(t, meta, resolver)

	if err := o.SelectProduct(context.Background(), "classic-tee"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := o.SelectView(context.Background(), models.ViewBack); err != nil {
				t.Errorf("SelectView back: %v", err)
				return
			}
			if err := o.SelectView(context.Background(), models.ViewFront); err != nil {
				t.Errorf("SelectView front: %v", err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			p := o.Product()
			if _, err := json.Marshal(p); err != nil {
				t.Fatalf("marshal product view: %v", err)
			}
		}
	}
}
