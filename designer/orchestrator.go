package designer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"promo-designer/models"
)

// State names one stage of the designer's load sequence.
type State string

const (
	StateIdle              State = "idle"
	StateProductsLoading   State = "productsLoading"
	StateColorsLoading     State = "colorsLoading"
	StatePrintAreasLoading State = "printAreasLoading"
	StateTemplateSwapping  State = "templateSwapping"
	StateReady             State = "ready"
)

// legalPredecessors encodes which states a transition may be entered from.
// Restart edges exist because the buyer can change product, view or color
// while an earlier transition is still in flight; the stale-context checks
// make the superseded transition discard its results.
var legalPredecessors = map[State][]State{
	StateProductsLoading:   {StateIdle},
	StateColorsLoading:     {StateProductsLoading, StateColorsLoading, StatePrintAreasLoading, StateTemplateSwapping, StateReady},
	StatePrintAreasLoading: {StateColorsLoading, StatePrintAreasLoading, StateTemplateSwapping, StateReady},
	StateTemplateSwapping:  {StatePrintAreasLoading, StateTemplateSwapping, StateReady},
	StateReady:             {StateTemplateSwapping, StateReady},
}

// SelectionContext is the immutable identity of one designer selection.
// Every async step captures a copy when it starts and compares it against
// the current value before applying results; a mismatch means the result
// is stale and must be discarded.
type SelectionContext struct {
	ProductKey   string      `json:"productKey"`
	ColorName    string      `json:"colorName"`
	View         models.View `json:"view"`
	PrintAreaKey string      `json:"printAreaKey"`
}

// MetadataProvider supplies product, color and print-area records. The
// repository package implements it against Postgres.
type MetadataProvider interface {
	GetProductByKey(ctx context.Context, key string) (*models.ProductTemplate, error)
	ListColorVariants(ctx context.Context, productID int) ([]models.ColorVariant, error)
	ListPrintAreas(ctx context.Context, productID int, view models.View) ([]models.PrintArea, error)
}

// ResolvedTemplate is a template image ready for the surface.
type ResolvedTemplate struct {
	Data   []byte
	Width  int
	Height int
	Source string // photo | direct | cache | generated | neutral
}

// TemplateResolver turns (product, color, view) into a template image.
// The service package implements it with the variant-resolution chain.
type TemplateResolver interface {
	ResolveTemplate(ctx context.Context, product *models.ProductTemplate, color *models.ColorVariant, view models.View) (*ResolvedTemplate, error)
}

func isNotFound(err error) bool { return errors.Is(err, models.ErrNotFound) }

// Orchestrator sequences product selection -> color/print-area loading ->
// template swap -> guide render -> snapshot restore for one designer
// session, guarding against races between overlapping transitions.
type Orchestrator struct {
	mu sync.Mutex

	meta      MetadataProvider
	resolver  TemplateResolver
	snapshots *SnapshotStore
	surface   *Surface

	state   State
	sel     SelectionContext
	product *models.ProductTemplate
	colors  []models.ColorVariant
	areas   []models.PrintArea // current view

	template *ResolvedTemplate

	// renderLock prevents the guide render from running mid-swap. A
	// blocked render is dropped, not queued; guidesPending re-triggers it
	// once the swap finishes.
	renderLock    bool
	guidesPending bool
}

// NewOrchestrator creates an orchestrator in the Idle state
func NewOrchestrator(meta MetadataProvider, resolver TemplateResolver, snapshots *SnapshotStore, surface *Surface) *Orchestrator {
	return &Orchestrator{
		meta:      meta,
		resolver:  resolver,
		snapshots: snapshots,
		surface:   surface,
		state:     StateIdle,
	}
}

// toState moves the machine to next, enforcing legal predecessors. Caller
// must hold the mutex.
func (o *Orchestrator) toState(next State) error {
	for _, prev := range legalPredecessors[next] {
		if o.state == prev {
			log.Printf("🔁 Designer state: %s -> %s", o.state, next)
			o.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", o.state, next)
}

// stillCurrent reports whether a captured selection context still matches
// the live one. Caller must hold the mutex.
func (o *Orchestrator) stillCurrent(snap SelectionContext) bool {
	return o.sel == snap
}

func (o *Orchestrator) discard(snap SelectionContext, what string) error {
	log.Printf("🗑  %s result discarded: captured=%+v current=%+v", what, snap, o.sel)
	return fmt.Errorf("%s: %w", what, models.ErrStaleResult)
}

// State returns the current machine state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Selection returns the current selection context
func (o *Orchestrator) Selection() SelectionContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sel
}

// Product returns a detached copy of the loaded product template, nil
// before the first load. The internal template keeps gaining cached print
// areas on view changes, so callers never get the live map.
func (o *Orchestrator) Product() *models.ProductTemplate {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.product == nil {
		return nil
	}
	out := *o.product
	out.PrintAreas = make(map[models.View][]models.PrintArea, len(o.product.PrintAreas))
	for view, areas := range o.product.PrintAreas {
		copied := make([]models.PrintArea, len(areas))
		copy(copied, areas)
		out.PrintAreas[view] = copied
	}
	return &out
}

// Colors returns the loaded color variants for the current product
func (o *Orchestrator) Colors() []models.ColorVariant {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.ColorVariant, len(o.colors))
	copy(out, o.colors)
	return out
}

// PrintAreas returns the print areas of the current view
func (o *Orchestrator) PrintAreas() []models.PrintArea {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.PrintArea, len(o.areas))
	copy(out, o.areas)
	return out
}

// Surface returns the session's design surface. Callers must route all
// mutation through the orchestrator's WithSurface to stay serialized.
func (o *Orchestrator) WithSurface(fn func(s *Surface) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fn(o.surface)
}

// Template returns the currently resolved template image, nil before the
// first successful swap.
func (o *Orchestrator) Template() *ResolvedTemplate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.template
}

// SnapshotKey returns the persisted-store key of the current tuple
func (o *Orchestrator) SnapshotKey() models.SnapshotKey {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotKeyLocked()
}

func (o *Orchestrator) snapshotKeyLocked() models.SnapshotKey {
	return models.SnapshotKey{
		ProductKey:   o.sel.ProductKey,
		ColorName:    o.sel.ColorName,
		View:         o.sel.View,
		PrintAreaKey: o.sel.PrintAreaKey,
	}
}

func (o *Orchestrator) colorByNameLocked(name string) (*models.ColorVariant, error) {
	for i := range o.colors {
		if o.colors[i].Name == name {
			return &o.colors[i], nil
		}
	}
	return nil, fmt.Errorf("color %q: %w", name, models.ErrNotFound)
}

// SelectProduct loads a product and its color variants, then runs the full
// transition into the front view with the first color.
func (o *Orchestrator) SelectProduct(ctx context.Context, productKey string) error {
	o.mu.Lock()
	var err error
	if o.state == StateIdle {
		err = o.toState(StateProductsLoading)
	}
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.sel = SelectionContext{ProductKey: productKey}
	snap := o.sel
	o.mu.Unlock()

	product, err := o.meta.GetProductByKey(ctx, productKey)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	o.mu.Lock()
	if !o.stillCurrent(snap) {
		o.mu.Unlock()
		return o.discard(snap, "product load")
	}
	o.product = product
	o.surface.Deactivate()
	if err := o.toState(StateColorsLoading); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	colors, err := o.meta.ListColorVariants(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load color variants: %w", err)
	}
	if len(colors) == 0 {
		return fmt.Errorf("product %q has no color variants: %w", productKey, models.ErrNotFound)
	}

	o.mu.Lock()
	if !o.stillCurrent(snap) {
		o.mu.Unlock()
		return o.discard(snap, "color load")
	}
	o.colors = colors
	o.sel.ColorName = colors[0].Name
	o.mu.Unlock()

	return o.transitionView(ctx, models.ViewFront)
}

// SelectView switches to a different view: print areas reload (or come
// from the per-view cache on the product), then the template swaps.
func (o *Orchestrator) SelectView(ctx context.Context, view models.View) error {
	o.mu.Lock()
	if o.product == nil {
		o.mu.Unlock()
		return fmt.Errorf("no product selected")
	}
	o.mu.Unlock()
	return o.transitionView(ctx, view)
}

func (o *Orchestrator) transitionView(ctx context.Context, view models.View) error {
	o.mu.Lock()
	if err := o.toState(StatePrintAreasLoading); err != nil {
		o.mu.Unlock()
		return err
	}
	o.sel.View = view
	o.sel.PrintAreaKey = ""
	snap := o.sel
	product := o.product
	cached, haveCached := product.PrintAreas[view]
	o.mu.Unlock()

	var areas []models.PrintArea
	if haveCached {
		areas = cached
	} else {
		loaded, err := o.meta.ListPrintAreas(ctx, product.ID, view)
		if err != nil {
			return fmt.Errorf("failed to load print areas: %w", err)
		}
		areas = loaded
	}

	o.mu.Lock()
	if snap.ProductKey != o.sel.ProductKey || snap.View != o.sel.View {
		o.mu.Unlock()
		return o.discard(snap, "print area load")
	}
	if !haveCached {
		product.PrintAreas[view] = areas
	}
	o.areas = areas
	snap = o.sel
	o.mu.Unlock()

	return o.completeTransition(ctx, snap)
}

// SelectColor swaps only the template for the current view. Print areas
// are untouched: re-fetching them on a color change would flicker the
// guides for no reason, since print areas do not vary with color.
// Selecting the already-current color is idempotent and re-triggerable.
func (o *Orchestrator) SelectColor(ctx context.Context, colorName string) error {
	o.mu.Lock()
	if o.product == nil {
		o.mu.Unlock()
		return fmt.Errorf("no product selected")
	}
	if _, err := o.colorByNameLocked(colorName); err != nil {
		o.mu.Unlock()
		return err
	}
	o.sel.ColorName = colorName
	snap := o.sel
	o.mu.Unlock()

	return o.completeTransition(ctx, snap)
}

// SelectPrintArea activates a print area of the current view. Re-selecting
// the active, visible area toggles it Hidden (returns hidden=true). When
// the requested key is not among the loaded areas (a race with a view
// switch), the first available area is auto-selected instead of failing.
func (o *Orchestrator) SelectPrintArea(ctx context.Context, areaKey string) (hidden bool, err error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return false, fmt.Errorf("designer not ready (state %s)", o.state)
	}

	area, ok := o.areaByKeyLocked(areaKey)
	if !ok {
		if len(o.areas) == 0 {
			o.mu.Unlock()
			return false, fmt.Errorf("no print areas loaded: %w", models.ErrNotFound)
		}
		log.Printf("⚠️  Print area %q not found, auto-selecting %q", areaKey, o.areas[0].Key)
		area = o.areas[0]
	}

	toggled := o.surface.BeginArea(area)
	o.sel.PrintAreaKey = area.Key
	if toggled {
		o.mu.Unlock()
		return true, nil
	}
	snap := o.sel
	o.mu.Unlock()

	// Same template, so only guides + restore are needed
	if err := o.renderGuidePass(snap); err != nil && !errors.Is(err, models.ErrRaceGuardSkip) {
		return false, err
	}
	return false, o.activateAndRestore(snap)
}

func (o *Orchestrator) areaByKeyLocked(key string) (models.PrintArea, bool) {
	for _, a := range o.areas {
		if a.Key == key {
			return a, true
		}
	}
	return models.PrintArea{}, false
}

// completeTransition runs the ordered tail of every transition: template
// swap, then guide render, then activation and snapshot restore. Each of
// the three re-validates the captured selection before applying.
func (o *Orchestrator) completeTransition(ctx context.Context, snap SelectionContext) error {
	if err := o.swapTemplate(ctx, snap); err != nil {
		return err
	}

	// The swap auto-selects a print area when the captured key is empty or
	// no longer exists; that advance belongs to this transition, so adopt
	// the refreshed key. A change in any other field means a newer
	// transition owns the machine now.
	o.mu.Lock()
	if snap.ProductKey != o.sel.ProductKey || snap.ColorName != o.sel.ColorName || snap.View != o.sel.View {
		o.mu.Unlock()
		return o.discard(snap, "transition")
	}
	snap.PrintAreaKey = o.sel.PrintAreaKey
	o.mu.Unlock()

	if err := o.renderGuidePass(snap); err != nil && !errors.Is(err, models.ErrRaceGuardSkip) {
		return err
	}
	return o.activateAndRestore(snap)
}

// swapTemplate resolves and places the template image for the captured
// selection. While the swap is in flight the render lock is held so guide
// renders against the stale fit transform are dropped.
func (o *Orchestrator) swapTemplate(ctx context.Context, snap SelectionContext) error {
	o.mu.Lock()
	if !o.stillCurrent(snap) {
		o.mu.Unlock()
		return o.discard(snap, "template swap")
	}
	if err := o.toState(StateTemplateSwapping); err != nil {
		o.mu.Unlock()
		return err
	}
	o.renderLock = true
	product := o.product
	color, err := o.colorByNameLocked(snap.ColorName)
	if err != nil {
		o.renderLock = false
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	resolved, err := o.resolver.ResolveTemplate(ctx, product, color, snap.View)

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.stillCurrent(snap) {
		// A newer transition owns the render lock now; leave it alone.
		return o.discard(snap, "template swap")
	}
	o.renderLock = false

	if err != nil {
		// NotFound / decode failures degrade to the last-known-good
		// template rather than blocking the buyer.
		if isNotFound(err) || errors.Is(err, models.ErrAssetLoad) {
			log.Printf("⚠️  Template resolution degraded for %+v: %v", snap, err)
			if o.template == nil {
				return fmt.Errorf("no template available: %w", err)
			}
			o.afterSwapLocked(snap)
			return nil
		}
		return fmt.Errorf("failed to resolve template: %w", err)
	}

	o.template = resolved
	sourceRef := fmt.Sprintf("template:%s:%s:%s", snap.ProductKey, snap.ColorName, snap.View)
	o.surface.SetTemplate(sourceRef, float64(resolved.Width), float64(resolved.Height))
	o.afterSwapLocked(snap)
	return nil
}

// afterSwapLocked finishes a swap: default print areas are synthesized
// now that the template's natural size is known, and a guide render that
// was dropped mid-swap is re-triggered by the dependency change.
func (o *Orchestrator) afterSwapLocked(snap SelectionContext) {
	if len(o.areas) == 0 {
		w, h := o.surface.TemplateSize()
		log.Printf("⚠️  No print areas available for this product, using full-area default")
		o.areas = []models.PrintArea{models.DefaultPrintArea(w, h)}
		if o.product != nil {
			o.product.PrintAreas[snap.View] = o.areas
		}
	}

	if _, ok := o.areaByKeyLocked(o.sel.PrintAreaKey); !ok {
		o.sel.PrintAreaKey = o.areas[0].Key
	}
	area, _ := o.areaByKeyLocked(o.sel.PrintAreaKey)
	if o.surface.ActiveArea() == nil || o.surface.ActiveArea().Key != area.Key || o.surface.State() == AreaInactive {
		o.surface.BeginArea(area)
	}

	if o.guidesPending {
		o.guidesPending = false
		o.surface.RenderGuides(o.areas)
		log.Printf("✓ Guide render re-triggered after template swap")
	}
}

// renderGuidePass redraws the print-area guides against the current fit
// transform. When the render lock is held the call is dropped (not queued)
// and re-runs automatically once the template finishes.
func (o *Orchestrator) renderGuidePass(snap SelectionContext) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.renderLock {
		o.guidesPending = true
		log.Printf("⏭  Guide render skipped: template swap in progress")
		return models.ErrRaceGuardSkip
	}
	if !o.stillCurrent(snap) {
		return o.discard(snap, "guide render")
	}

	o.surface.RenderGuides(o.areas)
	return nil
}

// activateAndRestore flips the surface to ActiveVisible and restores any
// snapshot persisted for the tuple. Runs strictly after the template swap
// so restored objects are positioned against stable geometry.
func (o *Orchestrator) activateAndRestore(snap SelectionContext) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.stillCurrent(snap) {
		return o.discard(snap, "snapshot restore")
	}

	o.surface.Activate()
	if o.state != StateReady {
		if err := o.toState(StateReady); err != nil {
			return err
		}
	}

	count, err := o.snapshots.Restore(o.snapshotKeyLocked(), o.surface)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if count > 0 {
		log.Printf("✓ Restored %d saved objects for %s", count, o.snapshotKeyLocked())
	}
	return nil
}

// Save persists the current live user objects under the current tuple
func (o *Orchestrator) Save() (*models.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateReady {
		return nil, fmt.Errorf("designer not ready (state %s)", o.state)
	}
	return o.snapshots.Save(o.snapshotKeyLocked(), o.surface.Objects())
}

// Restore re-applies the persisted snapshot for the current tuple and
// returns the number of objects applied.
func (o *Orchestrator) Restore() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateReady {
		return 0, fmt.Errorf("designer not ready (state %s)", o.state)
	}
	return o.snapshots.Restore(o.snapshotKeyLocked(), o.surface)
}
