package controller

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"promo-designer/designer"
	"promo-designer/models"
)

// DesignerController handles HTTP requests for designer sessions
type DesignerController struct {
	manager    *designer.Manager
	uploadsDir string
}

// NewDesignerController creates a new DesignerController
func NewDesignerController(manager *designer.Manager, uploadsDir string) *DesignerController {
	return &DesignerController{
		manager:    manager,
		uploadsDir: uploadsDir,
	}
}

// sessionView is the state payload returned for most session endpoints
type sessionView struct {
	ID         string                    `json:"id"`
	State      designer.State            `json:"state"`
	Selection  designer.SelectionContext `json:"selection"`
	AreaState  designer.AreaState        `json:"areaState"`
	Product    *models.ProductTemplate   `json:"product,omitempty"`
	Colors     []models.ColorVariant     `json:"colors,omitempty"`
	PrintAreas []models.PrintArea        `json:"printAreas,omitempty"`
	Objects    []*models.DesignObject    `json:"objects"`
	SelectedID string                    `json:"selectedId,omitempty"`
	Zoom       float64                   `json:"zoom"`
	Fit        designer.FitTransform     `json:"fit"`
	Source     string                    `json:"templateSource,omitempty"`
}

func buildSessionView(sess *designer.Session) sessionView {
	view := sessionView{
		ID:         sess.ID,
		State:      sess.State(),
		Selection:  sess.Selection(),
		Product:    sess.Product(),
		Colors:     sess.Colors(),
		PrintAreas: sess.PrintAreas(),
	}
	sess.WithSurface(func(s *designer.Surface) error {
		view.AreaState = s.State()
		// Object values are copied inside the lock; the live pointers keep
		// mutating under concurrent requests while this view is encoded.
		live := s.Objects()
		view.Objects = make([]*models.DesignObject, 0, len(live))
		for _, obj := range live {
			copied := *obj
			view.Objects = append(view.Objects, &copied)
		}
		view.SelectedID = s.SelectedID()
		view.Zoom = s.Zoom()
		view.Fit = s.Fit()
		return nil
	})
	if t := sess.Template(); t != nil {
		view.Source = t.Source
	}
	return view
}

// writeJSON sends a JSON response
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Stale results are
/// not failures: the newer selection already owns the surface.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrStaleResult):
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "discarded"})
	case errors.Is(err, models.ErrRaceGuardSkip):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrAssetLoad):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, models.ErrPersistence):
		http.Error(w, err.Error(), http.StatusInsufficientStorage)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// OpenSession handles POST /designer/sessions
func (c *DesignerController) OpenSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ProductKey == "" {
		http.Error(w, "productKey is required", http.StatusBadRequest)
		return
	}

	sess, err := c.manager.Open(r.Context(), req.ProductKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildSessionView(sess))
}

// session extracts the session from the URL path /designer/sessions/{id}/...
func (c *DesignerController) session(w http.ResponseWriter, r *http.Request) (*designer.Session, string, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/designer/sessions/")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return nil, "", false
	}

	sess, err := c.manager.Get(parts[0])
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}

	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}
	return sess, rest, true
}

// GetSession handles GET /designer/sessions/{id}
func (c *DesignerController) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildSessionView(sess))
}

// Select handles POST /designer/sessions/{id}/select
func (c *DesignerController) Select(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	var req models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	hidden := false
	var err error
	switch {
	case req.ProductKey != "":
		err = sess.SelectProduct(r.Context(), req.ProductKey)
	case req.View != "":
		var view models.View
		view, err = models.ParseView(req.View)
		if err == nil {
			err = sess.SelectView(r.Context(), view)
		}
	case req.ColorName != "":
		err = sess.SelectColor(r.Context(), req.ColorName)
	case req.PrintAreaKey != "":
		hidden, err = sess.SelectPrintArea(r.Context(), req.PrintAreaKey)
	default:
		http.Error(w, "one of productKey, view, colorName, printAreaKey is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	view := buildSessionView(sess)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hidden":  hidden,
		"session": view,
	})
}

// AddObject handles POST /designer/sessions/{id}/objects
func (c *DesignerController) AddObject(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	var req models.AddObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	var obj *models.DesignObject
	var err error
	switch models.ObjectKind(req.Kind) {
	case models.KindText:
		err = sess.WithSurface(func(s *designer.Surface) error {
			var addErr error
			obj, addErr = s.AddText(req.Text, req.Font, req.FontSize, req.Color, req.Align)
			return addErr
		})
	case models.KindImage:
		obj, err = c.addImage(sess, req.ImageBase64)
	default:
		http.Error(w, fmt.Sprintf("unknown object kind %q", req.Kind), http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	created := *obj
	writeJSON(w, http.StatusCreated, created)
}

// addImage decodes the upload, persists it under the uploads dir and
// places the object at the decoded natural size.
func (c *DesignerController) addImage(sess *designer.Session, imageBase64 string) (*models.DesignObject, error) {
	if imageBase64 == "" {
		return nil, fmt.Errorf("imageBase64 is required")
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode uploaded image: %w", models.ErrAssetLoad)
	}

	if err := os.MkdirAll(c.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	sourceRef := filepath.Join(c.uploadsDir, uuid.NewString()+".png")
	if err := imaging.Save(img, sourceRef); err != nil {
		return nil, fmt.Errorf("failed to store uploaded image: %w", models.ErrPersistence)
	}

	bounds := img.Bounds()
	var obj *models.DesignObject
	err = sess.WithSurface(func(s *designer.Surface) error {
		var addErr error
		obj, addErr = s.AddImage(sourceRef, float64(bounds.Dx()), float64(bounds.Dy()))
		return addErr
	})
	return obj, err
}

// TransformObject handles POST /designer/sessions/{id}/objects/{objID}
func (c *DesignerController) TransformObject(w http.ResponseWriter, r *http.Request, objID string) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	var req models.TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	err := sess.WithSurface(func(s *designer.Surface) error {
		switch req.Op {
		case "move":
			return s.MoveObject(objID, req.DX, req.DY)
		case "scale":
			return s.ScaleObject(objID, req.FactorX, req.FactorY)
		case "rotate":
			return s.RotateObject(objID, req.Steps)
		case "nudge":
			return s.NudgeObject(objID, req.Direction, req.Coarse)
		case "flip":
			return s.FlipObject(objID, req.Axis)
		case "select":
			return s.SelectObject(objID)
		default:
			return fmt.Errorf("unknown operation %q", req.Op)
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildSessionView(sess))
}

// DeleteObject handles DELETE /designer/sessions/{id}/objects/{objID}
func (c *DesignerController) DeleteObject(w http.ResponseWriter, r *http.Request, objID string) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	err := sess.WithSurface(func(s *designer.Surface) error {
		return s.DeleteObject(objID)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": objID})
}

// Save handles POST /designer/sessions/{id}/save
func (c *DesignerController) Save(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	snap, err := sess.Save()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "saved",
		"key":     snap.Key.String(),
		"entries": len(snap.Entries),
	})
}

// Restore handles POST /designer/sessions/{id}/restore
func (c *DesignerController) Restore(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	count, err := sess.Restore()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "restored",
		"applied": count,
	})
}

// Template handles GET /designer/sessions/{id}/template — streams the
// resolved variant image for the current selection.
func (c *DesignerController) Template(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	t := sess.Template()
	if t == nil {
		http.Error(w, "no template resolved yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Template-Source", t.Source)
	w.WriteHeader(http.StatusOK)
	w.Write(t.Data)
}

// CloseSession handles DELETE /designer/sessions/{id}
func (c *DesignerController) CloseSession(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := c.session(w, r)
	if !ok {
		return
	}

	c.manager.Close(sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "id": sess.ID})
}
