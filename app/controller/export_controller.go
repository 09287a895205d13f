package controller

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"

	"promo-designer/designer"
	"promo-designer/models"
	"promo-designer/service"
)

// ExportController handles raster and proof-document export for sessions
type ExportController struct {
	manager       *designer.Manager
	exportService *service.ExportService
}

// NewExportController creates a new ExportController
func NewExportController(manager *designer.Manager, exportService *service.ExportService) *ExportController {
	return &ExportController{
		manager:       manager,
		exportService: exportService,
	}
}

// renderRaster produces the full-resolution canvas raster for a session.
// Guides are excluded, the template is included.
func (c *ExportController) renderRaster(sess *designer.Session) ([]byte, error) {
	t := sess.Template()
	if t == nil {
		return nil, fmt.Errorf("no template resolved yet: %w", models.ErrNotFound)
	}

	template, err := imaging.Decode(bytes.NewReader(t.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode template for export: %w", models.ErrAssetLoad)
	}

	var raster *image.NRGBA
	err = sess.WithSurface(func(s *designer.Surface) error {
		var renderErr error
		raster, renderErr = designer.RenderSurface(s, template, designer.FileImageOpener)
		return renderErr
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, raster, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode export raster: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPNG handles GET /designer/sessions/{id}/export/png
func (c *ExportController) ExportPNG(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := c.manager.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	raster, err := c.renderRaster(sess)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="design.png"`)
	w.WriteHeader(http.StatusOK)
	w.Write(raster)
}

// ExportPDF handles GET /designer/sessions/{id}/export/pdf
func (c *ExportController) ExportPDF(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := c.manager.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	raster, err := c.renderRaster(sess)
	if err != nil {
		writeError(w, err)
		return
	}

	sel := sess.Selection()
	data := service.ProofData{
		ColorName: sel.ColorName,
		View:      sel.View,
		Areas:     sess.PrintAreas(),
	}
	if p := sess.Product(); p != nil {
		data.ProductName = p.Name
	}

	pdf, err := c.exportService.GeneratePDF(r.Context(), raster, data)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="design-proof.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
