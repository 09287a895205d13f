package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"promo-designer/models"
)

// ExportService turns the live canvas raster into shareable outputs: the
// raster itself as PNG, and a paginated proof document rendered through
// headless Chrome.
type ExportService struct{}

// NewExportService creates a new ExportService
func NewExportService() *ExportService {
	return &ExportService{}
}

// detectChromePath detects the path to Chrome/Chromium executable
// Checks CHROME_PATH env var first, then common installation paths
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// proofTemplate lays the design raster on a cover page followed by one
// detail page per print area with its physical dimensions.
const proofTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
	* { margin: 0; padding: 0; box-sizing: border-box; }
	.page { width: 210mm; height: 297mm; padding: 15mm; page-break-after: always;
	        display: flex; flex-direction: column; align-items: center; font-family: sans-serif; }
	.page h1 { font-size: 20pt; margin-bottom: 4mm; }
	.page h2 { font-size: 14pt; margin-bottom: 2mm; }
	.page .meta { color: #555; font-size: 10pt; margin-bottom: 8mm; }
	.page img { max-width: 180mm; max-height: 220mm; object-fit: contain; }
	table { border-collapse: collapse; margin-top: 6mm; font-size: 10pt; }
	td, th { border: 1px solid #999; padding: 2mm 4mm; text-align: left; }
</style>
</head>
<body>
	<div class="page">
		<h1>{{.ProductName}}</h1>
		<div class="meta">Color: {{.ColorName}} · View: {{.View}}</div>
		<img src="data:image/png;base64,{{.RasterBase64}}" />
	</div>
	{{range .Areas}}
	<div class="page">
		<h2>Print area: {{.Name}}</h2>
		<div class="meta">Key: {{.Key}} · Shape: {{.Shape}}</div>
		<table>
			<tr><th>Position</th><td>{{printf "%.0f" .X}}, {{printf "%.0f" .Y}} px</td></tr>
			<tr><th>Size</th><td>{{printf "%.0f" .Width}} × {{printf "%.0f" .Height}} px</td></tr>
			{{if .WidthMm}}<tr><th>Physical size</th><td>{{printf "%.0f" .WidthMm}} × {{printf "%.0f" .HeightMm}} mm</td></tr>{{end}}
			{{if .MaxWidth}}<tr><th>Max content size</th><td>{{printf "%.0f" .MaxWidth}} × {{printf "%.0f" .MaxHeight}} px</td></tr>{{end}}
		</table>
	</div>
	{{end}}
</body>
</html>`

// ProofData feeds the proof document template
type ProofData struct {
	ProductName  string
	ColorName    string
	View         models.View
	RasterBase64 string
	Areas        []models.PrintArea
}

// RenderProofHTML renders the proof document markup from the export raster
func (s *ExportService) RenderProofHTML(raster []byte, data ProofData) (string, error) {
	data.RasterBase64 = base64.StdEncoding.EncodeToString(raster)

	tmpl, err := template.New("proof").Parse(proofTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse proof template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute proof template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF produces the paginated proof PDF from the export raster
// using headless Chrome.
func (s *ExportService) GeneratePDF(ctx context.Context, raster []byte, data ProofData) ([]byte, error) {
	htmlContent, err := s.RenderProofHTML(raster, data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	// Detect Chrome/Chromium path and configure chromedp
	chromePath := detectChromePath()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("enable-print-preview", true),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlContent))

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.EmulateViewport(794, 1123), // 210mm x 297mm at 96 DPI
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(1500*time.Millisecond), // Wait for the embedded raster to decode
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 portrait; page breaks come from the CSS page-break-after
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).   // 210mm in inches
				WithPaperHeight(11.69). // 297mm in inches
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	log.Printf("📄 Proof PDF generated: product=%s color=%s view=%s pages=%d bytes=%d",
		data.ProductName, data.ColorName, data.View, 1+len(data.Areas), len(pdfBuf))
	return pdfBuf, nil
}
