package designer

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"promo-designer/models"
	"promo-designer/utils"
)

// ImageOpener resolves an image object's source reference to decoded pixels
type ImageOpener func(sourceRef string) (image.Image, error)

// FileImageOpener opens image sources stored as files on disk
func FileImageOpener(sourceRef string) (image.Image, error) {
	img, err := imaging.Open(sourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", sourceRef, models.ErrAssetLoad)
	}
	return img, nil
}

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
	fontErr    error
)

func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return parsedFont, fontErr
}

func faceForSize(size float64) (font.Face, error) {
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// MeasureText reports the rendered bounding box of a text run using the
// embedded font. Installed on new surfaces at wiring time so constraint
// math and the export raster agree on text dimensions.
func MeasureText(text string, size float64) (float64, float64) {
	face, err := faceForSize(size)
	if err != nil {
		return estimateText(text, size)
	}
	defer face.Close()

	ctx := gg.NewContext(1, 1)
	ctx.SetFontFace(face)
	w, h := ctx.MeasureString(text)
	if h < size {
		h = size * 1.2
	}
	return w, h
}

// RenderSurface produces the full-resolution export raster of the live
// canvas: the template at its natural size with every user object drawn on
// top in z-order. Guides are never rasterized.
func RenderSurface(s *Surface, template image.Image, open ImageOpener) (*image.NRGBA, error) {
	if template == nil {
		return nil, fmt.Errorf("no template image to render")
	}

	bounds := template.Bounds()
	ctx := gg.NewContext(bounds.Dx(), bounds.Dy())
	ctx.DrawImage(template, 0, 0)

	for _, obj := range s.Objects() {
		if !obj.IsUserContent() {
			continue
		}

		var err error
		switch obj.Kind {
		case models.KindText:
			err = drawText(ctx, obj)
		case models.KindImage:
			err = drawImage(ctx, obj, open)
		default:
			err = fmt.Errorf("unknown object kind %q", obj.Kind)
		}
		if err != nil {
			log.Printf("⚠️  Skipping object %s in export: %v", obj.ID, err)
		}
	}

	return imaging.Clone(ctx.Image()), nil
}

func drawText(ctx *gg.Context, obj *models.DesignObject) error {
	size := obj.FontSize * obj.Transform.ScaleY
	if size <= 0 {
		size = 32
	}
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	defer face.Close()
	ctx.SetFontFace(face)

	col := "#000000"
	if obj.Color != "" {
		col = obj.Color
	}
	nrgba, err := utils.ParseHexColor(col)
	if err != nil {
		return err
	}
	ctx.SetColor(nrgba)

	x := obj.Transform.X
	y := obj.Transform.Y

	// The vertical scale is carried by the font size; the horizontal
	// remainder becomes a glyph stretch so non-uniform scaling keeps the
	// on-surface width.
	stretch := 1.0
	if obj.Transform.ScaleY != 0 {
		stretch = obj.Transform.ScaleX / obj.Transform.ScaleY
	}

	ctx.Push()
	if obj.Transform.Rotation != 0 {
		ctx.RotateAbout(gg.Radians(obj.Transform.Rotation), x, y)
	}
	if obj.Transform.FlipX {
		ctx.ScaleAbout(-1, 1, x, y)
	}
	if obj.Transform.FlipY {
		ctx.ScaleAbout(1, -1, x, y)
	}
	if stretch != 1 {
		ctx.ScaleAbout(stretch, 1, x, y)
	}
	ctx.DrawStringAnchored(obj.Text, x, y, 0.5, 0.5)
	ctx.Pop()
	return nil
}

func drawImage(ctx *gg.Context, obj *models.DesignObject, open ImageOpener) error {
	if open == nil {
		return fmt.Errorf("no image opener configured")
	}
	src, err := open(obj.SourceRef)
	if err != nil {
		return err
	}

	w := int(obj.Width*obj.Transform.ScaleX + 0.5)
	h := int(obj.Height*obj.Transform.ScaleY + 0.5)
	if w < 1 || h < 1 {
		return fmt.Errorf("object %s scales to an empty raster", obj.ID)
	}

	img := imaging.Resize(src, w, h, imaging.Lanczos)
	if obj.Transform.FlipX {
		img = imaging.FlipH(img)
	}
	if obj.Transform.FlipY {
		img = imaging.FlipV(img)
	}
	if obj.Transform.Rotation != 0 {
		// imaging rotates counterclockwise; surface angles are clockwise
		img = imaging.Rotate(img, -obj.Transform.Rotation, color.Transparent)
	}

	ctx.DrawImageAnchored(img, int(obj.Transform.X+0.5), int(obj.Transform.Y+0.5), 0.5, 0.5)
	return nil
}
