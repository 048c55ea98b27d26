// Package export renders edited images into documents.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/gogpu/darkroom/internal/codec"
	"github.com/gogpu/darkroom/pixmap"
)

// ErrNoImage is returned when there is no image to export.
var ErrNoImage = errors.New("export: no image")

const (
	margin     = 15.0 // mm
	lineHeight = 5.0  // mm
)

// Page describes the text placed around the exported image.
type Page struct {
	Title string
	// Notes are printed one per line under the image, for example the
	// applied operation specs.
	Notes []string
}

// PDF writes pm to w as a single A4 page. The page is landscape when the
// image is wider than it is tall, and the image is scaled to fit inside the
// margins with its aspect ratio kept.
func PDF(w io.Writer, pm *pixmap.Pixmap, page Page) error {
	if pm == nil {
		return ErrNoImage
	}
	png, err := codec.EncodePNG(pm)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	orientation := "P"
	if pm.Width() > pm.Height() {
		orientation = "L"
	}
	p := gofpdf.New(orientation, "mm", "A4", "")
	p.SetTitle(page.Title, true)
	p.SetCreator("darkroom", true)
	p.AddPage()

	pageW, pageH := p.GetPageSize()
	top := margin
	if page.Title != "" {
		p.SetFont("Helvetica", "B", 14)
		p.CellFormat(0, 8, page.Title, "", 1, "L", false, 0, "")
		top = p.GetY() + 2
	}
	reserved := float64(len(page.Notes)) * lineHeight
	if reserved > 0 {
		reserved += 4
	}

	boxW := pageW - 2*margin
	boxH := pageH - top - margin - reserved
	imgW, imgH := fit(float64(pm.Width()), float64(pm.Height()), boxW, boxH)

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("image", opt, bytes.NewReader(png))
	p.ImageOptions("image", margin+(boxW-imgW)/2, top, imgW, imgH, false, opt, 0, "")

	if len(page.Notes) > 0 {
		p.SetFont("Courier", "", 9)
		p.SetXY(margin, top+imgH+4)
		for _, n := range page.Notes {
			p.CellFormat(0, lineHeight, n, "", 1, "L", false, 0, "")
		}
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return p.Output(w)
}

// SavePDF writes the PDF export of pm to path.
func SavePDF(path string, pm *pixmap.Pixmap, page Page) error {
	var buf bytes.Buffer
	if err := PDF(&buf, pm, page); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// fit scales w x h to the largest size inside maxW x maxH.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := min(maxW/w, maxH/h)
	return w * scale, h * scale
}
