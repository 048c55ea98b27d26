package filter

import (
	"image/color"

	"github.com/gogpu/darkroom/pixmap"
)

// Test helper functions shared across filter tests.

// createTestPixmap creates a pixmap filled with the given color.
func createTestPixmap(w, h int, c color.NRGBA) *pixmap.Pixmap {
	p := pixmap.MustNew(w, h)
	p.Fill(c)
	return p
}

// createGradientPixmap creates a pixmap whose channels vary with position.
func createGradientPixmap(w, h int) *pixmap.Pixmap {
	p := pixmap.MustNew(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set8(x, y, uint8(x*40+y), uint8(y*30+x), uint8((x+y)*20), uint8(200+x))
		}
	}
	return p
}

// pixelsAll reports whether every pixel of p satisfies fn.
func pixelsAll(p *pixmap.Pixmap, fn func(r, g, b, a uint8) bool) bool {
	for y := 0; y < p.Height(); y++ {
		for x := 0; x < p.Width(); x++ {
			if !fn(p.At8(x, y)) {
				return false
			}
		}
	}
	return true
}
