package filter

import (
	"slices"

	"github.com/gogpu/darkroom/internal/parallel"
	"github.com/gogpu/darkroom/pixmap"
)

// Median replaces each pixel's RGB channels with the per-channel median of
// its (2r+1)×(2r+1) neighbourhood. Sampling is edge-clamped like Convolve,
// and alpha is copied from the source pixel.
func Median(src *pixmap.Pixmap, radius int) *pixmap.Pixmap {
	if radius <= 0 {
		return src.Clone()
	}

	width := src.Width()
	height := src.Height()
	srcData := src.Data()
	dst := src.SameSize()
	dstData := dst.Data()

	side := radius*2 + 1
	n := side * side
	mid := n / 2

	parallel.Rows(height, func(y0, y1 int) {
		r := make([]uint8, n)
		g := make([]uint8, n)
		b := make([]uint8, n)

		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				count := 0
				for dy := -radius; dy <= radius; dy++ {
					py := clampInt(y+dy, 0, height-1)
					for dx := -radius; dx <= radius; dx++ {
						px := clampInt(x+dx, 0, width-1)
						i := (py*width + px) * 4
						r[count] = srcData[i+0]
						g[count] = srcData[i+1]
						b[count] = srcData[i+2]
						count++
					}
				}
				slices.Sort(r)
				slices.Sort(g)
				slices.Sort(b)

				i := (y*width + x) * 4
				dstData[i+0] = r[mid]
				dstData[i+1] = g[mid]
				dstData[i+2] = b[mid]
				dstData[i+3] = srcData[i+3]
			}
		}
	})

	return dst
}
