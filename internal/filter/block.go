package filter

import (
	"math/rand/v2"

	"github.com/gogpu/darkroom/pixmap"
)

// BlockAverage divides src into blockWidth×blockHeight tiles, starting at the
// top-left corner, and fills each tile with its average color. Tiles on the
// right and bottom edges are truncated to the image.
func BlockAverage(src *pixmap.Pixmap, blockWidth, blockHeight int) *pixmap.Pixmap {
	if blockWidth <= 1 && blockHeight <= 1 {
		return src.Clone()
	}
	blockWidth = max(blockWidth, 1)
	blockHeight = max(blockHeight, 1)

	width := src.Width()
	height := src.Height()
	srcData := src.Data()
	dst := src.SameSize()
	dstData := dst.Data()

	for by := 0; by < height; by += blockHeight {
		ey := min(by+blockHeight, height)
		for bx := 0; bx < width; bx += blockWidth {
			ex := min(bx+blockWidth, width)

			var sr, sg, sb, sa, n int
			for y := by; y < ey; y++ {
				for x := bx; x < ex; x++ {
					i := (y*width + x) * 4
					sr += int(srcData[i+0])
					sg += int(srcData[i+1])
					sb += int(srcData[i+2])
					sa += int(srcData[i+3])
					n++
				}
			}

			r, g, b, a := uint8(sr/n), uint8(sg/n), uint8(sb/n), uint8(sa/n)
			for y := by; y < ey; y++ {
				for x := bx; x < ex; x++ {
					i := (y*width + x) * 4
					dstData[i+0] = r
					dstData[i+1] = g
					dstData[i+2] = b
					dstData[i+3] = a
				}
			}
		}
	}

	return dst
}

// scatterStream is the second PCG seed word; the first is the caller's seed.
const scatterStream = 0x9e3779b97f4a7c15

// Scatter replaces every pixel with a randomly chosen pixel from its
// (2r+1)×(2r+1) neighbourhood. The choice is driven by a PCG generator
// seeded with seed, so the same (src, radius, seed) always yields the same
// output. Positions that fall outside the image are reflected back inside
// by a random distance of at most radius.
func Scatter(src *pixmap.Pixmap, radius int, seed uint64) *pixmap.Pixmap {
	if radius <= 0 {
		return src.Clone()
	}

	width := src.Width()
	height := src.Height()
	srcData := src.Data()
	dst := src.SameSize()
	dstData := dst.Data()

	rng := rand.New(rand.NewPCG(seed, scatterStream))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx := scatterCoord(rng, x, radius, width)
			sy := scatterCoord(rng, y, radius, height)
			si := (sy*width + sx) * 4
			di := (y*width + x) * 4
			copy(dstData[di:di+4], srcData[si:si+4])
		}
	}

	return dst
}

// scatterCoord picks a coordinate in [v-radius, v+radius], pulling values
// outside [0, limit) back in.
func scatterCoord(rng *rand.Rand, v, radius, limit int) int {
	c := v - radius + rng.IntN(2*radius+1)
	if c < 0 {
		c = rng.IntN(radius + 1)
	}
	if c > limit-1 {
		c = limit - 1 - rng.IntN(radius+1)
	}
	return clampInt(c, 0, limit-1)
}
