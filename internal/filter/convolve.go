package filter

import (
	"math"

	"github.com/gogpu/darkroom/internal/parallel"
	"github.com/gogpu/darkroom/pixmap"
)

// Mode selects how a convolution sum is mapped back to a channel value.
type Mode uint8

const (
	// ModeStandard clamps the rounded sum to [0, 255]. Used by kernels whose
	// weights sum to 1 (blur, sharpen).
	ModeStandard Mode = iota

	// ModeSigned rescales a zero-centered sum by the kernel's positive weight
	// and biases it to mid-grey: round(sum/(2*weightSum) + 127). Used by
	// emboss and Sobel kernels.
	ModeSigned
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeSigned:
		return "signed"
	default:
		return "unknown"
	}
}

// signedBias is the output value of a flat region in signed mode.
const signedBias = 127

// Convolve applies kernel k to the RGB channels of src and returns a new
// pixmap of the same size. Alpha is copied from the source pixel.
//
// Out-of-bounds neighbours are replaced by the nearest edge pixel, so borders
// are neither darkened nor blackened.
//
// weightSum is only used in ModeSigned; a value <= 0 selects k.PositiveSum().
func Convolve(src *pixmap.Pixmap, k *Kernel, mode Mode, weightSum float64) *pixmap.Pixmap {
	if mode == ModeSigned && weightSum <= 0 {
		weightSum = k.PositiveSum()
	}
	// A kernel without positive weights has no scale; treat it as unit.
	if mode == ModeSigned && weightSum <= 0 {
		weightSum = 1
	}

	width := src.Width()
	height := src.Height()
	srcData := src.Data()
	dst := src.SameSize()
	dstData := dst.Data()

	radius := k.Radius
	side := k.Size()
	weights := k.Weights

	// Each band writes only its own rows of dst.
	parallel.Rows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				var sumR, sumG, sumB float64

				for dy := -radius; dy <= radius; dy++ {
					py := clampInt(y+dy, 0, height-1)
					row := (dy + radius) * side
					for dx := -radius; dx <= radius; dx++ {
						px := clampInt(x+dx, 0, width-1)
						w := weights[row+dx+radius]
						if w == 0 {
							continue
						}
						i := (py*width + px) * 4
						sumR += float64(srcData[i+0]) * w
						sumG += float64(srcData[i+1]) * w
						sumB += float64(srcData[i+2]) * w
					}
				}

				i := (y*width + x) * 4
				if mode == ModeSigned {
					scale := 2 * weightSum
					dstData[i+0] = clampUint8(sumR/scale + signedBias)
					dstData[i+1] = clampUint8(sumG/scale + signedBias)
					dstData[i+2] = clampUint8(sumB/scale + signedBias)
				} else {
					dstData[i+0] = clampUint8(sumR)
					dstData[i+1] = clampUint8(sumG)
					dstData[i+2] = clampUint8(sumB)
				}
				dstData[i+3] = srcData[i+3]
			}
		}
	})

	return dst
}

// clampInt clamps an integer to [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampUint8 rounds v to the nearest integer and clamps it to [0, 255].
func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
