package filter

import (
	"github.com/gogpu/darkroom/pixmap"
)

// ColorMatrix is a 4x5 color transformation matrix applied per pixel:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias/offset values. Channel values are in
// [0, 255] (straight alpha) during transformation, then rounded and clamped.
// Row-major: [0-4] = R, [5-9] = G, [10-14] = B, [15-19] = A.
type ColorMatrix [20]float64

// IdentityMatrix returns a matrix that passes colors through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0, // R
		0, 1, 0, 0, 0, // G
		0, 0, 1, 0, 0, // B
		0, 0, 0, 1, 0, // A
	}
}

// Greyscale luminance weights.
const (
	lumR = 0.3
	lumG = 0.6
	lumB = 0.1
)

// GreyscaleMatrix returns a matrix that replaces RGB with weighted luminance.
func GreyscaleMatrix() ColorMatrix {
	return ColorMatrix{
		lumR, lumG, lumB, 0, 0,
		lumR, lumG, lumB, 0, 0,
		lumR, lumG, lumB, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// InvertMatrix returns a matrix that inverts RGB and keeps alpha.
func InvertMatrix() ColorMatrix {
	return ColorMatrix{
		-1, 0, 0, 0, 255,
		0, -1, 0, 0, 255,
		0, 0, -1, 0, 255,
		0, 0, 0, 1, 0,
	}
}

// PermutationMatrix returns a matrix whose output channel i (R, G, B) is
// taken from source channel src[i]. Each src value must be 0, 1 or 2.
func PermutationMatrix(src [3]int) ColorMatrix {
	var m ColorMatrix
	for row, col := range src {
		m[row*5+col] = 1
	}
	m[18] = 1
	return m
}

// ContrastMatrix scales RGB around mid-grey: (v - 127.5)·(1 + c/100) + 127.5.
// contrast is a percentage in [-100, 100].
func ContrastMatrix(contrast int) ColorMatrix {
	factor := 1 + float64(contrast)/100
	offset := 127.5 * (1 - factor)
	return ColorMatrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix scales RGB by (1 + b/100).
// brightness is a percentage in [-100, 100].
func BrightnessMatrix(brightness int) ColorMatrix {
	factor := 1 + float64(brightness)/100
	return ColorMatrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// BrightnessContrastMatrix applies contrast first, then brightness.
func BrightnessContrastMatrix(brightness, contrast int) ColorMatrix {
	return ContrastMatrix(contrast).Then(BrightnessMatrix(brightness))
}

// Then returns the matrix that applies m first and next afterwards.
func (m ColorMatrix) Then(next ColorMatrix) ColorMatrix {
	var r ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += next[row*5+k] * m[k*5+col]
			}
			r[row*5+col] = sum
		}
		// Offset column: next applied to m's offsets, plus next's own offset.
		r[row*5+4] = next[row*5+0]*m[4] + next[row*5+1]*m[9] +
			next[row*5+2]*m[14] + next[row*5+3]*m[19] + next[row*5+4]
	}
	return r
}

// Apply applies the color matrix to every pixel of src and returns a new
// pixmap.
func (m ColorMatrix) Apply(src *pixmap.Pixmap) *pixmap.Pixmap {
	dst := src.SameSize()
	srcData := src.Data()
	dstData := dst.Data()

	for i := 0; i < len(srcData); i += 4 {
		r := float64(srcData[i+0])
		g := float64(srcData[i+1])
		b := float64(srcData[i+2])
		a := float64(srcData[i+3])

		dstData[i+0] = clampUint8(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
		dstData[i+1] = clampUint8(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
		dstData[i+2] = clampUint8(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
		dstData[i+3] = clampUint8(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
	}

	return dst
}
