// Package transform implements the geometric darkroom operations: flips,
// quarter-turn rotations, cropping and resizing.
//
// All functions return a new pixmap; the source is never modified.
package transform

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/darkroom/pixmap"
)

// Errors returned by geometric transforms.
var (
	// ErrOutOfBounds is returned when a crop rectangle is not fully inside the image.
	ErrOutOfBounds = errors.New("transform: rectangle outside image bounds")

	// ErrEmptyResult is returned when a transform would produce a zero-sized image.
	ErrEmptyResult = errors.New("transform: result has no pixels")

	// ErrTooLarge is returned when a transform would produce more than
	// MaxPixels pixels.
	ErrTooLarge = errors.New("transform: result too large")
)

// MaxPixels is the largest pixel count a resize may produce (8192 x 8192).
const MaxPixels = 1 << 26

// FlipHorizontal mirrors src left to right.
func FlipHorizontal(src *pixmap.Pixmap) *pixmap.Pixmap {
	w, h := src.Width(), src.Height()
	dst := src.SameSize()
	s, d := src.Data(), dst.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := (y*w + x) * 4
			di := (y*w + (w - 1 - x)) * 4
			copy(d[di:di+4], s[si:si+4])
		}
	}
	return dst
}

// FlipVertical mirrors src top to bottom.
func FlipVertical(src *pixmap.Pixmap) *pixmap.Pixmap {
	w, h := src.Width(), src.Height()
	dst := src.SameSize()
	s, d := src.Data(), dst.Data()
	row := w * 4
	for y := 0; y < h; y++ {
		copy(d[(h-1-y)*row:(h-y)*row], s[y*row:(y+1)*row])
	}
	return dst
}

// Rotate180 turns src half a revolution.
func Rotate180(src *pixmap.Pixmap) *pixmap.Pixmap {
	w, h := src.Width(), src.Height()
	dst := src.SameSize()
	s, d := src.Data(), dst.Data()
	n := w * h
	for i := 0; i < n; i++ {
		copy(d[(n-1-i)*4:(n-i)*4], s[i*4:(i+1)*4])
	}
	return dst
}

// RotateRight turns src a quarter revolution clockwise.
// The result is h×w for a w×h source.
func RotateRight(src *pixmap.Pixmap) *pixmap.Pixmap {
	w, h := src.Width(), src.Height()
	dst := pixmap.MustNew(h, w)
	s, d := src.Data(), dst.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// (x, y) -> (h-1-y, x)
			si := (y*w + x) * 4
			di := (x*h + (h - 1 - y)) * 4
			copy(d[di:di+4], s[si:si+4])
		}
	}
	return dst
}

// RotateLeft turns src a quarter revolution counter-clockwise.
// The result is h×w for a w×h source.
func RotateLeft(src *pixmap.Pixmap) *pixmap.Pixmap {
	w, h := src.Width(), src.Height()
	dst := pixmap.MustNew(h, w)
	s, d := src.Data(), dst.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// (x, y) -> (y, w-1-x)
			si := (y*w + x) * 4
			di := ((w-1-x)*h + y) * 4
			copy(d[di:di+4], s[si:si+4])
		}
	}
	return dst
}

// Crop returns the pixels of src inside r.
// r must be non-empty and lie fully inside the image.
func Crop(src *pixmap.Pixmap, r image.Rectangle) (*pixmap.Pixmap, error) {
	r = r.Canon()
	if r.Empty() {
		return nil, ErrEmptyResult
	}
	if !r.In(src.Bounds()) {
		return nil, ErrOutOfBounds
	}

	w := src.Width()
	dst := pixmap.MustNew(r.Dx(), r.Dy())
	s, d := src.Data(), dst.Data()
	row := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		si := ((r.Min.Y+y)*w + r.Min.X) * 4
		copy(d[y*row:(y+1)*row], s[si:si+row])
	}
	return dst, nil
}

// ResizedSize returns the dimensions of src scaled by percent (100 keeps the
// size). Fractional pixels are truncated. It fails with ErrEmptyResult when
// either side rounds to zero and with ErrTooLarge when the result would hold
// more than MaxPixels pixels.
func ResizedSize(width, height int, percent float64) (int, int, error) {
	fw := math.Floor(float64(width) * percent / 100)
	fh := math.Floor(float64(height) * percent / 100)
	if math.IsNaN(fw) || math.IsNaN(fh) || fw < 1 || fh < 1 {
		return 0, 0, ErrEmptyResult
	}
	if fw*fh > MaxPixels {
		return 0, 0, ErrTooLarge
	}
	return int(fw), int(fh), nil
}

// Resize scales src by percent using Catmull-Rom resampling.
func Resize(src *pixmap.Pixmap, percent float64) (*pixmap.Pixmap, error) {
	w, h, err := ResizedSize(src.Width(), src.Height(), percent)
	if err != nil {
		return nil, err
	}
	if w == src.Width() && h == src.Height() {
		return src.Clone(), nil
	}

	dstImg := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dstImg, dstImg.Bounds(), src.ToImage(), src.Bounds(), draw.Src, nil)

	return pixmap.FromImage(dstImg)
}
