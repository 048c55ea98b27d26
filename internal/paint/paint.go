// Package paint rasterizes the darkroom drawing primitives (lines,
// rectangles, ovals) onto a pixmap.
//
// Coordinates are intrinsic image pixels. Shapes are clipped to the image,
// so any coordinates are accepted. Colors are composited with source-over
// blending in straight alpha.
package paint

import (
	"image"
	"image/color"
	"math/bits"

	"github.com/gogpu/darkroom/pixmap"
)

// canvas wraps a destination pixmap with a fixed paint color.
type canvas struct {
	dst *pixmap.Pixmap
	c   color.NRGBA
}

// plot blends the paint color into (x, y), ignoring out-of-bounds points.
func (cv canvas) plot(x, y int) {
	i := cv.dst.Offset(x, y)
	if i < 0 {
		return
	}
	d := cv.dst.Data()
	d[i+0], d[i+1], d[i+2], d[i+3] = blendNormal(
		cv.c.R, cv.c.G, cv.c.B, cv.c.A,
		d[i+0], d[i+1], d[i+2], d[i+3])
}

// span plots the half-open horizontal run [x0, x1) on row y.
func (cv canvas) span(x0, x1, y int) {
	if y < 0 || y >= cv.dst.Height() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, cv.dst.Width())
	for x := x0; x < x1; x++ {
		cv.plot(x, y)
	}
}

// Line draws a one-pixel line from p1 to p2, both endpoints included.
//
// The line steps along its major axis and only visits the part of that
// axis inside the image, so far-away endpoints cost nothing extra.
func Line(src *pixmap.Pixmap, c color.NRGBA, p1, p2 image.Point) *pixmap.Pixmap {
	dst := src.Clone()
	cv := canvas{dst: dst, c: c}

	dx, dy := absDiff(p1.X, p2.X), absDiff(p1.Y, p2.Y)
	if dx == 0 && dy == 0 {
		cv.plot(p1.X, p1.Y)
		return dst
	}
	if dx >= dy {
		a, b := p1, p2
		if a.X > b.X {
			a, b = b, a
		}
		for x := max(a.X, 0); x <= min(b.X, dst.Width()-1); x++ {
			cv.plot(x, step(a.Y, b.Y, lerpRound(uint64(x)-uint64(a.X), dy, dx)))
		}
		return dst
	}
	a, b := p1, p2
	if a.Y > b.Y {
		a, b = b, a
	}
	for y := max(a.Y, 0); y <= min(b.Y, dst.Height()-1); y++ {
		cv.plot(step(a.X, b.X, lerpRound(uint64(y)-uint64(a.Y), dx, dy)), y)
	}
	return dst
}

// step moves n pixels from 'from' toward 'to'. n never exceeds their distance.
func step(from, to int, n uint64) int {
	if to < from {
		return int(uint64(from) - n)
	}
	return int(uint64(from) + n)
}

// lerpRound returns t*num/den rounded half up, for 0 <= t <= den and den > 0.
func lerpRound(t, num, den uint64) uint64 {
	hi, lo := bits.Mul64(t, num)
	q, r := bits.Div64(hi, lo, den)
	if r >= den-r {
		q++
	}
	return q
}

// FillRect fills the rectangle spanned by p1 and p2 (max edges exclusive).
func FillRect(src *pixmap.Pixmap, c color.NRGBA, p1, p2 image.Point) *pixmap.Pixmap {
	dst := src.Clone()
	cv := canvas{dst: dst, c: c}
	r := image.Rectangle{Min: p1, Max: p2}.Canon().Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		cv.span(r.Min.X, r.Max.X, y)
	}
	return dst
}

// StrokeRect outlines the rectangle spanned by p1 and p2. The outline covers
// both corner points, so it is one pixel wider and taller than FillRect.
func StrokeRect(src *pixmap.Pixmap, c color.NRGBA, p1, p2 image.Point) *pixmap.Pixmap {
	dst := src.Clone()
	cv := canvas{dst: dst, c: c}
	r := image.Rectangle{Min: p1, Max: p2}.Canon()
	w, h := dst.Width(), dst.Height()

	x1 := min(r.Max.X, w) + 1
	cv.span(r.Min.X, x1, r.Min.Y)
	if r.Max.Y != r.Min.Y {
		cv.span(r.Min.X, x1, r.Max.Y)
	}
	for y := max(r.Min.Y, -1) + 1; y < min(r.Max.Y, h); y++ {
		cv.plot(r.Min.X, y)
		if r.Max.X != r.Min.X {
			cv.plot(r.Max.X, y)
		}
	}
	return dst
}

// inEllipse reports whether the pixel center (px+0.5, py+0.5) lies inside
// the ellipse inscribed in the box starting at (x, y) with size w×h.
func inEllipse(px, py int, x, y, w, h float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	rx, ry := w/2, h/2
	nx := (float64(px) + 0.5 - (x + rx)) / rx
	ny := (float64(py) + 0.5 - (y + ry)) / ry
	return nx*nx+ny*ny <= 1
}

// FillOval fills the ellipse inscribed in the rectangle spanned by p1 and p2.
func FillOval(src *pixmap.Pixmap, c color.NRGBA, p1, p2 image.Point) *pixmap.Pixmap {
	dst := src.Clone()
	cv := canvas{dst: dst, c: c}
	r := image.Rectangle{Min: p1, Max: p2}.Canon()
	x, y := float64(r.Min.X), float64(r.Min.Y)
	w, h := float64(r.Dx()), float64(r.Dy())

	clip := r.Intersect(dst.Bounds())
	for py := clip.Min.Y; py < clip.Max.Y; py++ {
		for px := clip.Min.X; px < clip.Max.X; px++ {
			if inEllipse(px, py, x, y, w, h) {
				cv.plot(px, py)
			}
		}
	}
	return dst
}

// StrokeOval outlines the ellipse inscribed in the rectangle spanned by p1
// and p2 with a one-pixel ring. Like StrokeRect it covers both corner points.
func StrokeOval(src *pixmap.Pixmap, c color.NRGBA, p1, p2 image.Point) *pixmap.Pixmap {
	dst := src.Clone()
	cv := canvas{dst: dst, c: c}
	r := image.Rectangle{Min: p1, Max: p2}.Canon()

	// Outer box includes the far corner; the inner box is inset by one pixel.
	x, y := float64(r.Min.X), float64(r.Min.Y)
	w, h := float64(r.Dx()+1), float64(r.Dy()+1)

	for py := max(r.Min.Y, 0); py <= min(r.Max.Y, dst.Height()-1); py++ {
		for px := max(r.Min.X, 0); px <= min(r.Max.X, dst.Width()-1); px++ {
			if !inEllipse(px, py, x, y, w, h) {
				continue
			}
			if inEllipse(px, py, x+1, y+1, w-2, h-2) {
				continue
			}
			cv.plot(px, py)
		}
	}
	return dst
}

// blendNormal performs standard alpha blending (source over destination).
func blendNormal(srcR, srcG, srcB, srcA, dstR, dstG, dstB, dstA uint8) (r, g, b, a byte) {
	if srcA == 255 {
		return srcR, srcG, srcB, 255
	}
	if srcA == 0 {
		return dstR, dstG, dstB, dstA
	}
	if dstA == 0 {
		return srcR, srcG, srcB, srcA
	}

	// Porter-Duff "source over":
	// out_a = src_a + dst_a * (1 - src_a)
	// out_c = (src_c * src_a + dst_c * dst_a * (1 - src_a)) / out_a
	srcAlpha := float64(srcA) / 255.0
	dstAlpha := float64(dstA) / 255.0
	outAlpha := srcAlpha + dstAlpha*(1-srcAlpha)

	r = uint8((float64(srcR)*srcAlpha+float64(dstR)*dstAlpha*(1-srcAlpha))/outAlpha + 0.5)
	g = uint8((float64(srcG)*srcAlpha+float64(dstG)*dstAlpha*(1-srcAlpha))/outAlpha + 0.5)
	b = uint8((float64(srcB)*srcAlpha+float64(dstB)*dstAlpha*(1-srcAlpha))/outAlpha + 0.5)
	a = uint8(outAlpha*255.0 + 0.5)

	return r, g, b, a
}

// absDiff returns |a-b| without overflowing.
func absDiff(a, b int) uint64 {
	if a < b {
		return uint64(b) - uint64(a)
	}
	return uint64(a) - uint64(b)
}
