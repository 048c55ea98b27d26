package ops

import (
	"fmt"

	"github.com/gogpu/darkroom/internal/filter"
	"github.com/gogpu/darkroom/internal/paint"
	"github.com/gogpu/darkroom/internal/transform"
	"github.com/gogpu/darkroom/pixmap"
)

// Apply runs op against src and returns a new pixmap. src is never modified.
//
// The record is validated first, so a hand-built struct with out-of-range
// parameters fails with *InvalidParameterError instead of reaching the
// pixel code. Operations that depend on image size (crop, resize) fail with
// ErrOutOfBounds or ErrEmptyResult.
func Apply(src *pixmap.Pixmap, op Op) (*pixmap.Pixmap, error) {
	if src == nil {
		return nil, ErrNilPixmap
	}
	if err := Validate(op); err != nil {
		return nil, err
	}

	switch o := op.(type) {
	case FlipHorizontal:
		return transform.FlipHorizontal(src), nil
	case FlipVertical:
		return transform.FlipVertical(src), nil
	case RotateLeft:
		return transform.RotateLeft(src), nil
	case RotateRight:
		return transform.RotateRight(src), nil
	case Rotate180:
		return transform.Rotate180(src), nil

	case Resize:
		dst, err := transform.Resize(src, o.Scale)
		if err != nil {
			return nil, fmt.Errorf("ops: resize %g%%: %w", o.Scale, err)
		}
		return dst, nil
	case Crop:
		dst, err := transform.Crop(src, o.Rect())
		if err != nil {
			return nil, fmt.Errorf("ops: crop %v of %dx%d: %w", o.Rect(), src.Width(), src.Height(), err)
		}
		return dst, nil

	case Greyscale:
		return filter.GreyscaleMatrix().Apply(src), nil
	case Invert:
		return filter.InvertMatrix().Apply(src), nil
	case ChannelCycle:
		perm := [3]int{int(o.Perm[0]), int(o.Perm[1]), int(o.Perm[2])}
		return filter.PermutationMatrix(perm).Apply(src), nil
	case BrightnessContrast:
		return filter.BrightnessContrastMatrix(o.Brightness, o.Contrast).Apply(src), nil

	case MeanFilter:
		return filter.Convolve(src, filter.MeanKernel(o.Radius), filter.ModeStandard, 0), nil
	case MedianFilter:
		return filter.Median(src, o.Radius), nil
	case GaussianFilter:
		return filter.Convolve(src, filter.CachedGaussianKernel(o.Radius), filter.ModeStandard, 0), nil
	case Sharpen:
		return filter.Convolve(src, filter.SharpenKernel(), filter.ModeStandard, 0), nil
	case Emboss:
		dx, dy := o.Direction.Offset()
		return filter.Convolve(src, filter.EmbossKernel(dx, dy), filter.ModeSigned, 0), nil
	case Sobel:
		k := filter.SobelHorizontalKernel()
		if o.Axis == Vertical {
			k = filter.SobelVerticalKernel()
		}
		return filter.Convolve(src, k, filter.ModeSigned, 0), nil

	case BlockAverage:
		return filter.BlockAverage(src, o.Width, o.Height), nil
	case RandomScatter:
		return filter.Scatter(src, o.Radius, o.Seed), nil

	case DrawLine:
		return paint.Line(src, o.Color, o.P1, o.P2), nil
	case DrawRect:
		if o.Fill == Solid {
			return paint.FillRect(src, o.Color, o.P1, o.P2), nil
		}
		return paint.StrokeRect(src, o.Color, o.P1, o.P2), nil
	case DrawOval:
		if o.Fill == Solid {
			return paint.FillOval(src, o.Color, o.P1, o.P2), nil
		}
		return paint.StrokeOval(src, o.Color, o.P1, o.P2), nil
	}

	// Validate rejects anything not handled above.
	return nil, ErrUnknownOp
}

// ApplyAll runs records in order. On failure it returns the last good
// pixmap together with the number of records that succeeded.
func ApplyAll(src *pixmap.Pixmap, records []Op) (*pixmap.Pixmap, int, error) {
	cur := src
	for i, op := range records {
		next, err := Apply(cur, op)
		if err != nil {
			return cur, i, err
		}
		cur = next
	}
	return cur, len(records), nil
}
