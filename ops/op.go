// Package ops defines darkroom's operation records: the closed set of
// parametrized editing steps, their validation, the pixel dispatch that
// applies them, and the binary and text encodings shared by macro files and
// saved sessions.
//
// Every record is an immutable value. Two records are equal (==) exactly
// when they describe the same edit, and applying equal records to equal
// pixmaps always produces identical output.
package ops

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/darkroom/internal/transform"
)

// Kind identifies an operation variant. Its numeric value is the record tag
// in the binary encoding and must never be reused or renumbered.
type Kind uint8

// Operation kinds.
const (
	KindFlipHorizontal Kind = iota + 1
	KindFlipVertical
	KindRotateLeft
	KindRotateRight
	KindRotate180
	KindResize
	KindCrop
	KindGreyscale
	KindInvert
	KindChannelCycle
	KindBrightnessContrast
	KindMeanFilter
	KindMedianFilter
	KindGaussianFilter
	KindSharpen
	KindEmboss
	KindSobel
	KindBlockAverage
	KindRandomScatter
	KindDrawLine
	KindDrawRect
	KindDrawOval

	kindCount
)

var kindNames = [kindCount]string{
	KindFlipHorizontal:     "flip-horizontal",
	KindFlipVertical:       "flip-vertical",
	KindRotateLeft:         "rotate-left",
	KindRotateRight:        "rotate-right",
	KindRotate180:          "rotate-180",
	KindResize:             "resize",
	KindCrop:               "crop",
	KindGreyscale:          "greyscale",
	KindInvert:             "invert",
	KindChannelCycle:       "channel-cycle",
	KindBrightnessContrast: "brightness-contrast",
	KindMeanFilter:         "mean",
	KindMedianFilter:       "median",
	KindGaussianFilter:     "gaussian",
	KindSharpen:            "sharpen",
	KindEmboss:             "emboss",
	KindSobel:              "sobel",
	KindBlockAverage:       "block-average",
	KindRandomScatter:      "random-scatter",
	KindDrawLine:           "draw-line",
	KindDrawRect:           "draw-rect",
	KindDrawOval:           "draw-oval",
}

// String returns the operation name used in op specs.
func (k Kind) String() string {
	if k == 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// IsValid reports whether k names a known operation.
func (k Kind) IsValid() bool {
	return k > 0 && k < kindCount
}

// Op is one operation record. The set of implementations is closed: only
// the types declared in this package satisfy it.
type Op interface {
	// Kind returns the variant tag.
	Kind() Kind

	isOp()
}

// Parameter limits.
const (
	MinFilterRadius  = 1
	MaxFilterRadius  = 6
	MinBlockSize     = 1
	MaxBlockSize     = 200
	MinScatterRadius = 1
	MaxScatterRadius = 100
	MinAdjustment    = -100
	MaxAdjustment    = 100

	// MaxResizeScale is the largest resize percentage (100x). The result is
	// also bounded by MaxPixels.
	MaxResizeScale = 10000.0

	// MaxPixels is the largest image an operation may produce.
	MaxPixels = transform.MaxPixels
)

// Channel names a color channel.
type Channel uint8

// Color channels.
const (
	Red Channel = iota
	Green
	Blue
)

// String returns the single-letter channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return "?"
	}
}

// Direction is the light direction of an emboss filter.
type Direction uint8

// Emboss directions, clockwise from north.
const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest

	directionCount
)

var directionNames = [directionCount]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

var directionOffsets = [directionCount][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// String returns the compass abbreviation ("n", "ne", ...).
func (d Direction) String() string {
	if d >= directionCount {
		return "?"
	}
	return directionNames[d]
}

// Offset returns the unit step (dx, dy) of the direction in image space,
// where y grows downward. It panics if d is not a valid direction.
func (d Direction) Offset() (dx, dy int) {
	o := directionOffsets[d]
	return o[0], o[1]
}

// Axis selects the gradient direction of a Sobel filter.
type Axis uint8

// Sobel axes.
const (
	Horizontal Axis = iota
	Vertical
)

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "?"
	}
}

// Fill selects how a closed shape is drawn.
type Fill uint8

// Fill modes.
const (
	Outline Fill = iota
	Solid
)

// String returns the fill name.
func (f Fill) String() string {
	switch f {
	case Outline:
		return "outline"
	case Solid:
		return "solid"
	default:
		return "?"
	}
}

// FlipHorizontal mirrors the image left to right.
type FlipHorizontal struct{}

// FlipVertical mirrors the image top to bottom.
type FlipVertical struct{}

// RotateLeft turns the image 90° counter-clockwise.
type RotateLeft struct{}

// RotateRight turns the image 90° clockwise.
type RotateRight struct{}

// Rotate180 turns the image half a revolution.
type Rotate180 struct{}

// Resize scales the image. Scale is a percentage: 100 keeps the size.
type Resize struct {
	Scale float64
}

// Crop keeps the rectangle spanned by two corner points. P2's row and column
// are excluded, matching image.Rectangle.
type Crop struct {
	P1, P2 image.Point
}

// Rect returns the normalised crop rectangle.
func (c Crop) Rect() image.Rectangle {
	return image.Rectangle{Min: c.P1, Max: c.P2}.Canon()
}

// Greyscale replaces color with weighted luminance.
type Greyscale struct{}

// Invert inverts the RGB channels.
type Invert struct{}

// ChannelCycle permutes the RGB channels: output channel i takes the value
// of source channel Perm[i].
type ChannelCycle struct {
	Perm [3]Channel
}

// BrightnessContrast adjusts contrast around mid-grey, then scales
// brightness. Both are percentages in [-100, 100].
type BrightnessContrast struct {
	Brightness int
	Contrast   int
}

// MeanFilter blurs with an equal-weight (2r+1)² kernel.
type MeanFilter struct {
	Radius int
}

// MedianFilter replaces each channel with its neighbourhood median.
type MedianFilter struct {
	Radius int
}

// GaussianFilter blurs with a Gaussian kernel of sigma Radius/3.
type GaussianFilter struct {
	Radius int
}

// Sharpen applies a 3×3 sharpening kernel.
type Sharpen struct{}

// Emboss applies a directional emboss kernel.
type Emboss struct {
	Direction Direction
}

// Sobel applies a Sobel edge-detection kernel.
type Sobel struct {
	Axis Axis
}

// BlockAverage pixelates the image with Width×Height tiles.
type BlockAverage struct {
	Width  int
	Height int
}

// RandomScatter moves every pixel to a random position within Radius.
// Seed fixes the random sequence so replays are identical.
type RandomScatter struct {
	Radius int
	Seed   uint64
}

// DrawLine draws a one-pixel line between two points.
type DrawLine struct {
	Color  color.NRGBA
	P1, P2 image.Point
}

// DrawRect draws the rectangle spanned by two points.
type DrawRect struct {
	Color  color.NRGBA
	Fill   Fill
	P1, P2 image.Point
}

// DrawOval draws the ellipse inscribed in the rectangle spanned by two points.
type DrawOval struct {
	Color  color.NRGBA
	Fill   Fill
	P1, P2 image.Point
}

func (FlipHorizontal) Kind() Kind     { return KindFlipHorizontal }
func (FlipVertical) Kind() Kind       { return KindFlipVertical }
func (RotateLeft) Kind() Kind         { return KindRotateLeft }
func (RotateRight) Kind() Kind        { return KindRotateRight }
func (Rotate180) Kind() Kind          { return KindRotate180 }
func (Resize) Kind() Kind             { return KindResize }
func (Crop) Kind() Kind               { return KindCrop }
func (Greyscale) Kind() Kind          { return KindGreyscale }
func (Invert) Kind() Kind             { return KindInvert }
func (ChannelCycle) Kind() Kind       { return KindChannelCycle }
func (BrightnessContrast) Kind() Kind { return KindBrightnessContrast }
func (MeanFilter) Kind() Kind         { return KindMeanFilter }
func (MedianFilter) Kind() Kind       { return KindMedianFilter }
func (GaussianFilter) Kind() Kind     { return KindGaussianFilter }
func (Sharpen) Kind() Kind            { return KindSharpen }
func (Emboss) Kind() Kind             { return KindEmboss }
func (Sobel) Kind() Kind              { return KindSobel }
func (BlockAverage) Kind() Kind       { return KindBlockAverage }
func (RandomScatter) Kind() Kind      { return KindRandomScatter }
func (DrawLine) Kind() Kind           { return KindDrawLine }
func (DrawRect) Kind() Kind           { return KindDrawRect }
func (DrawOval) Kind() Kind           { return KindDrawOval }

func (FlipHorizontal) isOp()     {}
func (FlipVertical) isOp()       {}
func (RotateLeft) isOp()         {}
func (RotateRight) isOp()        {}
func (Rotate180) isOp()          {}
func (Resize) isOp()             {}
func (Crop) isOp()               {}
func (Greyscale) isOp()          {}
func (Invert) isOp()             {}
func (ChannelCycle) isOp()       {}
func (BrightnessContrast) isOp() {}
func (MeanFilter) isOp()         {}
func (MedianFilter) isOp()       {}
func (GaussianFilter) isOp()     {}
func (Sharpen) isOp()            {}
func (Emboss) isOp()             {}
func (Sobel) isOp()              {}
func (BlockAverage) isOp()       {}
func (RandomScatter) isOp()      {}
func (DrawLine) isOp()           {}
func (DrawRect) isOp()           {}
func (DrawOval) isOp()           {}

// NewResize returns a Resize by scale percent.
func NewResize(scale float64) (Resize, error) {
	op := Resize{Scale: scale}
	return op, Validate(op)
}

// NewCrop returns a Crop of the rectangle spanned by p1 and p2.
func NewCrop(p1, p2 image.Point) (Crop, error) {
	op := Crop{P1: p1, P2: p2}
	return op, Validate(op)
}

// NewChannelCycle returns a ChannelCycle taking R', G', B' from the given
// source channels.
func NewChannelCycle(r, g, b Channel) (ChannelCycle, error) {
	op := ChannelCycle{Perm: [3]Channel{r, g, b}}
	return op, Validate(op)
}

// NewBrightnessContrast returns a BrightnessContrast adjustment.
func NewBrightnessContrast(brightness, contrast int) (BrightnessContrast, error) {
	op := BrightnessContrast{Brightness: brightness, Contrast: contrast}
	return op, Validate(op)
}

// NewMeanFilter returns a MeanFilter of the given radius.
func NewMeanFilter(radius int) (MeanFilter, error) {
	op := MeanFilter{Radius: radius}
	return op, Validate(op)
}

// NewMedianFilter returns a MedianFilter of the given radius.
func NewMedianFilter(radius int) (MedianFilter, error) {
	op := MedianFilter{Radius: radius}
	return op, Validate(op)
}

// NewGaussianFilter returns a GaussianFilter of the given radius.
func NewGaussianFilter(radius int) (GaussianFilter, error) {
	op := GaussianFilter{Radius: radius}
	return op, Validate(op)
}

// NewEmboss returns an Emboss in the given direction.
func NewEmboss(d Direction) (Emboss, error) {
	op := Emboss{Direction: d}
	return op, Validate(op)
}

// NewSobel returns a Sobel along the given axis.
func NewSobel(a Axis) (Sobel, error) {
	op := Sobel{Axis: a}
	return op, Validate(op)
}

// NewBlockAverage returns a BlockAverage with width×height tiles.
func NewBlockAverage(width, height int) (BlockAverage, error) {
	op := BlockAverage{Width: width, Height: height}
	return op, Validate(op)
}

// NewRandomScatter returns a RandomScatter with an explicit seed.
func NewRandomScatter(radius int, seed uint64) (RandomScatter, error) {
	op := RandomScatter{Radius: radius, Seed: seed}
	return op, Validate(op)
}

// NewDrawLine returns a DrawLine.
func NewDrawLine(c color.NRGBA, p1, p2 image.Point) (DrawLine, error) {
	op := DrawLine{Color: c, P1: p1, P2: p2}
	return op, Validate(op)
}

// NewDrawRect returns a DrawRect.
func NewDrawRect(c color.NRGBA, fill Fill, p1, p2 image.Point) (DrawRect, error) {
	op := DrawRect{Color: c, Fill: fill, P1: p1, P2: p2}
	return op, Validate(op)
}

// NewDrawOval returns a DrawOval.
func NewDrawOval(c color.NRGBA, fill Fill, p1, p2 image.Point) (DrawOval, error) {
	op := DrawOval{Color: c, Fill: fill, P1: p1, P2: p2}
	return op, Validate(op)
}

// Validate checks the parameters of any record. History and the decoders
// call it, so a struct literal cannot bypass the constructors' checks.
func Validate(op Op) error {
	switch o := op.(type) {
	case FlipHorizontal, FlipVertical, RotateLeft, RotateRight, Rotate180,
		Greyscale, Invert, Sharpen:
		return nil
	case Resize:
		if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) || o.Scale <= 0 {
			return invalid(o, "scale", o.Scale, "must be a finite number > 0")
		}
		if o.Scale > MaxResizeScale {
			return invalid(o, "scale", o.Scale, fmt.Sprintf("must be at most %g", MaxResizeScale))
		}
	case Crop:
		r := o.Rect()
		if r.Empty() {
			return invalid(o, "rect", r, "must have positive width and height")
		}
		if r.Min.X < 0 || r.Min.Y < 0 {
			return invalid(o, "rect", r, "must not start at negative coordinates")
		}
	case ChannelCycle:
		var seen [3]bool
		for _, c := range o.Perm {
			if c > Blue || seen[c] {
				return invalid(o, "perm", o.Perm, "must be a permutation of R, G, B")
			}
			seen[c] = true
		}
	case BrightnessContrast:
		if err := checkRange(o, "brightness", o.Brightness, MinAdjustment, MaxAdjustment); err != nil {
			return err
		}
		return checkRange(o, "contrast", o.Contrast, MinAdjustment, MaxAdjustment)
	case MeanFilter:
		return checkRange(o, "radius", o.Radius, MinFilterRadius, MaxFilterRadius)
	case MedianFilter:
		return checkRange(o, "radius", o.Radius, MinFilterRadius, MaxFilterRadius)
	case GaussianFilter:
		return checkRange(o, "radius", o.Radius, MinFilterRadius, MaxFilterRadius)
	case Emboss:
		if o.Direction >= directionCount {
			return invalid(o, "direction", o.Direction, "unknown direction")
		}
	case Sobel:
		if o.Axis > Vertical {
			return invalid(o, "axis", o.Axis, "unknown axis")
		}
	case BlockAverage:
		if err := checkRange(o, "width", o.Width, MinBlockSize, MaxBlockSize); err != nil {
			return err
		}
		return checkRange(o, "height", o.Height, MinBlockSize, MaxBlockSize)
	case RandomScatter:
		return checkRange(o, "radius", o.Radius, MinScatterRadius, MaxScatterRadius)
	case DrawLine:
		return nil
	case DrawRect:
		return checkFill(o, o.Fill)
	case DrawOval:
		return checkFill(o, o.Fill)
	default:
		return ErrUnknownOp
	}
	return nil
}

func checkRange(op Op, param string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &InvalidParameterError{
			Kind:   op.Kind(),
			Param:  param,
			Value:  v,
			Reason: rangeReason(lo, hi),
		}
	}
	return nil
}

func checkFill(op Op, f Fill) error {
	if f > Solid {
		return invalid(op, "fill", f, "unknown fill mode")
	}
	return nil
}

func invalid(op Op, param string, v any, reason string) error {
	return &InvalidParameterError{Kind: op.Kind(), Param: param, Value: v, Reason: reason}
}
