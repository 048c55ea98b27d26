// Package pixmap provides the RGBA8 pixel buffer shared by every darkroom
// operation.
//
// A Pixmap stores straight (non-premultiplied) alpha, 4 bytes per pixel,
// rows packed without padding. Operations never mutate a Pixmap they did not
// create: each derived buffer is a fresh copy, so a Pixmap handed out as a
// snapshot stays valid for as long as the caller holds it.
package pixmap

import (
	"errors"
	"image"
	"image/color"
)

// Common errors for pixmap operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pixmap: invalid dimensions")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("pixmap: data buffer too small")
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Pixmap represents a rectangular RGBA8 pixel buffer.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel
}

// New creates a transparent black pixmap with the given dimensions.
func New(width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*BytesPerPixel),
	}, nil
}

// MustNew is like New but panics on invalid dimensions.
// Intended for tests and fixed-size scratch buffers.
func MustNew(width, height int) *Pixmap {
	p, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return p
}

// FromRaw creates a pixmap that copies the given RGBA8 data.
func FromRaw(data []uint8, width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	need := width * height * BytesPerPixel
	if len(data) < need {
		return nil, ErrDataTooSmall
	}
	buf := make([]uint8, need)
	copy(buf, data)
	return &Pixmap{width: width, height: height, data: buf}, nil
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Offset returns the byte offset of pixel (x, y), or -1 if out of bounds.
func (p *Pixmap) Offset(x, y int) int {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return -1
	}
	return (y*p.width + x) * BytesPerPixel
}

// At8 returns the channels of pixel (x, y).
// Out-of-bounds coordinates return transparent black.
func (p *Pixmap) At8(x, y int) (r, g, b, a uint8) {
	i := p.Offset(x, y)
	if i < 0 {
		return 0, 0, 0, 0
	}
	return p.data[i], p.data[i+1], p.data[i+2], p.data[i+3]
}

// Set8 sets the channels of pixel (x, y).
// Out-of-bounds coordinates are silently ignored.
func (p *Pixmap) Set8(x, y int, r, g, b, a uint8) {
	i := p.Offset(x, y)
	if i < 0 {
		return
	}
	p.data[i+0] = r
	p.data[i+1] = g
	p.data[i+2] = b
	p.data[i+3] = a
}

// Fill sets every pixel to the given color.
func (p *Pixmap) Fill(c color.NRGBA) {
	for i := 0; i < len(p.data); i += BytesPerPixel {
		p.data[i+0] = c.R
		p.data[i+1] = c.G
		p.data[i+2] = c.B
		p.data[i+3] = c.A
	}
}

// Clone creates a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	data := make([]uint8, len(p.data))
	copy(data, p.data)
	return &Pixmap{
		width:  p.width,
		height: p.height,
		data:   data,
	}
}

// Equal reports whether both pixmaps have the same dimensions and bytes.
func (p *Pixmap) Equal(other *Pixmap) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.width != other.width || p.height != other.height {
		return false
	}
	for i := range p.data {
		if p.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// SameSize returns a new zeroed pixmap with the dimensions of p.
func (p *Pixmap) SameSize() *Pixmap {
	return &Pixmap{
		width:  p.width,
		height: p.height,
		data:   make([]uint8, len(p.data)),
	}
}

// ToImage converts the pixmap to an image.NRGBA.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) (*Pixmap, error) {
	bounds := img.Bounds()
	pm, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// Fast path for NRGBA images
	if nrgba, ok := img.(*image.NRGBA); ok {
		rowBytes := pm.width * BytesPerPixel
		for y := 0; y < pm.height; y++ {
			src := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			copy(pm.data[y*rowBytes:(y+1)*rowBytes], src[:rowBytes])
		}
		return pm, nil
	}

	for y := 0; y < pm.height; y++ {
		for x := 0; x < pm.width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			pm.Set8(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return pm, nil
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	r, g, b, a := p.At8(x, y)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
