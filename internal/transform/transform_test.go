package transform

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/darkroom/pixmap"
)

// numbered returns a w×h pixmap whose red channel is the pixel index.
func numbered(w, h int) *pixmap.Pixmap {
	p := pixmap.MustNew(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set8(x, y, uint8(y*w+x), 0, 0, 255)
		}
	}
	return p
}

// reds returns the red channel of p in row-major order.
func reds(p *pixmap.Pixmap) []uint8 {
	out := make([]uint8, 0, p.Width()*p.Height())
	for y := 0; y < p.Height(); y++ {
		for x := 0; x < p.Width(); x++ {
			r, _, _, _ := p.At8(x, y)
			out = append(out, r)
		}
	}
	return out
}

func equalBytes(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlipsAndRotations(t *testing.T) {
	// 0 1 2
	// 3 4 5
	src := numbered(3, 2)

	tests := []struct {
		name  string
		fn    func(*pixmap.Pixmap) *pixmap.Pixmap
		w, h  int
		wantR []uint8
	}{
		{"flip horizontal", FlipHorizontal, 3, 2, []uint8{2, 1, 0, 5, 4, 3}},
		{"flip vertical", FlipVertical, 3, 2, []uint8{3, 4, 5, 0, 1, 2}},
		{"rotate 180", Rotate180, 3, 2, []uint8{5, 4, 3, 2, 1, 0}},
		{"rotate right", RotateRight, 2, 3, []uint8{3, 0, 4, 1, 5, 2}},
		{"rotate left", RotateLeft, 2, 3, []uint8{2, 5, 1, 4, 0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(src)
			if got.Width() != tt.w || got.Height() != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", got.Width(), got.Height(), tt.w, tt.h)
			}
			if r := reds(got); !equalBytes(r, tt.wantR) {
				t.Errorf("pixels = %v, want %v", r, tt.wantR)
			}
		})
	}
}

func TestRotationInverses(t *testing.T) {
	src := numbered(4, 3)

	if !RotateLeft(RotateRight(src)).Equal(src) {
		t.Error("left after right is not identity")
	}
	if !Rotate180(Rotate180(src)).Equal(src) {
		t.Error("180 twice is not identity")
	}
	if !RotateRight(RotateRight(src)).Equal(Rotate180(src)) {
		t.Error("two right turns differ from 180")
	}
	if !FlipHorizontal(FlipVertical(src)).Equal(Rotate180(src)) {
		t.Error("both flips differ from 180")
	}
}

func TestCrop(t *testing.T) {
	src := numbered(4, 4)

	// Corners given in reverse order are normalised.
	got, err := Crop(src, image.Rect(3, 3, 1, 1))
	if err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	if got.Width() != 2 || got.Height() != 2 {
		t.Fatalf("size = %dx%d, want 2x2", got.Width(), got.Height())
	}
	if r := reds(got); !equalBytes(r, []uint8{5, 6, 9, 10}) {
		t.Errorf("pixels = %v, want [5 6 9 10]", r)
	}
}

func TestCropErrors(t *testing.T) {
	src := numbered(4, 4)

	tests := []struct {
		name string
		r    image.Rectangle
		want error
	}{
		{"outside", image.Rect(2, 2, 6, 6), ErrOutOfBounds},
		{"negative origin", image.Rect(-1, 0, 2, 2), ErrOutOfBounds},
		{"empty", image.Rect(1, 1, 1, 3), ErrEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(src, tt.r); !errors.Is(err, tt.want) {
				t.Errorf("Crop(%v) error = %v, want %v", tt.r, err, tt.want)
			}
		})
	}
}

func TestResize(t *testing.T) {
	src := pixmap.MustNew(10, 6)
	src.Fill(color.NRGBA{R: 80, G: 160, B: 240, A: 255})

	half, err := Resize(src, 50)
	if err != nil {
		t.Fatalf("Resize(50) error = %v", err)
	}
	if half.Width() != 5 || half.Height() != 3 {
		t.Fatalf("size = %dx%d, want 5x3", half.Width(), half.Height())
	}
	r, g, b, a := half.At8(2, 1)
	if !near(r, 80) || !near(g, 160) || !near(b, 240) || !near(a, 255) {
		t.Errorf("uniform color changed to (%d,%d,%d,%d)", r, g, b, a)
	}

	double, err := Resize(src, 200)
	if err != nil {
		t.Fatalf("Resize(200) error = %v", err)
	}
	if double.Width() != 20 || double.Height() != 12 {
		t.Errorf("size = %dx%d, want 20x12", double.Width(), double.Height())
	}
}

// near reports whether v is within one step of want; resampling rounds
// through 16-bit premultiplied intermediates.
func near(v, want uint8) bool {
	d := int(v) - int(want)
	return d >= -1 && d <= 1
}

func TestResizeIdentityAndEmpty(t *testing.T) {
	src := numbered(5, 5)

	same, err := Resize(src, 100)
	if err != nil {
		t.Fatalf("Resize(100) error = %v", err)
	}
	if !same.Equal(src) {
		t.Error("Resize(100) changed the image")
	}

	if _, err := Resize(src, 10); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Resize(10) of 5x5 error = %v, want ErrEmptyResult", err)
	}
}

func TestResizeDeterministic(t *testing.T) {
	src := numbered(9, 7)

	a, _ := Resize(src, 73)
	b, _ := Resize(src, 73)
	if !a.Equal(b) {
		t.Error("resize is not deterministic")
	}
}

func TestResizedSizeLimits(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		percent      float64
		wantW, wantH int
		wantErr      error
	}{
		{"half", 10, 6, 50, 5, 3, nil},
		{"over the limit", 8192, 4096, 200, 16384, 8192, ErrTooLarge},
		{"largest allowed", 4096, 4096, 200, 8192, 8192, nil},
		{"huge scale", 2, 2, 1e12, 0, 0, ErrTooLarge},
		{"infinite scale", 2, 2, math.Inf(1), 0, 0, ErrTooLarge},
		{"nan scale", 2, 2, math.NaN(), 0, 0, ErrEmptyResult},
		{"too small", 5, 5, 10, 0, 0, ErrEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ResizedSize(tt.w, tt.h, tt.percent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResizedSize() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (w != tt.wantW || h != tt.wantH) {
				t.Errorf("ResizedSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResizeTooLarge(t *testing.T) {
	if _, err := Resize(numbered(4, 4), 1e12); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Resize(1e12) error = %v, want ErrTooLarge", err)
	}
}
