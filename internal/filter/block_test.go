package filter

import (
	"image/color"
	"testing"

	"github.com/gogpu/darkroom/pixmap"
)

func TestBlockAverage(t *testing.T) {
	// 3x2 image, 2x2 blocks: left block is 2x2, right block is 1x2.
	src := pixmap.MustNew(3, 2)
	src.Set8(0, 0, 0, 0, 0, 255)
	src.Set8(1, 0, 100, 0, 0, 255)
	src.Set8(0, 1, 200, 0, 0, 255)
	src.Set8(1, 1, 100, 0, 0, 255)
	src.Set8(2, 0, 10, 20, 30, 255)
	src.Set8(2, 1, 30, 40, 50, 255)

	dst := BlockAverage(src, 2, 2)

	for _, p := range []struct{ x, y int }{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if r, _, _, _ := dst.At8(p.x, p.y); r != 100 {
			t.Errorf("left block (%d,%d) r = %d, want 100", p.x, p.y, r)
		}
	}
	for y := 0; y < 2; y++ {
		if r, g, b, _ := dst.At8(2, y); r != 20 || g != 30 || b != 40 {
			t.Errorf("right block (2,%d) = (%d,%d,%d), want (20,30,40)", y, r, g, b)
		}
	}
}

func TestBlockAverageUnitBlockIsIdentity(t *testing.T) {
	src := createGradientPixmap(5, 4)
	if !BlockAverage(src, 1, 1).Equal(src) {
		t.Error("1x1 blocks should leave the image unchanged")
	}
}

func TestScatterDeterministic(t *testing.T) {
	src := createGradientPixmap(16, 12)

	a := Scatter(src, 3, 42)
	b := Scatter(src, 3, 42)
	c := Scatter(src, 3, 43)

	if !a.Equal(b) {
		t.Error("same seed produced different output")
	}
	if a.Equal(c) {
		t.Error("different seeds produced identical output")
	}
}

func TestScatterUniform(t *testing.T) {
	want := color.NRGBA{R: 9, G: 8, B: 7, A: 6}
	src := createTestPixmap(5, 5, want)

	dst := Scatter(src, 100, 1)

	if !dst.Equal(src) {
		t.Error("scattering a uniform image should not change it")
	}
}

func TestScatterPicksFromNeighbourhood(t *testing.T) {
	// Unique red per column: each output pixel must come from within radius.
	src := pixmap.MustNew(20, 1)
	for x := 0; x < 20; x++ {
		src.Set8(x, 0, uint8(x), 0, 0, 255)
	}

	dst := Scatter(src, 2, 7)

	for x := 0; x < 20; x++ {
		r, _, _, _ := dst.At8(x, 0)
		if d := int(r) - x; d < -2 || d > 2 {
			t.Errorf("pixel %d came from column %d, outside radius 2", x, r)
		}
	}
}
