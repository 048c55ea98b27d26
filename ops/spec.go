package ops

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by ParseSpec errors that are not parameter range
// violations.
var ErrSyntax = errors.New("ops: invalid op spec")

// Named colors accepted by ParseSpec in addition to #rrggbb and #rrggbbaa.
var namedColors = map[string]color.NRGBA{
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"orange": {R: 255, G: 165, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
	"green":  {G: 128, A: 255},
	"blue":   {B: 255, A: 255},
	"purple": {R: 128, B: 128, A: 255},
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := Kind(1); k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// Names returns every operation name in tag order.
func Names() []string {
	names := make([]string, 0, kindCount-1)
	for k := Kind(1); k < kindCount; k++ {
		names = append(names, kindNames[k])
	}
	return names
}

// specArgs holds the key=value pairs of one spec and tracks which were used.
type specArgs struct {
	name string
	vals map[string]string
	used map[string]bool
	err  error
}

func (a *specArgs) fail(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%w %q: %s", ErrSyntax, a.name, fmt.Sprintf(format, args...))
	}
}

func (a *specArgs) raw(key string) (string, bool) {
	v, ok := a.vals[key]
	if ok {
		a.used[key] = true
	}
	return v, ok
}

func (a *specArgs) intArg(key string, def int) int {
	v, ok := a.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		a.fail("%s=%q is not an integer", key, v)
	}
	return n
}

func (a *specArgs) mustInt(key string) int {
	if _, ok := a.vals[key]; !ok {
		a.fail("missing %s", key)
		return 0
	}
	return a.intArg(key, 0)
}

func (a *specArgs) floatArg(key string, def float64) float64 {
	v, ok := a.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		a.fail("%s=%q is not a number", key, v)
	}
	return f
}

func (a *specArgs) point(xKey, yKey string) image.Point {
	return image.Pt(a.mustInt(xKey), a.mustInt(yKey))
}

func (a *specArgs) colorArg() color.NRGBA {
	v, ok := a.raw("color")
	if !ok {
		return namedColors["black"]
	}
	c, err := ParseColor(v)
	if err != nil {
		a.fail("%v", err)
	}
	return c
}

func (a *specArgs) fill() Fill {
	v, ok := a.raw("fill")
	if !ok {
		return Outline
	}
	switch strings.ToLower(v) {
	case "outline":
		return Outline
	case "solid":
		return Solid
	}
	a.fail("fill=%q, want outline or solid", v)
	return Outline
}

func (a *specArgs) unused() {
	var extra []string
	for k := range a.vals {
		if !a.used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		a.fail("unknown parameter %s", strings.Join(extra, ", "))
	}
}

// ParseSpec parses an op spec of the form name[:key=value,...], for example
// "gaussian:radius=2" or "draw-rect:color=#ff0000,fill=solid,x1=0,y1=0,x2=9,y2=9".
//
// A random-scatter spec without a seed gets a fresh random seed, which is
// stored in the returned record.
func ParseSpec(s string) (Op, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(s), ":")
	name = strings.ToLower(strings.TrimSpace(name))
	kind, ok := kindByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrSyntax, name)
	}

	a := &specArgs{name: name, vals: make(map[string]string), used: make(map[string]bool)}
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, pair := range strings.Split(rest, ",") {
			k, v, ok := strings.Cut(pair, "=")
			k = strings.ToLower(strings.TrimSpace(k))
			if !ok || k == "" {
				return nil, fmt.Errorf("%w %q: malformed parameter %q", ErrSyntax, name, pair)
			}
			if _, dup := a.vals[k]; dup {
				return nil, fmt.Errorf("%w %q: duplicate parameter %q", ErrSyntax, name, k)
			}
			a.vals[k] = strings.TrimSpace(v)
		}
	}

	var op Op
	switch kind {
	case KindFlipHorizontal:
		op = FlipHorizontal{}
	case KindFlipVertical:
		op = FlipVertical{}
	case KindRotateLeft:
		op = RotateLeft{}
	case KindRotateRight:
		op = RotateRight{}
	case KindRotate180:
		op = Rotate180{}
	case KindResize:
		op = Resize{Scale: a.floatArg("scale", 100)}
	case KindCrop:
		op = Crop{P1: a.point("x1", "y1"), P2: a.point("x2", "y2")}
	case KindGreyscale:
		op = Greyscale{}
	case KindInvert:
		op = Invert{}
	case KindChannelCycle:
		op = ChannelCycle{Perm: parsePerm(a)}
	case KindBrightnessContrast:
		op = BrightnessContrast{Brightness: a.intArg("brightness", 0), Contrast: a.intArg("contrast", 0)}
	case KindMeanFilter:
		op = MeanFilter{Radius: a.intArg("radius", 1)}
	case KindMedianFilter:
		op = MedianFilter{Radius: a.intArg("radius", 1)}
	case KindGaussianFilter:
		op = GaussianFilter{Radius: a.intArg("radius", 1)}
	case KindSharpen:
		op = Sharpen{}
	case KindEmboss:
		op = Emboss{Direction: parseDirection(a)}
	case KindSobel:
		op = Sobel{Axis: parseAxis(a)}
	case KindBlockAverage:
		size := a.intArg("size", 1)
		op = BlockAverage{Width: a.intArg("width", size), Height: a.intArg("height", size)}
	case KindRandomScatter:
		seed := rand.Uint64()
		if v, ok := a.raw("seed"); ok {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				a.fail("seed=%q is not an unsigned integer", v)
			}
			seed = n
		}
		op = RandomScatter{Radius: a.intArg("radius", 1), Seed: seed}
	case KindDrawLine:
		op = DrawLine{Color: a.colorArg(), P1: a.point("x1", "y1"), P2: a.point("x2", "y2")}
	case KindDrawRect:
		op = DrawRect{Color: a.colorArg(), Fill: a.fill(), P1: a.point("x1", "y1"), P2: a.point("x2", "y2")}
	case KindDrawOval:
		op = DrawOval{Color: a.colorArg(), Fill: a.fill(), P1: a.point("x1", "y1"), P2: a.point("x2", "y2")}
	}

	a.unused()
	if a.err != nil {
		return nil, a.err
	}
	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

func parsePerm(a *specArgs) [3]Channel {
	v, ok := a.raw("order")
	if !ok {
		return [3]Channel{Green, Blue, Red}
	}
	var perm [3]Channel
	if len(v) != 3 {
		a.fail("order=%q, want three letters from RGB", v)
		return perm
	}
	for i, r := range strings.ToUpper(v) {
		if i >= len(perm) {
			a.fail("order=%q, want three letters from RGB", v)
			break
		}
		switch r {
		case 'R':
			perm[i] = Red
		case 'G':
			perm[i] = Green
		case 'B':
			perm[i] = Blue
		default:
			a.fail("order=%q, want three letters from RGB", v)
		}
	}
	return perm
}

func parseDirection(a *specArgs) Direction {
	v, ok := a.raw("direction")
	if !ok {
		return North
	}
	for d := Direction(0); d < directionCount; d++ {
		if strings.EqualFold(v, directionNames[d]) {
			return d
		}
	}
	a.fail("direction=%q, want one of %s", v, strings.Join(directionNames[:], ", "))
	return North
}

func parseAxis(a *specArgs) Axis {
	v, ok := a.raw("axis")
	if !ok {
		return Horizontal
	}
	switch strings.ToLower(v) {
	case "horizontal", "h", "x":
		return Horizontal
	case "vertical", "v", "y":
		return Vertical
	}
	a.fail("axis=%q, want horizontal or vertical", v)
	return Horizontal
}

// ParseColor parses #rrggbb, #rrggbbaa or a color name.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor is the inverse of ParseColor for hex colors.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Format returns the canonical spec of op. ParseSpec(Format(op)) == op for
// every valid record.
func Format(op Op) string {
	name := op.Kind().String()
	var args string
	switch o := op.(type) {
	case Resize:
		args = "scale=" + strconv.FormatFloat(o.Scale, 'g', -1, 64)
	case Crop:
		args = pointArgs(o.P1, o.P2)
	case ChannelCycle:
		args = "order=" + o.Perm[0].String() + o.Perm[1].String() + o.Perm[2].String()
	case BrightnessContrast:
		args = fmt.Sprintf("brightness=%d,contrast=%d", o.Brightness, o.Contrast)
	case MeanFilter:
		args = fmt.Sprintf("radius=%d", o.Radius)
	case MedianFilter:
		args = fmt.Sprintf("radius=%d", o.Radius)
	case GaussianFilter:
		args = fmt.Sprintf("radius=%d", o.Radius)
	case Emboss:
		args = "direction=" + o.Direction.String()
	case Sobel:
		args = "axis=" + o.Axis.String()
	case BlockAverage:
		args = fmt.Sprintf("width=%d,height=%d", o.Width, o.Height)
	case RandomScatter:
		args = fmt.Sprintf("radius=%d,seed=%d", o.Radius, o.Seed)
	case DrawLine:
		args = "color=" + FormatColor(o.Color) + "," + pointArgs(o.P1, o.P2)
	case DrawRect:
		args = "color=" + FormatColor(o.Color) + ",fill=" + o.Fill.String() + "," + pointArgs(o.P1, o.P2)
	case DrawOval:
		args = "color=" + FormatColor(o.Color) + ",fill=" + o.Fill.String() + "," + pointArgs(o.P1, o.P2)
	}
	if args == "" {
		return name
	}
	return name + ":" + args
}

func pointArgs(p1, p2 image.Point) string {
	return fmt.Sprintf("x1=%d,y1=%d,x2=%d,y2=%d", p1.X, p1.Y, p2.X, p2.Y)
}
