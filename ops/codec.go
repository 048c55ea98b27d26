package ops

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"io"
	"math"
)

// Macro encoding.
//
//	magic   "DROP"
//	version u8 (1)
//	count   uvarint
//	records count × { tag uvarint, length uvarint, payload [length]byte }
//	crc     u32 big-endian, IEEE CRC-32 of every preceding byte
//
// Payload integers are big-endian. Decoders ignore payload bytes past the
// fields they know, so a later version may append fields to a record.
const (
	Magic   = "DROP"
	Version = 1

	headerSize  = len(Magic) + 1
	trailerSize = 4
)

// Marshal encodes records in the macro format. Every record is validated.
func Marshal(records []Op) ([]byte, error) {
	b := make([]byte, 0, headerSize+binary.MaxVarintLen64+len(records)*16+trailerSize)
	b = append(b, Magic...)
	b = append(b, Version)
	b = binary.AppendUvarint(b, uint64(len(records)))

	var scratch []byte
	for i, op := range records {
		if err := Validate(op); err != nil {
			return nil, fmt.Errorf("ops: record %d: %w", i, err)
		}
		var err error
		scratch, err = appendPayload(scratch[:0], op)
		if err != nil {
			return nil, fmt.Errorf("ops: record %d: %w", i, err)
		}
		b = binary.AppendUvarint(b, uint64(op.Kind()))
		b = binary.AppendUvarint(b, uint64(len(scratch)))
		b = append(b, scratch...)
	}
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b)), nil
}

// Unmarshal decodes a complete macro. It either returns every record or a
// *FormatError; it never returns a partial list.
func Unmarshal(data []byte) ([]Op, error) {
	if len(data) < headerSize+1+trailerSize {
		return nil, &FormatError{Offset: 0, Record: -1, Reason: "truncated header"}
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, &FormatError{Offset: 0, Record: -1, Reason: fmt.Sprintf("bad magic %q", data[:len(Magic)])}
	}
	if v := data[len(Magic)]; v != Version {
		return nil, &FormatError{Offset: len(Magic), Record: -1, Reason: fmt.Sprintf("unsupported version %d", v)}
	}

	body := data[:len(data)-trailerSize]
	want := binary.BigEndian.Uint32(data[len(body):])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, &FormatError{
			Offset: len(body),
			Record: -1,
			Reason: fmt.Sprintf("checksum mismatch: stored %08x, computed %08x", want, got),
		}
	}

	off := headerSize
	count, n := binary.Uvarint(body[off:])
	if n <= 0 {
		return nil, &FormatError{Offset: off, Record: -1, Reason: "bad record count"}
	}
	off += n
	// Each record needs at least a tag byte and a length byte.
	if count > uint64(len(body)-off)/2 {
		return nil, &FormatError{Offset: off, Record: -1, Reason: fmt.Sprintf("record count %d exceeds data", count)}
	}

	records := make([]Op, 0, count)
	for i := 0; i < int(count); i++ {
		start := off
		tag, n := binary.Uvarint(body[off:])
		if n <= 0 {
			return nil, &FormatError{Offset: off, Record: i, Reason: "bad tag"}
		}
		off += n
		size, n := binary.Uvarint(body[off:])
		if n <= 0 {
			return nil, &FormatError{Offset: off, Record: i, Reason: "bad length"}
		}
		off += n
		if size > uint64(len(body)-off) {
			return nil, &FormatError{Offset: off, Record: i, Reason: fmt.Sprintf("payload length %d exceeds data", size)}
		}
		if tag == 0 || tag >= uint64(kindCount) {
			return nil, &FormatError{Offset: start, Record: i, Reason: fmt.Sprintf("unknown tag %d", tag)}
		}

		op, err := decodePayload(Kind(tag), body[off:off+int(size)])
		if err != nil {
			return nil, &FormatError{Offset: start, Record: i, Reason: Kind(tag).String(), Err: err}
		}
		records = append(records, op)
		off += int(size)
	}
	if off != len(body) {
		return nil, &FormatError{Offset: off, Record: -1, Reason: fmt.Sprintf("%d trailing bytes", len(body)-off)}
	}
	return records, nil
}

// Encode writes the macro encoding of records to w.
func Encode(w io.Writer, records []Op) error {
	b, err := Marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads a whole macro from r.
func Decode(r io.Reader) ([]Op, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("ops: read macro: %w", err)
	}
	return Unmarshal(buf.Bytes())
}

func appendPayload(b []byte, op Op) ([]byte, error) {
	switch o := op.(type) {
	case FlipHorizontal, FlipVertical, RotateLeft, RotateRight, Rotate180,
		Greyscale, Invert, Sharpen:
		return b, nil
	case Resize:
		return binary.BigEndian.AppendUint64(b, math.Float64bits(o.Scale)), nil
	case Crop:
		return appendPoints(b, o.P1, o.P2)
	case ChannelCycle:
		return append(b, uint8(o.Perm[0]), uint8(o.Perm[1]), uint8(o.Perm[2])), nil
	case BrightnessContrast:
		return appendInts(b, o.Brightness, o.Contrast)
	case MeanFilter:
		return appendInts(b, o.Radius)
	case MedianFilter:
		return appendInts(b, o.Radius)
	case GaussianFilter:
		return appendInts(b, o.Radius)
	case Emboss:
		return append(b, uint8(o.Direction)), nil
	case Sobel:
		return append(b, uint8(o.Axis)), nil
	case BlockAverage:
		return appendInts(b, o.Width, o.Height)
	case RandomScatter:
		b, err := appendInts(b, o.Radius)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.AppendUint64(b, o.Seed), nil
	case DrawLine:
		b = append(b, o.Color.R, o.Color.G, o.Color.B, o.Color.A)
		return appendPoints(b, o.P1, o.P2)
	case DrawRect:
		b = append(b, o.Color.R, o.Color.G, o.Color.B, o.Color.A, uint8(o.Fill))
		return appendPoints(b, o.P1, o.P2)
	case DrawOval:
		b = append(b, o.Color.R, o.Color.G, o.Color.B, o.Color.A, uint8(o.Fill))
		return appendPoints(b, o.P1, o.P2)
	}
	return nil, ErrUnknownOp
}

func appendInts(b []byte, vs ...int) ([]byte, error) {
	for _, v := range vs {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("ops: value %d does not fit in 32 bits", v)
		}
		b = binary.BigEndian.AppendUint32(b, uint32(int32(v)))
	}
	return b, nil
}

func appendPoints(b []byte, p1, p2 image.Point) ([]byte, error) {
	return appendInts(b, p1.X, p1.Y, p2.X, p2.Y)
}

// payloadReader reads fixed-width fields from one record payload. A short
// read sets short and yields zero values.
type payloadReader struct {
	b     []byte
	short bool
}

func (r *payloadReader) take(n int) []byte {
	if r.short || len(r.b) < n {
		r.short = true
		return make([]byte, n)
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *payloadReader) u8() uint8 {
	return r.take(1)[0]
}

func (r *payloadReader) i32() int {
	return int(int32(binary.BigEndian.Uint32(r.take(4))))
}

func (r *payloadReader) u64() uint64 {
	return binary.BigEndian.Uint64(r.take(8))
}

func (r *payloadReader) point() image.Point {
	x := r.i32()
	return image.Pt(x, r.i32())
}

func (r *payloadReader) rgba() color.NRGBA {
	c := r.take(4)
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func decodePayload(kind Kind, b []byte) (Op, error) {
	r := &payloadReader{b: b}
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
		op = Resize{Scale: math.Float64frombits(r.u64())}
	case KindCrop:
		p1 := r.point()
		op = Crop{P1: p1, P2: r.point()}
	case KindGreyscale:
		op = Greyscale{}
	case KindInvert:
		op = Invert{}
	case KindChannelCycle:
		c := r.take(3)
		op = ChannelCycle{Perm: [3]Channel{Channel(c[0]), Channel(c[1]), Channel(c[2])}}
	case KindBrightnessContrast:
		bright := r.i32()
		op = BrightnessContrast{Brightness: bright, Contrast: r.i32()}
	case KindMeanFilter:
		op = MeanFilter{Radius: r.i32()}
	case KindMedianFilter:
		op = MedianFilter{Radius: r.i32()}
	case KindGaussianFilter:
		op = GaussianFilter{Radius: r.i32()}
	case KindSharpen:
		op = Sharpen{}
	case KindEmboss:
		op = Emboss{Direction: Direction(r.u8())}
	case KindSobel:
		op = Sobel{Axis: Axis(r.u8())}
	case KindBlockAverage:
		w := r.i32()
		op = BlockAverage{Width: w, Height: r.i32()}
	case KindRandomScatter:
		radius := r.i32()
		op = RandomScatter{Radius: radius, Seed: r.u64()}
	case KindDrawLine:
		c := r.rgba()
		p1 := r.point()
		op = DrawLine{Color: c, P1: p1, P2: r.point()}
	case KindDrawRect:
		c, fill := r.rgba(), Fill(r.u8())
		p1 := r.point()
		op = DrawRect{Color: c, Fill: fill, P1: p1, P2: r.point()}
	case KindDrawOval:
		c, fill := r.rgba(), Fill(r.u8())
		p1 := r.point()
		op = DrawOval{Color: c, Fill: fill, P1: p1, P2: r.point()}
	default:
		return nil, ErrUnknownOp
	}

	if r.short {
		return nil, io.ErrUnexpectedEOF
	}
	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}
