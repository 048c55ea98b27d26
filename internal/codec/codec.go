// Package codec reads and writes raster image files as pixmaps.
//
// Decoding auto-detects PNG, JPEG, GIF, BMP, TIFF and WebP. Encoding
// supports PNG, JPEG, BMP and TIFF, chosen by file extension.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif" // register GIF decoder

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/darkroom/pixmap"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("codec: empty data")
)

// Format is an encodable image file format.
type Format int

// Encodable formats.
const (
	PNG Format = iota
	JPEG
	BMP
	TIFF
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// DefaultJPEGQuality is used when Options.Quality is zero.
const DefaultJPEGQuality = 90

// Options control encoding.
type Options struct {
	// Quality is the JPEG quality (1-100). Zero means DefaultJPEGQuality.
	Quality int
}

// FormatFromPath picks an encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode decodes an image from r, auto-detecting the format. It returns
// the registered format name alongside the pixmap.
func Decode(r io.Reader) (*pixmap.Pixmap, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return nil, "", fmt.Errorf("codec: decode: %w", err)
	}
	pm, err := pixmap.FromImage(img)
	if err != nil {
		return nil, "", fmt.Errorf("codec: decode %s: %w", format, err)
	}
	return pm, format, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*pixmap.Pixmap, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Load decodes the image file at path.
func Load(path string) (*pixmap.Pixmap, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("codec: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Encode writes pm to w in the given format.
func Encode(w io.Writer, pm *pixmap.Pixmap, format Format, opts Options) error {
	img := pm.ToImage()
	var err error
	switch format {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		q := opts.Quality
		if q == 0 {
			q = DefaultJPEGQuality
		}
		q = min(max(q, 1), 100)
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("codec: encode %s: %w", format, err)
	}
	return nil
}

// EncodePNG returns the PNG encoding of pm.
func EncodePNG(pm *pixmap.Pixmap) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, pm, PNG, Options{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes pm to path, picking the format from the extension.
func Save(path string, pm *pixmap.Pixmap, opts Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("codec: create file: %w", err)
	}

	if err := Encode(f, pm, format, opts); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
