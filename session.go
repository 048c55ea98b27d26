package darkroom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/darkroom/internal/codec"
	"github.com/gogpu/darkroom/ops"
	"github.com/gogpu/darkroom/pixmap"
)

// Session encoding.
//
//	magic   "DRSS"
//	version u8 (1)
//	id      [16]byte
//	flags   u8 (bit 0: image is zstd-compressed)
//	source  uvarint length + bytes
//	image   uvarint length + PNG of the original image
//	applied uvarint length + macro encoding
//	redo    uvarint length + macro encoding
//	digest  u32 big-endian, CRC-32 of the current image at save time
const (
	SessionExt = ".drs"

	sessionMagic   = "DRSS"
	sessionVersion = 1

	flagZstd = 1 << 0
)

// SessionInfo describes a session file.
type SessionInfo struct {
	ID         uuid.UUID
	Source     string
	Compressed bool
	Applied    int
	Redo       int
	Digest     uint32
}

// SessionOption configures session writing.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	compress bool
}

// WithCompression compresses the embedded image with zstd.
func WithCompression(on bool) SessionOption {
	return func(o *sessionOptions) {
		o.compress = on
	}
}

// WriteSession writes the full state of h (original image, applied and
// redo records) to w.
func WriteSession(w io.Writer, h *History, opts ...SessionOption) error {
	if h.original == nil {
		return ErrNoImage
	}
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	img, err := codec.EncodePNG(h.original)
	if err != nil {
		return fmt.Errorf("darkroom: encode session image: %w", err)
	}
	var flags uint8
	if o.compress {
		if img, err = compressZstd(img); err != nil {
			return fmt.Errorf("darkroom: compress session image: %w", err)
		}
		flags |= flagZstd
	}
	applied, err := ops.Marshal(h.applied)
	if err != nil {
		return err
	}
	redo, err := ops.Marshal(h.redo)
	if err != nil {
		return err
	}

	b := make([]byte, 0, 64+len(h.source)+len(img)+len(applied)+len(redo))
	b = append(b, sessionMagic...)
	b = append(b, sessionVersion)
	b = append(b, h.id[:]...)
	b = append(b, flags)
	b = appendBlock(b, []byte(h.source))
	b = appendBlock(b, img)
	b = appendBlock(b, applied)
	b = appendBlock(b, redo)
	b = binary.BigEndian.AppendUint32(b, pixelDigest(h.current))

	_, err = w.Write(b)
	return err
}

// ReadSession reconstructs a History from a session written by
// WriteSession. The applied records are replayed against the embedded
// original, and the result is checked against the saved digest.
func ReadSession(r io.Reader, opts ...Option) (*History, *SessionInfo, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, nil, fmt.Errorf("darkroom: read session: %w", err)
	}
	data := buf.Bytes()

	if len(data) < len(sessionMagic)+1+16+1+4 || string(data[:len(sessionMagic)]) != sessionMagic {
		return nil, nil, fmt.Errorf("%w: bad header", ErrBadSession)
	}
	if v := data[len(sessionMagic)]; v != sessionVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrBadSession, v)
	}
	off := len(sessionMagic) + 1

	info := &SessionInfo{}
	copy(info.ID[:], data[off:off+16])
	off += 16
	flags := data[off]
	off++
	info.Compressed = flags&flagZstd != 0

	var blocks [4][]byte
	for i, name := range []string{"source", "image", "applied", "redo"} {
		block, n, err := readBlock(data[off:])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrBadSession, name, err)
		}
		blocks[i] = block
		off += n
	}
	if len(data)-off != 4 {
		return nil, nil, fmt.Errorf("%w: bad trailer", ErrBadSession)
	}
	info.Source = string(blocks[0])
	info.Digest = binary.BigEndian.Uint32(data[off:])

	img := blocks[1]
	if info.Compressed {
		var err error
		if img, err = decompressZstd(img); err != nil {
			return nil, nil, fmt.Errorf("%w: image: %w", ErrBadSession, err)
		}
	}
	original, _, err := codec.DecodeBytes(img)
	if err != nil {
		return nil, nil, &DecodeError{Source: info.Source, Err: err}
	}
	applied, err := ops.Unmarshal(blocks[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: applied records: %w", ErrBadSession, err)
	}
	redo, err := ops.Unmarshal(blocks[3])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: redo records: %w", ErrBadSession, err)
	}
	info.Applied = len(applied)
	info.Redo = len(redo)

	h := NewHistory(opts...)
	h.reset(original, info.Source, info.ID)
	if err := h.Replay(applied); err != nil {
		return nil, nil, err
	}
	if got := pixelDigest(h.current); got != info.Digest {
		return nil, nil, fmt.Errorf("%w: stored %08x, replayed %08x", ErrSessionMismatch, info.Digest, got)
	}
	h.redo = redo

	h.log().Info("darkroom: session opened",
		"id", info.ID, "source", info.Source, "applied", info.Applied, "redo", info.Redo)
	return h, info, nil
}

// SaveSession writes h to path atomically.
func SaveSession(path string, h *History, opts ...SessionOption) error {
	var buf bytes.Buffer
	if err := WriteSession(&buf, h, opts...); err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	h.log().Info("darkroom: session saved", "path", path, "id", h.id, "applied", len(h.applied))
	return nil
}

// OpenSession reads the session file at path.
func OpenSession(path string, opts ...Option) (*History, *SessionInfo, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("darkroom: open session: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadSession(f, opts...)
}

func appendBlock(b, block []byte) []byte {
	b = binary.AppendUvarint(b, uint64(len(block)))
	return append(b, block...)
}

func readBlock(b []byte) ([]byte, int, error) {
	size, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, 0, errors.New("bad length")
	}
	if size > uint64(len(b)-n) {
		return nil, 0, fmt.Errorf("length %d exceeds data", size)
	}
	end := n + int(size)
	return b[n:end], end, nil
}

// pixelDigest hashes the dimensions and pixel data of pm.
func pixelDigest(pm *pixmap.Pixmap) uint32 {
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:], uint32(pm.Width()))
	binary.BigEndian.PutUint32(dims[4:], uint32(pm.Height()))
	crc := crc32.ChecksumIEEE(dims[:])
	return crc32.Update(crc, crc32.IEEETable, pm.Data())
}

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	},
}

func compressZstd(data []byte) ([]byte, error) {
	enc, ok := zstdEncPool.Get().(*zstd.Encoder)
	if !ok || enc == nil {
		return nil, errors.New("zstd encoder unavailable")
	}
	defer zstdEncPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, ok := zstdDecPool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		return nil, errors.New("zstd decoder unavailable")
	}
	defer zstdDecPool.Put(dec)
	return dec.DecodeAll(data, nil)
}
