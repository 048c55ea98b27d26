package darkroom

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gogpu/darkroom/internal/codec"
	"github.com/gogpu/darkroom/ops"
	"github.com/gogpu/darkroom/pixmap"
)

// History is the edit history of one open image.
//
// It owns the original pixmap, the ordered list of applied records and the
// redo list. The current image is always the result of replaying the
// applied records, in order, against the original. Intermediate images are
// cached every few records (see WithCheckpointInterval) so undo does not
// replay from the start, but the result is identical to a full replay.
//
// A History is not safe for concurrent use. Accessors return copies, so a
// caller never holds an alias into the history's state.
type History struct {
	id       uuid.UUID
	source   string
	original *pixmap.Pixmap
	current  *pixmap.Pixmap

	applied []ops.Op
	redo    []ops.Op // redo[0] is the next record to redo

	// checkpoints[k] is the replay of the first k records of applied++redo.
	checkpoints map[int]*pixmap.Pixmap
	interval    int

	recorder *Recorder
	metrics  *Metrics
	logger   *slog.Logger
}

// NewHistory creates an empty History. Open an image before applying
// operations.
func NewHistory(opts ...Option) *History {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &History{
		interval:    o.checkpointInterval,
		checkpoints: make(map[int]*pixmap.Pixmap),
		metrics:     o.metrics,
		logger:      o.logger,
	}
}

func (h *History) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return Logger()
}

// Open starts a new history on a copy of pm. Applied and redo records are
// discarded. An active recorder stays active but can no longer undo records
// captured before the new image was opened.
func (h *History) Open(pm *pixmap.Pixmap) error {
	if pm == nil {
		return ErrNoImage
	}
	h.reset(pm.Clone(), "", uuid.New())
	h.log().Info("darkroom: image opened",
		"id", h.id, "width", pm.Width(), "height", pm.Height())
	return nil
}

// OpenBytes decodes an encoded image and opens it. Decoding failures are
// reported as *DecodeError.
func (h *History) OpenBytes(data []byte) error {
	pm, format, err := codec.DecodeBytes(data)
	if err != nil {
		return &DecodeError{Err: err}
	}
	h.reset(pm, "", uuid.New())
	h.log().Info("darkroom: image opened",
		"id", h.id, "format", format, "width", pm.Width(), "height", pm.Height())
	return nil
}

// OpenFile decodes the image file at path and opens it. The path is kept as
// the history's source and written into saved sessions.
func (h *History) OpenFile(path string) error {
	pm, format, err := codec.Load(path)
	if err != nil {
		return &DecodeError{Source: path, Err: err}
	}
	h.reset(pm, path, uuid.New())
	h.log().Info("darkroom: image opened",
		"id", h.id, "source", path, "format", format, "width", pm.Width(), "height", pm.Height())
	return nil
}

// reset installs original as a fresh history. original must not be shared.
func (h *History) reset(original *pixmap.Pixmap, source string, id uuid.UUID) {
	h.id = id
	h.source = source
	h.original = original
	h.current = original
	h.applied = nil
	h.redo = nil
	h.checkpoints = make(map[int]*pixmap.Pixmap)
	if h.recorder != nil {
		h.recorder.tail = 0
	}
}

// Apply appends op to the history, discards the redo list and recomputes
// the current image. If op is invalid or cannot be applied to the current
// image the error is returned and the history is unchanged.
//
// While a Recorder is active, op is also captured by it.
func (h *History) Apply(op ops.Op) error {
	if h.original == nil {
		return ErrNoImage
	}
	if err := ops.Validate(op); err != nil {
		h.metrics.observeReject(op)
		h.log().Warn("darkroom: operation rejected", "err", err)
		return err
	}

	n := len(h.applied)
	target := make([]ops.Op, n+1)
	copy(target, h.applied)
	target[n] = op

	img, fresh, err := h.replay(target, n)
	if err != nil {
		h.metrics.observeReject(op)
		h.log().Warn("darkroom: operation failed", "op", ops.Format(op), "err", err)
		return err
	}

	// The redo branch is gone; so are checkpoints built from it.
	for k := range h.checkpoints {
		if k > n {
			delete(h.checkpoints, k)
		}
	}
	h.commit(target, nil, img, fresh)

	if h.recorder != nil {
		h.recorder.capture(op)
	}
	h.metrics.observeApply(op)
	h.log().Debug("darkroom: applied", "op", ops.Format(op), "applied", len(h.applied))
	return nil
}

// Undo moves the last applied record to the front of the redo list and
// recomputes the current image. It returns ErrNothingToUndo when no record
// has been applied.
func (h *History) Undo() error {
	n := len(h.applied)
	if n == 0 {
		return ErrNothingToUndo
	}

	seq := h.sequence()
	img, fresh, err := h.replay(seq[:n-1], len(seq))
	if err != nil {
		return fmt.Errorf("darkroom: undo: %w", err)
	}

	last := h.applied[n-1]
	redo := make([]ops.Op, 0, len(h.redo)+1)
	redo = append(redo, last)
	redo = append(redo, h.redo...)
	h.commit(h.applied[:n-1:n-1], redo, img, fresh)

	if h.recorder != nil {
		h.recorder.uncapture()
	}
	h.metrics.observeUndo()
	h.log().Debug("darkroom: undo", "op", ops.Format(last), "applied", len(h.applied), "redo", len(h.redo))
	return nil
}

// Redo moves the first redo record back onto the applied list and
// recomputes the current image. It returns ErrNothingToRedo when the redo
// list is empty.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}

	seq := h.sequence()
	n := len(h.applied) + 1
	img, fresh, err := h.replay(seq[:n], len(seq))
	if err != nil {
		return fmt.Errorf("darkroom: redo: %w", err)
	}

	next := h.redo[0]
	h.commit(seq[:n:n], h.redo[1:], img, fresh)

	if h.recorder != nil {
		h.recorder.capture(next)
	}
	h.metrics.observeRedo()
	h.log().Debug("darkroom: redo", "op", ops.Format(next), "applied", len(h.applied), "redo", len(h.redo))
	return nil
}

// Replay applies records in order through Apply. Every record is validated
// first; an invalid record aborts the replay before anything is applied.
// If a record fails against the image (for example a crop outside a
// smaller image) replay stops, the records already applied stay applied,
// and a *PartialReplayError reports how far it got.
func (h *History) Replay(records []ops.Op) error {
	if h.original == nil {
		return ErrNoImage
	}
	for i, op := range records {
		if err := ops.Validate(op); err != nil {
			return fmt.Errorf("darkroom: replay record %d: %w", i, err)
		}
	}
	for i, op := range records {
		if err := h.Apply(op); err != nil {
			h.log().Warn("darkroom: partial replay", "applied", i, "total", len(records), "err", err)
			return &PartialReplayError{Applied: i, Total: len(records), Err: err}
		}
	}
	return nil
}

// sequence returns applied followed by redo in a new slice.
func (h *History) sequence() []ops.Op {
	seq := make([]ops.Op, 0, len(h.applied)+len(h.redo))
	seq = append(seq, h.applied...)
	return append(seq, h.redo...)
}

// replay computes the image after records. Cached images are usable as a
// starting point only for prefixes of length <= valid, the length for which
// records agrees with the sequence the checkpoints were built from. It
// returns new checkpoints without installing them.
func (h *History) replay(records []ops.Op, valid int) (*pixmap.Pixmap, map[int]*pixmap.Pixmap, error) {
	done := h.metrics.startRecompute()
	defer done()

	limit := min(valid, len(records))
	start, base := 0, h.original
	if h.interval > 0 {
		for k, img := range h.checkpoints {
			if k <= limit && k > start {
				start, base = k, img
			}
		}
		if n := len(h.applied); n <= limit && n > start {
			start, base = n, h.current
		}
	}
	if start > 0 {
		h.log().Debug("darkroom: replay from checkpoint", "prefix", start, "target", len(records))
	}

	var fresh map[int]*pixmap.Pixmap
	cur := base
	for i := start; i < len(records); i++ {
		next, err := ops.Apply(cur, records[i])
		if err != nil {
			return nil, nil, err
		}
		cur = next

		k := i + 1
		if h.interval > 0 && k%h.interval == 0 && (k > valid || h.checkpoints[k] == nil) {
			if fresh == nil {
				fresh = make(map[int]*pixmap.Pixmap)
			}
			fresh[k] = cur
		}
	}
	h.metrics.observeReplay(len(records)-start, start > 0)
	return cur, fresh, nil
}

func (h *History) commit(applied, redo []ops.Op, current *pixmap.Pixmap, fresh map[int]*pixmap.Pixmap) {
	h.applied = applied
	h.redo = redo
	h.current = current
	for k, img := range fresh {
		h.checkpoints[k] = img
	}
}

// HasImage reports whether an image has been opened.
func (h *History) HasImage() bool {
	return h.original != nil
}

// ID returns the identifier assigned when the image was opened. Sessions
// keep it across save and open.
func (h *History) ID() uuid.UUID {
	return h.id
}

// Source returns the file the image was opened from, if any.
func (h *History) Source() string {
	return h.source
}

// Current returns a copy of the current image, or nil before Open.
func (h *History) Current() *pixmap.Pixmap {
	if h.current == nil {
		return nil
	}
	return h.current.Clone()
}

// Original returns a copy of the opened image, or nil before Open.
func (h *History) Original() *pixmap.Pixmap {
	if h.original == nil {
		return nil
	}
	return h.original.Clone()
}

// Applied returns a copy of the applied records, oldest first.
func (h *History) Applied() []ops.Op {
	return append([]ops.Op(nil), h.applied...)
}

// Redoable returns a copy of the redo list, next record first.
func (h *History) Redoable() []ops.Op {
	return append([]ops.Op(nil), h.redo...)
}

// Len returns the number of applied records.
func (h *History) Len() int { return len(h.applied) }

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.applied) > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
