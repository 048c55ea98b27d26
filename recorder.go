package darkroom

import "github.com/gogpu/darkroom/ops"

// Recorder captures the records applied to a History between
// StartRecording and Stop. The capture follows the history: undoing a
// captured record removes it from the capture and redoing re-appends it.
type Recorder struct {
	h       *History
	records []ops.Op
	// tail is how many trailing captured records are still the tail of
	// h.applied and can therefore be undone out of the capture.
	tail   int
	active bool
}

// StartRecording begins capturing applied records. It fails with
// ErrNoImage before an image is opened and with ErrAlreadyRecording while
// another Recorder is active on h.
func (h *History) StartRecording() (*Recorder, error) {
	if h.original == nil {
		return nil, ErrNoImage
	}
	if h.recorder != nil {
		return nil, ErrAlreadyRecording
	}
	r := &Recorder{h: h, active: true}
	h.recorder = r
	h.log().Debug("darkroom: recording started", "applied", len(h.applied))
	return r, nil
}

// Recording reports whether a Recorder is active on h.
func (h *History) Recording() bool {
	return h.recorder != nil
}

// Stop ends the capture and returns the captured records, which may be
// empty. Calling Stop again returns the same records.
func (r *Recorder) Stop() []ops.Op {
	if r.active {
		r.active = false
		if r.h.recorder == r {
			r.h.recorder = nil
		}
		r.h.log().Debug("darkroom: recording stopped", "records", len(r.records))
	}
	return r.Records()
}

// Records returns a copy of the records captured so far.
func (r *Recorder) Records() []ops.Op {
	return append([]ops.Op(nil), r.records...)
}

// Active reports whether the recorder is still capturing.
func (r *Recorder) Active() bool {
	return r.active
}

func (r *Recorder) capture(op ops.Op) {
	r.records = append(r.records, op)
	r.tail++
}

func (r *Recorder) uncapture() {
	if r.tail == 0 {
		return
	}
	r.records = r.records[:len(r.records)-1]
	r.tail--
}
