// Package darkroom is a non-destructive raster image editing core.
//
// # Overview
//
// A [History] holds an immutable original image and the ordered list of
// operation records applied to it. The current image is always derived by
// replaying those records against the original, so any prefix can be undone
// and redone, including operations that cannot be inverted analytically
// (blurs, scattering, block averaging).
//
// # Quick Start
//
//	h := darkroom.NewHistory()
//	if err := h.OpenFile("photo.png"); err != nil {
//	    return err
//	}
//
//	blur, _ := ops.NewGaussianFilter(2)
//	_ = h.Apply(blur)
//	_ = h.Apply(ops.Greyscale{})
//	_ = h.Undo() // back to the blurred image
//
//	out := h.Current() // a copy; safe to keep
//
// # Operation Records
//
// Records live in package [github.com/gogpu/darkroom/ops]. They are plain
// immutable values, validated before they enter a history, and encoded in a
// self-describing binary format shared by macros and sessions.
//
// # Macros
//
// A [Recorder] captures the records applied between StartRecording and
// Stop. Captured records can be saved with [SaveMacro] and replayed onto any
// other history with [History.Replay] or [History.OpenMacro]. Replay onto a
// different image may stop part way (a crop larger than the new image);
// the applied prefix is kept and a [PartialReplayError] says how far it got.
//
// # Sessions
//
// [SaveSession] stores the original image together with the applied and
// redo records. [OpenSession] rebuilds an identical History and checks the
// replayed image against a digest taken at save time.
//
// # Coordinate System
//
// Geometry in records (crop rectangles, line and shape corners) is in
// intrinsic image pixels:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// Converting from on-screen zoomed coordinates is the caller's job.
//
// # Concurrency
//
// A History is single-threaded: every call runs to completion before it
// returns, and a History must not be shared between goroutines without
// external locking. The package logger ([SetLogger]) is safe for concurrent use.
// Convolution filters spread rows over several goroutines internally; the
// result does not depend on scheduling.
package darkroom

// Version is the current version of the library.
const Version = "0.1.0"
