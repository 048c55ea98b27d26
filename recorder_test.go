package darkroom

import (
	"errors"
	"testing"

	"github.com/gogpu/darkroom/ops"
)

func sameRecords(a, b []ops.Op) bool {
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

func TestStartRecordingPreconditions(t *testing.T) {
	if _, err := NewHistory().StartRecording(); !errors.Is(err, ErrNoImage) {
		t.Errorf("StartRecording() without image = %v, want ErrNoImage", err)
	}

	h := openHistory(t, pattern(4, 4))
	r, err := h.StartRecording()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.StartRecording(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording() = %v, want ErrAlreadyRecording", err)
	}
	r.Stop()
	if _, err := h.StartRecording(); err != nil {
		t.Errorf("StartRecording() after Stop() = %v", err)
	}
}

func TestRecorderCapturesOnlyWhileActive(t *testing.T) {
	h := openHistory(t, pattern(6, 6))
	applyAll(t, h, []ops.Op{ops.FlipVertical{}})

	r, _ := h.StartRecording()
	applyAll(t, h, []ops.Op{ops.Invert{}, ops.Greyscale{}})
	got := r.Stop()
	applyAll(t, h, []ops.Op{ops.Sharpen{}})

	want := []ops.Op{ops.Invert{}, ops.Greyscale{}}
	if !sameRecords(got, want) {
		t.Errorf("Stop() = %v, want %v", got, want)
	}
	if !sameRecords(r.Records(), want) {
		t.Error("records changed after Stop()")
	}
	if r.Active() || h.Recording() {
		t.Error("recorder still active after Stop()")
	}
}

func TestRecorderFollowsUndoRedo(t *testing.T) {
	h := openHistory(t, pattern(6, 6))
	applyAll(t, h, []ops.Op{ops.FlipVertical{}})

	r, _ := h.StartRecording()
	applyAll(t, h, []ops.Op{ops.Invert{}, ops.Greyscale{}})

	_ = h.Undo() // greyscale leaves the capture
	if want := []ops.Op{ops.Invert{}}; !sameRecords(r.Records(), want) {
		t.Errorf("after undo: %v, want %v", r.Records(), want)
	}

	_ = h.Redo() // and comes back
	if want := []ops.Op{ops.Invert{}, ops.Greyscale{}}; !sameRecords(r.Records(), want) {
		t.Errorf("after redo: %v, want %v", r.Records(), want)
	}

	// Undoing past the start of the recording leaves the capture empty,
	// never reaching the record applied before it.
	_ = h.Undo()
	_ = h.Undo()
	_ = h.Undo()
	if got := r.Records(); len(got) != 0 {
		t.Errorf("after undoing everything: %v, want empty", got)
	}

	// Redo re-appends, including the record from before the recording.
	_ = h.Redo()
	if want := []ops.Op{ops.FlipVertical{}}; !sameRecords(r.Records(), want) {
		t.Errorf("after redo of the earlier record: %v, want %v", r.Records(), want)
	}
}

func TestRecorderMatchesAppliedTail(t *testing.T) {
	h := openHistory(t, pattern(8, 8))
	r, _ := h.StartRecording()

	applyAll(t, h, []ops.Op{ops.Invert{}, ops.MeanFilter{Radius: 1}, ops.RotateLeft{}})
	_ = h.Undo()
	_ = h.Undo()
	applyAll(t, h, []ops.Op{ops.Sobel{Axis: ops.Horizontal}})

	if got, want := r.Stop(), h.Applied(); !sameRecords(got, want) {
		t.Errorf("captured %v, want applied list %v", got, want)
	}
}

func TestMacroScenario(t *testing.T) {
	src := pattern(9, 7)
	live := openHistory(t, src)

	r, err := live.StartRecording()
	if err != nil {
		t.Fatal(err)
	}
	applyAll(t, live, []ops.Op{ops.Invert{}, ops.Greyscale{}})
	records := r.Stop()

	data, err := ops.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := ops.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	fresh := openHistory(t, src)
	if err := fresh.Replay(decoded); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if !fresh.Current().Equal(live.Current()) {
		t.Error("replayed macro differs from the live session")
	}
}
