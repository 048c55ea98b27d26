package darkroom

import (
	"errors"
	"fmt"
)

// History and recording errors.
var (
	// ErrEmptyHistory is matched by both ErrNothingToUndo and ErrNothingToRedo.
	ErrEmptyHistory = errors.New("darkroom: empty history")

	// ErrNothingToUndo is returned by Undo when no record has been applied.
	ErrNothingToUndo = fmt.Errorf("%w: nothing to undo", ErrEmptyHistory)

	// ErrNothingToRedo is returned by Redo when the redo list is empty.
	ErrNothingToRedo = fmt.Errorf("%w: nothing to redo", ErrEmptyHistory)

	// ErrNoImage is returned when an operation needs a loaded image.
	ErrNoImage = errors.New("darkroom: no image loaded")

	// ErrAlreadyRecording is returned by StartRecording while a recorder is
	// active on the same History.
	ErrAlreadyRecording = errors.New("darkroom: already recording")

	// ErrBadSession is wrapped by errors for malformed session files.
	ErrBadSession = errors.New("darkroom: malformed session")

	// ErrSessionMismatch is returned when a session's replayed image does
	// not match the digest stored at save time.
	ErrSessionMismatch = errors.New("darkroom: session image does not match saved digest")
)

// DecodeError reports source bytes that could not be read as a raster image.
type DecodeError struct {
	// Source is the file path, or empty for in-memory data.
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return "darkroom: decode image: " + e.Err.Error()
	}
	return fmt.Sprintf("darkroom: decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PartialReplayError reports a replay that stopped at a failing record.
// The first Applied records were committed to the History and remain there.
type PartialReplayError struct {
	Applied int
	Total   int
	Err     error
}

func (e *PartialReplayError) Error() string {
	return fmt.Sprintf("darkroom: replay stopped after %d of %d records: %v", e.Applied, e.Total, e.Err)
}

func (e *PartialReplayError) Unwrap() error {
	return e.Err
}
