package ops

import (
	"errors"
	"fmt"

	"github.com/gogpu/darkroom/internal/transform"
)

// Common errors for operation records.
var (
	// ErrUnknownOp is returned for a value that is not one of this package's
	// record types (for example a pointer to a record).
	ErrUnknownOp = errors.New("ops: unknown operation")

	// ErrNilPixmap is returned when Apply is given no pixmap.
	ErrNilPixmap = errors.New("ops: nil pixmap")

	// ErrOutOfBounds is returned when a crop rectangle is not inside the image.
	ErrOutOfBounds = transform.ErrOutOfBounds

	// ErrEmptyResult is returned when an operation would produce no pixels.
	ErrEmptyResult = transform.ErrEmptyResult

	// ErrTooLarge is returned when an operation would produce more than
	// MaxPixels pixels.
	ErrTooLarge = transform.ErrTooLarge
)

// InvalidParameterError reports a record constructed with an out-of-range
// parameter. Such records are rejected before they reach an edit history.
type InvalidParameterError struct {
	Kind   Kind
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("ops: invalid %s %s %v: %s", e.Kind, e.Param, e.Value, e.Reason)
}

func rangeReason(lo, hi int) string {
	return fmt.Sprintf("must be in [%d, %d]", lo, hi)
}

// FormatError reports macro bytes that do not parse as tagged records.
type FormatError struct {
	// Offset is the byte offset where decoding failed.
	Offset int
	// Record is the zero-based index of the record being decoded, or -1
	// when the failure is in the header or trailer.
	Record int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	where := "header"
	if e.Record >= 0 {
		where = fmt.Sprintf("record %d", e.Record)
	}
	msg := fmt.Sprintf("ops: malformed macro at byte %d (%s): %s", e.Offset, where, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
