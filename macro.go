package darkroom

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gogpu/darkroom/ops"
)

// MacroExt is the conventional file extension for macro files.
const MacroExt = ".ops"

// WriteMacro writes records to w in the macro encoding.
func WriteMacro(w io.Writer, records []ops.Op) error {
	return ops.Encode(w, records)
}

// ReadMacro reads a macro from r. Malformed input is reported as
// *ops.FormatError.
func ReadMacro(r io.Reader) ([]ops.Op, error) {
	return ops.Decode(r)
}

// SaveMacro writes records to path. The file is replaced atomically, so a
// failed save never leaves a truncated macro behind.
func SaveMacro(path string, records []ops.Op) error {
	data, err := ops.Marshal(records)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	Logger().Info("darkroom: macro saved", "path", path, "records", len(records))
	return nil
}

// LoadMacro reads the macro file at path.
func LoadMacro(path string) ([]ops.Op, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("darkroom: read macro: %w", err)
	}
	records, err := ops.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("darkroom: macro %s: %w", path, err)
	}
	return records, nil
}

// OpenMacro loads the macro file at path and replays it onto h. A file that
// does not decode aborts before any record is applied. A record that fails
// against h's image stops the replay with a *PartialReplayError.
func (h *History) OpenMacro(path string) error {
	if h.original == nil {
		return ErrNoImage
	}
	records, err := LoadMacro(path)
	if err != nil {
		return err
	}
	h.log().Info("darkroom: replaying macro", "path", path, "records", len(records))
	return h.Replay(records)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("darkroom: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("darkroom: create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("darkroom: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("darkroom: write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("darkroom: rename temp file: %w", err)
	}
	return nil
}
