package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/internal/codec"
	"github.com/gogpu/darkroom/pixmap"
)

// workspace writes a config and a test image into a temp dir and returns a
// function running the CLI there.
func workspace(t *testing.T) (dir string, runCLI func(args ...string) (string, error)) {
	t.Helper()
	dir = t.TempDir()
	cfg := "library_path: " + filepath.Join(dir, "lib.db") + "\n" +
		"macro_dir: " + filepath.Join(dir, "macros") + "\n" +
		"checkpoint_interval: 2\n"
	cfgPath := filepath.Join(dir, "darkroom.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	pm := pixmap.MustNew(12, 8)
	for y := range 8 {
		for x := range 12 {
			pm.Set8(x, y, uint8(x*20), uint8(y*30), 90, 255)
		}
	}
	if err := codec.Save(filepath.Join(dir, "in.png"), pm, codec.Options{}); err != nil {
		t.Fatal(err)
	}

	runCLI = func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		err := run(append([]string{"-config", cfgPath}, args...), &stdout, &stderr)
		return stdout.String(), err
	}
	return dir, runCLI
}

func TestApply(t *testing.T) {
	dir, cli := workspace(t)
	out := filepath.Join(dir, "out.png")

	stdout, err := cli("apply", "-in", filepath.Join(dir, "in.png"), "-out", out,
		"-op", "rotate-left", "-op", "gaussian:radius=2", "-op", "invert")
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if !strings.Contains(stdout, "applied 3 operations") {
		t.Errorf("stdout = %q", stdout)
	}
	pm, _, err := codec.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if pm.Width() != 8 || pm.Height() != 12 {
		t.Errorf("output size = %dx%d, want 8x12", pm.Width(), pm.Height())
	}
}

func TestApplyErrors(t *testing.T) {
	dir, cli := workspace(t)
	in := filepath.Join(dir, "in.png")

	if _, err := cli("apply", "-in", in); !errors.Is(err, errUsage) {
		t.Errorf("missing -out: %v, want errUsage", err)
	}
	if _, err := cli("apply", "-in", in, "-out", "x.png", "-op", "bogus"); !errors.Is(err, errUsage) {
		t.Errorf("bad spec: %v, want errUsage", err)
	}
	if _, err := cli("nope"); !errors.Is(err, errUsage) {
		t.Errorf("unknown command: %v, want errUsage", err)
	}
	_, err := cli("apply", "-in", filepath.Join(dir, "missing.png"), "-out", "x.png")
	var de *darkroom.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("missing input: %v, want *DecodeError", err)
	}
}

func TestMacroCommands(t *testing.T) {
	dir, cli := workspace(t)
	in := filepath.Join(dir, "in.png")

	if _, err := cli("macro", "create", "-out", "tone", "-op", "invert", "-op", "greyscale"); err != nil {
		t.Fatalf("macro create error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "macros", "tone"+darkroom.MacroExt)); err != nil {
		t.Fatalf("macro not written to the macro dir: %v", err)
	}

	stdout, err := cli("macro", "show", "tone.ops")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "invert\ngreyscale\n" {
		t.Errorf("macro show = %q", stdout)
	}

	out := filepath.Join(dir, "run.png")
	if _, err := cli("macro", "run", "-in", in, "-macro", "tone.ops", "-out", out); err != nil {
		t.Fatalf("macro run error = %v", err)
	}
	direct := filepath.Join(dir, "direct.png")
	if _, err := cli("apply", "-in", in, "-out", direct, "-op", "invert", "-op", "greyscale"); err != nil {
		t.Fatal(err)
	}
	a, _, _ := codec.Load(out)
	b, _, _ := codec.Load(direct)
	if a == nil || !a.Equal(b) {
		t.Error("macro run differs from applying the same ops directly")
	}
}

func TestMacroRunPartial(t *testing.T) {
	dir, cli := workspace(t)
	if _, err := cli("macro", "create", "-out", "big", "-op", "invert", "-op", "crop:x1=0,y1=0,x2=100,y2=100"); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "partial.png")
	_, err := cli("macro", "run", "-in", filepath.Join(dir, "in.png"), "-macro", "big", "-out", out)
	var pe *darkroom.PartialReplayError
	if !errors.As(err, &pe) || pe.Applied != 1 {
		t.Fatalf("macro run = %v, want partial replay after 1 record", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Error("partial result was not written")
	}
}

func TestMacroLibrary(t *testing.T) {
	_, cli := workspace(t)
	if _, err := cli("macro", "create", "-out", "soft", "-op", "mean:radius=2"); err != nil {
		t.Fatal(err)
	}
	if _, err := cli("macro", "store", "-name", "soften", "soft"); err != nil {
		t.Fatalf("macro store error = %v", err)
	}
	stdout, err := cli("macro", "list")
	if err != nil || !strings.HasPrefix(stdout, "soften") {
		t.Errorf("macro list = %q, %v", stdout, err)
	}
	if _, err := cli("macro", "fetch", "-name", "soften", "-out", "copy"); err != nil {
		t.Fatalf("macro fetch error = %v", err)
	}
	stdout, _ = cli("macro", "show", "copy")
	if stdout != "mean:radius=2\n" {
		t.Errorf("fetched macro = %q", stdout)
	}
	if _, err := cli("macro", "delete", "-name", "soften"); err != nil {
		t.Fatal(err)
	}
	if _, err := cli("macro", "fetch", "-name", "soften", "-out", "gone"); err == nil {
		t.Error("fetch after delete succeeded")
	}
}

func TestSessionCommands(t *testing.T) {
	dir, cli := workspace(t)
	in := filepath.Join(dir, "in.png")
	sess := filepath.Join(dir, "edit"+darkroom.SessionExt)

	_, err := cli("session", "save", "-in", in, "-out", sess, "-undo", "1",
		"-op", "flip-horizontal", "-op", "sharpen", "-op", "block-average:size=3")
	if err != nil {
		t.Fatalf("session save error = %v", err)
	}

	stdout, err := cli("session", "info", sess)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"applied  2", "redo     1", "block-average", in} {
		if !strings.Contains(stdout, want) {
			t.Errorf("session info missing %q:\n%s", want, stdout)
		}
	}

	out := filepath.Join(dir, "render.png")
	if _, err := cli("session", "render", "-in", sess, "-out", out); err != nil {
		t.Fatal(err)
	}
	direct := filepath.Join(dir, "direct.png")
	if _, err := cli("apply", "-in", in, "-out", direct, "-op", "flip-horizontal", "-op", "sharpen"); err != nil {
		t.Fatal(err)
	}
	a, _, _ := codec.Load(out)
	b, _, _ := codec.Load(direct)
	if a == nil || !a.Equal(b) {
		t.Error("rendered session differs from the applied ops")
	}
}

func TestExport(t *testing.T) {
	dir, cli := workspace(t)
	in := filepath.Join(dir, "in.png")
	sess := filepath.Join(dir, "s"+darkroom.SessionExt)
	if _, err := cli("session", "save", "-in", in, "-out", sess, "-op", "draw-rect:color=red,fill=solid,x1=1,y1=1,x2=4,y2=4"); err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{in, sess} {
		out := filepath.Join(dir, filepath.Base(src)+".pdf")
		if _, err := cli("export", "-in", src, "-out", out, "-title", "test"); err != nil {
			t.Fatalf("export %s error = %v", src, err)
		}
		data, err := os.ReadFile(out)
		if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("export %s wrote %d bytes, err %v", src, len(data), err)
		}
	}
}

func TestOpsList(t *testing.T) {
	_, cli := workspace(t)
	stdout, err := cli("ops")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "random-scatter\n") || !strings.Contains(stdout, "draw-oval\n") {
		t.Errorf("ops = %q", stdout)
	}
}

func TestLocalizedNumbers(t *testing.T) {
	var buf bytes.Buffer
	e := &env{p: newPrinter("de"), stdout: &buf}
	e.printf("%d\n", 1234567)
	if got := buf.String(); got != "1.234.567\n" {
		t.Errorf("de printf = %q, want 1.234.567", got)
	}
	if p := newPrinter("not a language!"); p == nil {
		t.Error("newPrinter should fall back to English")
	}
}
