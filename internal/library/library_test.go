package library

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/gogpu/darkroom/ops"
)

func testLibrary(t *testing.T, path string) *Library {
	t.Helper()
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", path, err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func sample() []ops.Op {
	return []ops.Op{
		ops.GaussianFilter{Radius: 2},
		ops.ChannelCycle{Perm: [3]ops.Channel{ops.Green, ops.Blue, ops.Red}},
		ops.DrawOval{Color: color.NRGBA{R: 255, A: 255}, Fill: ops.Solid, P1: image.Pt(1, 1), P2: image.Pt(5, 4)},
	}
}

func equal(a, b []ops.Op) bool {
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

func TestStoreFetch(t *testing.T) {
	l := testLibrary(t, ":memory:")
	ctx := context.Background()

	e, err := l.Store(ctx, "soften", sample())
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if e.Name != "soften" || e.Count != 3 || e.ID == "" {
		t.Errorf("Store() entry = %+v", e)
	}

	got, err := l.Fetch(ctx, "soften")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !equal(got, sample()) {
		t.Errorf("Fetch() = %v, want %v", got, sample())
	}
}

func TestStoreReplaces(t *testing.T) {
	l := testLibrary(t, ":memory:")
	ctx := context.Background()

	first, err := l.Store(ctx, "m", sample())
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Store(ctx, "m", []ops.Op{ops.Invert{}})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed on replace: %s -> %s", first.ID, second.ID)
	}
	if second.Count != 1 {
		t.Errorf("Count = %d, want 1", second.Count)
	}
	got, _ := l.Fetch(ctx, "m")
	if !equal(got, []ops.Op{ops.Invert{}}) {
		t.Errorf("Fetch() after replace = %v", got)
	}
}

func TestListDelete(t *testing.T) {
	l := testLibrary(t, filepath.Join(t.TempDir(), "sub", "lib.db"))
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := l.Store(ctx, name, sample()); err != nil {
			t.Fatal(err)
		}
	}
	list, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("List() names = %v", names)
	}

	if err := l.Delete(ctx, "mid"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := l.Delete(ctx, "mid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
	if _, err := l.Fetch(ctx, "mid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(deleted) = %v, want ErrNotFound", err)
	}
}

func TestStoreRejects(t *testing.T) {
	l := testLibrary(t, ":memory:")
	ctx := context.Background()

	if _, err := l.Store(ctx, "", sample()); err == nil {
		t.Error("Store() accepted an empty name")
	}
	var ip *ops.InvalidParameterError
	if _, err := l.Store(ctx, "bad", []ops.Op{ops.MeanFilter{Radius: 0}}); !errors.As(err, &ip) {
		t.Errorf("Store(invalid) = %v, want *ops.InvalidParameterError", err)
	}
}

func TestLibraryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Store(ctx, "keep", sample()); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2 := testLibrary(t, path)
	got, err := l2.Fetch(ctx, "keep")
	if err != nil || !equal(got, sample()) {
		t.Errorf("Fetch() after reopen = %v, %v", got, err)
	}
}
