package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/internal/codec"
	"github.com/gogpu/darkroom/internal/export"
	"github.com/gogpu/darkroom/internal/library"
	"github.com/gogpu/darkroom/ops"
	"github.com/gogpu/darkroom/pixmap"
)

// specList collects repeated -op flags, parsing each as it is given.
type specList []ops.Op

func (s *specList) String() string {
	names := make([]string, len(*s))
	for i, op := range *s {
		names[i] = ops.Format(op)
	}
	return strings.Join(names, " ")
}

func (s *specList) Set(v string) error {
	op, err := ops.ParseSpec(v)
	if err != nil {
		return err
	}
	*s = append(*s, op)
	return nil
}

func (e *env) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parse parses args and checks that every named string flag is set.
func parse(fs *flag.FlagSet, args []string, required map[string]*string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for name, v := range required {
		if *v == "" {
			fmt.Fprintf(fs.Output(), "%s: -%s is required\n", fs.Name(), name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func (e *env) newHistory() *darkroom.History {
	return darkroom.NewHistory(darkroom.WithCheckpointInterval(e.cfg.CheckpointInterval))
}

// macroPath places bare macro file names in the configured macro directory.
func (e *env) macroPath(name string) string {
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	if filepath.Ext(name) == "" {
		name += darkroom.MacroExt
	}
	return filepath.Join(e.cfg.MacroDir, name)
}

func (e *env) save(path string, pm *pixmap.Pixmap) error {
	if err := codec.Save(path, pm, codec.Options{Quality: e.cfg.JPEGQuality}); err != nil {
		return err
	}
	e.printf("wrote %s (%d x %d)\n", path, pm.Width(), pm.Height())
	return nil
}

func applyAll(h *darkroom.History, records []ops.Op) error {
	for i, op := range records {
		if err := h.Apply(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i+1, ops.Format(op), err)
		}
	}
	return nil
}

func (e *env) apply(args []string) error {
	fs := e.flagSet("apply")
	var (
		in, out string
		specs   specList
	)
	fs.StringVar(&in, "in", "", "input image")
	fs.StringVar(&out, "out", "", "output image")
	fs.Var(&specs, "op", "operation spec (repeatable)")
	if err := parse(fs, args, map[string]*string{"in": &in, "out": &out}); err != nil {
		return err
	}

	h := e.newHistory()
	if err := h.OpenFile(in); err != nil {
		return err
	}
	if err := applyAll(h, specs); err != nil {
		return err
	}
	e.printf("applied %d operations\n", h.Len())
	return e.save(out, h.Current())
}

func (e *env) listOps() error {
	for _, name := range ops.Names() {
		e.printf("%s\n", name)
	}
	return nil
}

func (e *env) macro(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "usage: darkroom macro create|show|run|store|fetch|list|delete [flags]")
		return errUsage
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "create":
		return e.macroCreate(rest)
	case "show":
		return e.macroShow(rest)
	case "run":
		return e.macroRun(rest)
	case "store":
		return e.macroStore(rest)
	case "fetch":
		return e.macroFetch(rest)
	case "list":
		return e.macroList()
	case "delete":
		return e.macroDelete(rest)
	default:
		fmt.Fprintf(e.stderr, "darkroom macro: unknown command %q\n", sub)
		return errUsage
	}
}

func (e *env) macroCreate(args []string) error {
	fs := e.flagSet("macro create")
	var (
		out   string
		specs specList
	)
	fs.StringVar(&out, "out", "", "macro file")
	fs.Var(&specs, "op", "operation spec (repeatable)")
	if err := parse(fs, args, map[string]*string{"out": &out}); err != nil {
		return err
	}
	path := e.macroPath(out)
	if err := darkroom.SaveMacro(path, specs); err != nil {
		return err
	}
	e.printf("wrote %s (%d records)\n", path, len(specs))
	return nil
}

func (e *env) macroShow(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "usage: darkroom macro show FILE")
		return errUsage
	}
	records, err := darkroom.LoadMacro(e.macroPath(args[0]))
	if err != nil {
		return err
	}
	for _, op := range records {
		e.printf("%s\n", ops.Format(op))
	}
	return nil
}

// macroRun writes the result even when replay stops part way, then reports
// the partial replay as the command's error.
func (e *env) macroRun(args []string) error {
	fs := e.flagSet("macro run")
	var in, out, macro string
	fs.StringVar(&in, "in", "", "input image")
	fs.StringVar(&out, "out", "", "output image")
	fs.StringVar(&macro, "macro", "", "macro file")
	if err := parse(fs, args, map[string]*string{"in": &in, "out": &out, "macro": &macro}); err != nil {
		return err
	}

	h := e.newHistory()
	if err := h.OpenFile(in); err != nil {
		return err
	}
	replayErr := h.OpenMacro(e.macroPath(macro))
	var partial *darkroom.PartialReplayError
	if replayErr != nil && !errors.As(replayErr, &partial) {
		return replayErr
	}
	e.printf("applied %d operations\n", h.Len())
	if err := e.save(out, h.Current()); err != nil {
		return err
	}
	return replayErr
}

func (e *env) withLibrary(fn func(context.Context, *library.Library) error) error {
	lib, err := library.Open(e.cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(context.Background(), lib)
}

func (e *env) macroStore(args []string) error {
	fs := e.flagSet("macro store")
	var name string
	fs.StringVar(&name, "name", "", "library name")
	if err := parse(fs, args, map[string]*string{"name": &name}); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: darkroom macro store -name NAME FILE")
		return errUsage
	}
	records, err := darkroom.LoadMacro(e.macroPath(fs.Arg(0)))
	if err != nil {
		return err
	}
	return e.withLibrary(func(ctx context.Context, lib *library.Library) error {
		entry, err := lib.Store(ctx, name, records)
		if err != nil {
			return err
		}
		e.printf("stored %s (%d records)\n", entry.Name, entry.Count)
		return nil
	})
}

func (e *env) macroFetch(args []string) error {
	fs := e.flagSet("macro fetch")
	var name, out string
	fs.StringVar(&name, "name", "", "library name")
	fs.StringVar(&out, "out", "", "macro file")
	if err := parse(fs, args, map[string]*string{"name": &name, "out": &out}); err != nil {
		return err
	}
	return e.withLibrary(func(ctx context.Context, lib *library.Library) error {
		records, err := lib.Fetch(ctx, name)
		if err != nil {
			return err
		}
		path := e.macroPath(out)
		if err := darkroom.SaveMacro(path, records); err != nil {
			return err
		}
		e.printf("wrote %s (%d records)\n", path, len(records))
		return nil
	})
}

func (e *env) macroList() error {
	return e.withLibrary(func(ctx context.Context, lib *library.Library) error {
		entries, err := lib.List(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			e.printf("%-20s %4d  %s\n", entry.Name, entry.Count, entry.Updated.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

func (e *env) macroDelete(args []string) error {
	fs := e.flagSet("macro delete")
	var name string
	fs.StringVar(&name, "name", "", "library name")
	if err := parse(fs, args, map[string]*string{"name": &name}); err != nil {
		return err
	}
	return e.withLibrary(func(ctx context.Context, lib *library.Library) error {
		return lib.Delete(ctx, name)
	})
}

func (e *env) session(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "usage: darkroom session save|info|render [flags]")
		return errUsage
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "save":
		return e.sessionSave(rest)
	case "info":
		return e.sessionInfo(rest)
	case "render":
		return e.sessionRender(rest)
	default:
		fmt.Fprintf(e.stderr, "darkroom session: unknown command %q\n", sub)
		return errUsage
	}
}

func (e *env) sessionSave(args []string) error {
	fs := e.flagSet("session save")
	var (
		in, out string
		undo    int
		specs   specList
	)
	fs.StringVar(&in, "in", "", "input image")
	fs.StringVar(&out, "out", "", "session file")
	fs.IntVar(&undo, "undo", 0, "undo this many operations before saving")
	fs.Var(&specs, "op", "operation spec (repeatable)")
	if err := parse(fs, args, map[string]*string{"in": &in, "out": &out}); err != nil {
		return err
	}

	h := e.newHistory()
	if err := h.OpenFile(in); err != nil {
		return err
	}
	if err := applyAll(h, specs); err != nil {
		return err
	}
	for range undo {
		if err := h.Undo(); err != nil {
			return err
		}
	}
	if err := darkroom.SaveSession(out, h, darkroom.WithCompression(e.cfg.CompressSessions)); err != nil {
		return err
	}
	e.printf("wrote %s (%d applied, %d redoable)\n", out, h.Len(), len(h.Redoable()))
	return nil
}

func (e *env) openSession(path string) (*darkroom.History, *darkroom.SessionInfo, error) {
	return darkroom.OpenSession(path, darkroom.WithCheckpointInterval(e.cfg.CheckpointInterval))
}

func (e *env) sessionInfo(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "usage: darkroom session info FILE")
		return errUsage
	}
	h, info, err := e.openSession(args[0])
	if err != nil {
		return err
	}
	cur := h.Current()
	e.printf("id       %s\n", info.ID)
	e.printf("source   %s\n", info.Source)
	e.printf("size     %d x %d\n", cur.Width(), cur.Height())
	e.printf("applied  %d\n", info.Applied)
	for _, op := range h.Applied() {
		e.printf("  %s\n", ops.Format(op))
	}
	e.printf("redo     %d\n", info.Redo)
	for _, op := range h.Redoable() {
		e.printf("  %s\n", ops.Format(op))
	}
	return nil
}

func (e *env) sessionRender(args []string) error {
	fs := e.flagSet("session render")
	var in, out string
	fs.StringVar(&in, "in", "", "session file")
	fs.StringVar(&out, "out", "", "output image")
	if err := parse(fs, args, map[string]*string{"in": &in, "out": &out}); err != nil {
		return err
	}
	h, _, err := e.openSession(in)
	if err != nil {
		return err
	}
	return e.save(out, h.Current())
}

// export accepts either an image or a session; a session's applied records
// are listed under the image.
func (e *env) export(args []string) error {
	fs := e.flagSet("export")
	var in, out, title string
	fs.StringVar(&in, "in", "", "input image or session")
	fs.StringVar(&out, "out", "", "output PDF")
	fs.StringVar(&title, "title", "", "page title")
	if err := parse(fs, args, map[string]*string{"in": &in, "out": &out}); err != nil {
		return err
	}

	var (
		pm   *pixmap.Pixmap
		page = export.Page{Title: title}
	)
	if filepath.Ext(in) == darkroom.SessionExt {
		h, _, err := e.openSession(in)
		if err != nil {
			return err
		}
		pm = h.Current()
		for _, op := range h.Applied() {
			page.Notes = append(page.Notes, ops.Format(op))
		}
	} else {
		var err error
		if pm, _, err = codec.Load(in); err != nil {
			return err
		}
	}
	if err := export.SavePDF(out, pm, page); err != nil {
		return err
	}
	e.printf("wrote %s\n", out)
	return nil
}
