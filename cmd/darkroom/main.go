// Command darkroom applies, records and replays non-destructive image edits.
//
// Usage:
//
//	darkroom [-config FILE] [-v] <command> [flags]
//
// Commands:
//
//	apply    -in IMG -out IMG -op SPEC...
//	macro    create|show|run|store|fetch|list|delete
//	session  save|info|render
//	export   -in IMG|SESSION -out FILE.pdf
//	ops      list the operation names accepted by -op
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/internal/config"
)

// errUsage reports a command-line mistake; the usage text has been printed.
var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("darkroom: %v", err)
	}
}

// env is the state shared by all commands.
type env struct {
	cfg    *config.Config
	p      *message.Printer
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("darkroom", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "darkroom.yaml", "configuration file")
		verbose    = fs.Bool("v", false, "log debug output")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: darkroom [-config FILE] [-v] apply|macro|session|export|ops [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if *verbose {
		level = slog.LevelDebug
	}
	darkroom.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer darkroom.SetLogger(nil)

	e := &env{
		cfg:    cfg,
		p:      newPrinter(cfg.Language),
		stdout: stdout,
		stderr: stderr,
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	rest := fs.Args()[1:]
	switch cmd := fs.Arg(0); cmd {
	case "apply":
		return e.apply(rest)
	case "macro":
		return e.macro(rest)
	case "session":
		return e.session(rest)
	case "export":
		return e.export(rest)
	case "ops":
		return e.listOps()
	default:
		fmt.Fprintf(stderr, "darkroom: unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}
}

func newPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// printf writes localized output; numbers are formatted for the configured
// language.
func (e *env) printf(format string, args ...any) {
	e.p.Fprintf(e.stdout, format, args...)
}
