// buildchain links mentions of other jobs' builds in console logs.
//
// Usage:
//
//	buildchain annotate -j upstream -j deploy console.log > console.html
//	cat console.log | buildchain annotate --jobs-file jobs.yaml --format terminal
//	buildchain follow --jenkins-home /var/lib/jenkins --build main#42
//
// Output formats:
//
//	html      console markup inside <pre> (default when piped)
//	terminal  styled output with OSC 8 hyperlinks (default when TTY)
//	json      one object per linked line
//	plain     original lines with link targets appended
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// kongExit carries an exit code requested by kong (e.g. after --help).
type kongExit int

// run parses args and executes the selected command, returning the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			exit, ok := r.(kongExit)
			if !ok {
				panic(r)
			}
			code = int(exit)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("buildchain"),
		kong.Description("Link job-name mentions in build logs to the referenced builds' consoles."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(kongExit(code)) }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "buildchain: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "buildchain: %v\n", err)
		return 2
	}

	app := &App{
		ctx:     ctx,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		globals: &cli,
	}
	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(stderr, "buildchain: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks errors caused by bad flags, config, or input (exit code 2).
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveFormat maps "auto" to terminal for TTYs and html otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	if isTTYWriter(w) {
		return "terminal"
	}
	return "html"
}
