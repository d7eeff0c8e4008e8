package watch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hupe1980/makewatch/internal/build"
	"github.com/hupe1980/makewatch/internal/deps"
	"github.com/hupe1980/makewatch/internal/output"
	"github.com/hupe1980/makewatch/internal/watchset"
)

// ErrFatal is returned by Run after a build failed in a way re-running cannot
// fix. The failure has already been reported to the user.
var ErrFatal = errors.New("fatal build failure")

// Options configures the watch loop.
type Options struct {
	// Targets are passed to every build.
	Targets []string

	// Makefile is watched from the start. Empty means DetectMakefile(".").
	Makefile string

	// Make is the build tool executable.
	Make string

	// MakeFlags are extra arguments for every build.
	MakeFlags []string

	// Debounce is the quiet period before a burst of triggers starts a build.
	Debounce time.Duration

	// Color enables styled output and asks the build to colour diagnostics.
	Color bool

	// Logger is used for structured diagnostics.
	Logger *slog.Logger

	// Out receives the user-facing run output.
	Out io.Writer

	// In supplies interactive commands; nil disables them.
	In io.Reader

	// Runner starts builds; nil means build.NewExecRunner().
	Runner build.Runner

	// Stat is used to check discovered prerequisites; nil means os.Stat.
	Stat deps.StatFunc
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Make:     "make",
		Debounce: 50 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run watches the makefile, builds once immediately, and rebuilds whenever a
// watched file changes. It returns nil when ctx is cancelled, on SIGINT or
// SIGTERM, or when the user enters "exit"; it returns ErrFatal after a fatal
// build failure.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Runner == nil {
		opts.Runner = build.NewExecRunner()
	}

	if opts.Make == "" {
		opts.Make = "make"
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}

	makefile := opts.Makefile
	if makefile == "" {
		makefile = DetectMakefile(".")
	}

	ws, err := watchset.New(opts.Logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.Add([]string{makefile}, nil); err != nil {
		return fmt.Errorf("watching makefile: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)

	printer := output.NewPrinter(opts.Out, opts.Color)

	var env []string
	if opts.Color {
		env = build.ColorEnv
	}

	coord := NewCoordinator(CoordinatorConfig{
		Runner:    opts.Runner,
		Watched:   ws,
		Out:       printer,
		Logger:    opts.Logger,
		Stat:      opts.Stat,
		Make:      opts.Make,
		MakeFlags: opts.MakeFlags,
		Targets:   opts.Targets,
		Env:       env,
	})

	debouncer := NewDebouncer(opts.Debounce, func(reason string) {
		if _, ran := coord.TryRun(sigCtx); !ran {
			opts.Logger.Debug("build in progress, trigger dropped", slog.String("trigger", reason))
		}
	})
	// Cancelling first kills a running build, so Stop does not wait for it
	// to finish on its own.
	defer func() {
		stop()
		debouncer.Stop()
	}()

	opts.Logger.Debug("watching",
		slog.String("makefile", makefile),
		slog.Int("files", ws.Len()),
		slog.String("command", coord.Command()),
		slog.Duration("debounce", opts.Debounce),
	)

	commands := readCommands(sigCtx, opts.In)

	printer.Blank()
	debouncer.Trigger("initial")

	for {
		select {
		case <-sigCtx.Done():
			return nil

		case <-coord.Fatal():
			return ErrFatal

		case path := <-ws.Changes():
			printer.Blank()
			printer.Changed("changed " + printer.Detail(path))
			debouncer.Trigger(path)

		case watchErr := <-ws.Errors():
			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))

		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}

			printer.Blank()

			if exit := dispatch(cmd, printer, ws, debouncer); exit {
				return nil
			}
		}
	}
}

// dispatch executes an interactive command and reports whether it asked to exit.
func dispatch(cmd Command, printer *output.Printer, ws *watchset.WatchSet, debouncer *Debouncer) bool {
	switch cmd {
	case CommandExit:
		return true
	case CommandRebuild:
		debouncer.Trigger("rebuild")
	case CommandFiles:
		printer.Info("Currently watched files")
		printer.Message(strings.Join(ws.Files(), "\n"))
		printer.Prompt(Prompt)
	case CommandHelp, CommandUnknown:
		printer.Info("Commands you can enter")
		printer.Message(strings.Join(CommandNames(), "\n"))
		printer.Prompt(Prompt)
	}

	return false
}

// readCommands parses lines from in until EOF. It returns a nil channel when
// in is nil.
func readCommands(ctx context.Context, in io.Reader) <-chan Command {
	if in == nil {
		return nil
	}

	ch := make(chan Command)

	go func() {
		defer close(ch)

		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- ParseCommand(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
