package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hupe1980/makewatch/internal/build"
	"github.com/hupe1980/makewatch/internal/config"
	"github.com/hupe1980/makewatch/internal/logging"
	"github.com/hupe1980/makewatch/internal/makeout"
	"github.com/hupe1980/makewatch/internal/watch"
)

// probeTimeout bounds the `make --version` probe.
const probeTimeout = 5 * time.Second

// watchRunner starts the build tool; tests replace it.
var watchRunner = func() build.Runner { return build.NewExecRunner() }

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Build targets and rebuild whenever a prerequisite changes",
		Long: `Watch runs make with its verbose trace enabled and watches every
existing file make reports as a prerequisite of the requested targets,
plus the makefile itself. A change to any watched file starts another
build after a short quiet period.

While watching, enter one of these commands on stdin:

  help     list the commands
  rebuild  start a build now
  files    list the watched files
  exit     stop watching

A broken makefile or a fatal make error stops the watch with exit code 1.`,
		Example: `  makewatch watch
  makewatch watch test --make-flag=-j8
  makewatch watch --makefile build.mk --debounce 200ms all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args)
		},
	}

	registerBuildFlags(cmd)

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, targets []string) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)
	runner := watchRunner()

	probeMake(ctx, runner, cfg.Make, logging.Component(logger, "probe"))

	opts := watch.DefaultOptions()
	opts.Targets = targets
	opts.Make = cfg.Make
	opts.Makefile = cfg.Makefile
	opts.MakeFlags = makeFlags(cfg)
	opts.Debounce = cfg.Debounce
	opts.Color = useColor(cfg, cmd.ErrOrStderr())
	opts.Logger = logging.Component(logger, "watch")
	opts.Out = cmd.ErrOrStderr()
	opts.In = cmd.InOrStdin()
	opts.Runner = runner

	err := watch.Run(ctx, opts)
	if errors.Is(err, watch.ErrFatal) {
		// Already reported by the watch loop.
		return &ExitError{Code: 1}
	}

	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}

// makeFlags returns the configured make flags, pointing make at an explicitly
// configured makefile unless the flags already name one.
func makeFlags(cfg *config.Config) []string {
	flags := slices.Clone(cfg.MakeFlags)

	if cfg.Makefile == "" || slices.ContainsFunc(flags, namesMakefile) {
		return flags
	}

	return append(flags, "-f", cfg.Makefile)
}

// shortWithValue lists make's short options that consume the rest of a
// bundled argument.
const shortWithValue = "CEIjlLoW"

// namesMakefile reports whether arg selects a makefile: "-f x", "-fx",
// "-kf x", "--file[=x]" or "--makefile[=x]".
func namesMakefile(arg string) bool {
	for _, long := range []string{"--file", "--makefile"} {
		if arg == long || strings.HasPrefix(arg, long+"=") {
			return true
		}
	}

	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}

	for _, r := range arg[1:] {
		if r == 'f' {
			return true
		}

		if strings.ContainsRune(shortWithValue, r) {
			return false
		}
	}

	return false
}

// probeMake warns when the build tool is missing or too old for the trace
// classifier. It never fails the command.
func probeMake(ctx context.Context, runner build.Runner, executable string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	v, err := build.ProbeVersion(ctx, runner, executable)
	if err != nil {
		logger.Warn("could not determine make version", slog.String("make", executable), slog.String("error", err.Error()))
		return
	}

	if !makeout.SupportsTrace(v) {
		logger.Warn("make is older than the oldest supported version; dependencies may go undetected",
			slog.String("version", v.String()),
			slog.String("minimum", makeout.MinTraceVersion.String()),
		)

		return
	}

	logger.Debug("make version", slog.String("version", v.String()))
}

// useColor reports whether w is a terminal that should receive styled output.
func useColor(cfg *config.Config, w io.Writer) bool {
	if cfg.NoColor {
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
