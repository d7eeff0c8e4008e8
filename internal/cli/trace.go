package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/makewatch/internal/makeout"
	"github.com/hupe1980/makewatch/internal/output"
)

type traceOptions struct {
	format string
	stream string
	all    bool
}

func newTraceCommand() *cobra.Command {
	opts := &traceOptions{}

	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Classify a saved make trace",
		Long: `Trace reads the output of "make --debug=v" from a file, or from stdin
when no file is given, and prints how each line is classified. Empty and
boilerplate lines are skipped unless --all is set.

Use it to check what makewatch would learn from a given make version.`,
		Example: `  make --debug=v all > trace.txt; makewatch trace trace.txt
  make --debug=v all 2>/dev/null | makewatch trace --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "o", output.FormatText, "output format: "+strings.Join(output.Formats(), ", "))
	f.StringVar(&opts.stream, "stream", "", "label records with the stream the trace came from: stdout, stderr")
	f.BoolVar(&opts.all, "all", false, "include empty and boilerplate lines")

	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(output.Formats()...))
	_ = cmd.RegisterFlagCompletionFunc("stream", fixedCompletion("stdout", "stderr"))

	return cmd
}

func runTrace(cmd *cobra.Command, args []string, opts *traceOptions) error {
	enc, err := output.EncoderFor(opts.format)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	switch opts.stream {
	case "", "stdout", "stderr":
	default:
		return &ExitError{Code: 2, Err: fmt.Errorf("unknown stream %q: expected stdout, stderr", opts.stream)}
	}

	in := cmd.InOrStdin()

	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return &ExitError{Code: 1, Err: fmt.Errorf("opening trace: %w", err)}
		}
		defer f.Close()

		in = f
	}

	records, err := classifyTrace(in, opts.stream, opts.all)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if err := enc(cmd.OutOrStdout(), records); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}

// classifyTrace classifies r line by line. Line numbers are 1-based.
func classifyTrace(r io.Reader, stream string, all bool) ([]output.TraceRecord, error) {
	var records []output.TraceRecord

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for sc.Scan() {
		n++

		l := makeout.Classify(sc.Text())
		if !all && (l.Kind == makeout.KindEmpty || l.Kind == makeout.KindIgnored) {
			continue
		}

		records = append(records, output.TraceRecord{Stream: stream, Number: n, Line: l})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}

	return records, nil
}
