package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/makewatch/internal/build"
	"github.com/hupe1980/makewatch/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		jsonOutput bool
		makeExe    string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Display the version, git commit, build date, Go version, and platform.

With --make, also report the version of the given make executable.`,
		Args: cobra.NoArgs,
		// Override parent PersistentPreRunE: version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()

			if makeExe != "" {
				info = info.WithMake(makeVersion(cmd.Context(), makeExe))
			}

			if jsonOutput {
				j, err := info.JSON()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), j)

				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())

			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output version info as JSON")
	cmd.Flags().StringVar(&makeExe, "make", "", "also report the version of this make executable")

	return cmd
}

// makeVersion returns the version of executable, or "unknown" when it cannot
// be determined.
func makeVersion(ctx context.Context, executable string) string {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	v, err := build.ProbeVersion(ctx, watchRunner(), executable)
	if err != nil {
		return "unknown"
	}

	return v.String()
}
