package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/makewatch/internal/config"
)

// registerBuildFlags adds the flags that shape every make invocation. Values
// reach the command through config.Load, so they share precedence with the
// environment and the config file.
func registerBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("make", config.DefaultMake, "make executable to run")
	f.String("makefile", "", "makefile to watch from the start (default: auto-detect)")
	f.StringArray("make-flag", nil, "extra argument passed to make as is, repeatable")
	f.Duration("debounce", config.DefaultDebounce, "quiet period before a burst of changes starts a build")
}
