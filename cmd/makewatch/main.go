// makewatch rebuilds make targets whenever the files they depend on change.
package main

import (
	"os"

	"github.com/hupe1980/makewatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
