//go:build !unix

package build

import "os/exec"

// killGroup keeps the default cancellation, which kills only the build tool.
func killGroup(*exec.Cmd) {}
