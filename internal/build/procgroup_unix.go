//go:build unix

package build

import (
	"os/exec"
	"syscall"
)

// killGroup runs the build in its own process group and makes cancellation
// kill the whole group, so recipe commands die with make and release the
// output pipes.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
