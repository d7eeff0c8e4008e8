// Package build spawns the external build tool and exposes its two output
// streams and its termination status.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// TraceFlag forces GNU make's verbose trace, which the classifier depends on.
const TraceFlag = "--debug=v"

// ColorEnv asks compilers and tools run by the build to colour their diagnostics.
var ColorEnv = []string{"FORCE_COLOR=1", "CLICOLOR_FORCE=1"}

// Spec describes one invocation of the build tool.
type Spec struct {
	Executable string
	Args       []string
	// Env is appended to the parent environment.
	Env []string
	Dir string
}

// String renders the invocation the way a user would type it.
func (s Spec) String() string {
	return strings.TrimSpace(s.Executable + " " + strings.Join(s.Args, " "))
}

// ExitStatus is how the build process terminated.
type ExitStatus struct {
	// Code is the exit code, or -1 when the process died from a signal.
	Code int
	// Signal names the terminating signal, or "" for a normal exit.
	Signal string
}

// Signaled reports whether the process was killed by a signal.
func (e ExitStatus) Signaled() bool { return e.Signal != "" }

// Process is a running build.
type Process interface {
	// Stdout and Stderr must be read to EOF before calling Wait.
	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until the process terminates. A non-nil error means the
	// status could not be determined.
	Wait() (ExitStatus, error)
}

// Runner starts build processes. A Start error is a spawn failure.
type Runner interface {
	Start(ctx context.Context, spec Spec) (Process, error)
}

// TraceArgs builds the argument list for a traced build of targets.
func TraceArgs(extra, targets []string) []string {
	args := make([]string, 0, len(extra)+len(targets)+1)
	args = append(args, TraceFlag)
	args = append(args, extra...)
	args = append(args, targets...)

	return args
}

// ExecRunner runs the build tool with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// Start implements Runner. Cancelling ctx kills the build together with the
// commands it started, where the platform supports process groups.
func (ExecRunner) Start(ctx context.Context, spec Spec) (Process, error) {
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	killGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Executable, err)
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()

	// After cancellation Wait reports the context error, but the process
	// state still says how the build ended.
	state := p.cmd.ProcessState
	if state == nil {
		return ExitStatus{}, fmt.Errorf("waiting for build: %w", err)
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}, nil
	}

	return ExitStatus{Code: state.ExitCode()}, nil
}
