package cli

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/makewatch/internal/build"
)

// scriptedRunner answers `--version` with banner and every other invocation
// with the scripted output and exit code.
type scriptedRunner struct {
	banner   string
	stdout   string
	stderr   string
	code     int
	startErr error

	mu    sync.Mutex
	specs []build.Spec
}

type scriptedProcess struct {
	stdout, stderr io.Reader
	code           int
}

func (p *scriptedProcess) Stdout() io.Reader { return p.stdout }
func (p *scriptedProcess) Stderr() io.Reader { return p.stderr }

func (p *scriptedProcess) Wait() (build.ExitStatus, error) {
	return build.ExitStatus{Code: p.code}, nil
}

func (r *scriptedRunner) Start(_ context.Context, spec build.Spec) (build.Process, error) {
	r.mu.Lock()
	r.specs = append(r.specs, spec)
	r.mu.Unlock()

	if r.startErr != nil {
		return nil, r.startErr
	}

	if slices.Equal(spec.Args, []string{"--version"}) {
		banner := r.banner
		if banner == "" {
			banner = "GNU Make 4.3"
		}

		return &scriptedProcess{stdout: strings.NewReader(banner + "\n"), stderr: strings.NewReader("")}, nil
	}

	return &scriptedProcess{
		stdout: strings.NewReader(r.stdout),
		stderr: strings.NewReader(r.stderr),
		code:   r.code,
	}, nil
}

// builds returns the recorded invocations other than version probes.
func (r *scriptedRunner) builds() []build.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []build.Spec

	for _, s := range r.specs {
		if !slices.Equal(s.Args, []string{"--version"}) {
			out = append(out, s)
		}
	}

	return out
}

// stubRunner makes the commands start builds through r for the rest of the test.
func stubRunner(t *testing.T, r build.Runner) {
	t.Helper()

	prev := watchRunner
	watchRunner = func() build.Runner { return r }

	t.Cleanup(func() { watchRunner = prev })
}

// syncBuffer is a bytes.Buffer safe for the concurrent writers of a watch run.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
