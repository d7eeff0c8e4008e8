package build

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/makewatch/internal/makeout"
)

// ProbeVersion runs `<executable> --version` and parses its banner.
func ProbeVersion(ctx context.Context, r Runner, executable string) (*semver.Version, error) {
	proc, err := r.Start(ctx, Spec{Executable: executable, Args: []string{"--version"}})
	if err != nil {
		return nil, err
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = io.Copy(io.Discard, proc.Stderr())
	}()

	var banner string

	sc := bufio.NewScanner(proc.Stdout())
	if sc.Scan() {
		banner = sc.Text()
	}

	_, _ = io.Copy(io.Discard, proc.Stdout())
	<-drained

	status, err := proc.Wait()
	if err != nil {
		return nil, err
	}

	if status.Code != 0 {
		return nil, fmt.Errorf("%s --version exited with code %d", executable, status.Code)
	}

	return makeout.ParseVersion(banner)
}
