package deps

import (
	"context"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentStats bounds the number of in-flight stat calls.
const maxConcurrentStats = 16

// StatFunc stats a path. os.Stat is the production implementation.
type StatFunc func(name string) (fs.FileInfo, error)

// Discover returns the session's candidates (see Candidates) that still
// exist and are not directories. Candidates are stat'ed concurrently; a path
// that fails to stat is dropped without affecting the others.
func (s *Session) Discover(ctx context.Context, watched []string, stat StatFunc) []string {
	return FilterFiles(ctx, s.Candidates(watched), stat)
}

// FilterFiles keeps the paths that stat as non-directories, preserving order.
func FilterFiles(ctx context.Context, paths []string, stat StatFunc) []string {
	if stat == nil {
		stat = os.Stat
	}

	keep := make([]bool, len(paths))

	var g errgroup.Group
	g.SetLimit(maxConcurrentStats)

	for i, p := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			info, err := stat(p)
			if err != nil {
				// Vanished between the build and now.
				return nil
			}

			keep[i] = !info.IsDir()

			return nil
		})
	}

	_ = g.Wait()

	var out []string

	for i, p := range paths {
		if keep[i] {
			out = append(out, p)
		}
	}

	return out
}
