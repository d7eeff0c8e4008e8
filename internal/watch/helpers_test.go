package watch

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/makewatch/internal/build"
)

// ---------------------------------------------------------------------------
// Fake build runner
// ---------------------------------------------------------------------------

type fakeProcess struct {
	stdout  io.Reader
	stderr  io.Reader
	status  build.ExitStatus
	release chan struct{}
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }

func (p *fakeProcess) Wait() (build.ExitStatus, error) {
	if p.release != nil {
		<-p.release
	}

	return p.status, nil
}

// scripted returns a process that prints the given lines and exits with code.
func scripted(stdout, stderr []string, status build.ExitStatus) *fakeProcess {
	return &fakeProcess{
		stdout: strings.NewReader(joinLines(stdout)),
		stderr: strings.NewReader(joinLines(stderr)),
		status: status,
	}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

type fakeRunner struct {
	mu    sync.Mutex
	specs []build.Spec
	next  func(spec build.Spec) (build.Process, error)
}

func (r *fakeRunner) Start(_ context.Context, spec build.Spec) (build.Process, error) {
	r.mu.Lock()
	r.specs = append(r.specs, spec)
	next := r.next
	r.mu.Unlock()

	return next(spec)
}

func (r *fakeRunner) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.specs)
}

func (r *fakeRunner) Spec(i int) build.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.specs[i]
}

func always(p func() *fakeProcess) func(build.Spec) (build.Process, error) {
	return func(build.Spec) (build.Process, error) { return p(), nil }
}

// ---------------------------------------------------------------------------
// Fake watch set
// ---------------------------------------------------------------------------

type fakeWatchSet struct {
	mu    sync.Mutex
	files map[string]struct{}
	adds  [][]string
	err   error

	// reject lists paths Add refuses; set together with err.
	reject map[string]bool

	// hold, when set, delays every acknowledgement until closed.
	hold chan struct{}
}

func newFakeWatchSet(initial ...string) *fakeWatchSet {
	w := &fakeWatchSet{files: make(map[string]struct{})}
	for _, f := range initial {
		w.files[f] = struct{}{}
	}

	return w
}

func (w *fakeWatchSet) Add(paths []string, onAdded func(string)) error {
	w.mu.Lock()
	w.adds = append(w.adds, slices.Clone(paths))

	var added []string

	for _, p := range paths {
		if w.reject[p] {
			continue
		}

		if _, ok := w.files[p]; !ok {
			w.files[p] = struct{}{}
			added = append(added, p)
		}
	}

	hold, err := w.hold, w.err
	w.mu.Unlock()

	if onAdded != nil {
		go func() {
			if hold != nil {
				<-hold
			}

			for _, p := range added {
				onAdded(p)
			}
		}()
	}

	return err
}

func (w *fakeWatchSet) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}

	slices.Sort(out)

	return out
}

func (w *fakeWatchSet) Adds() [][]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.adds)
}

// ---------------------------------------------------------------------------
// Recording reporter
// ---------------------------------------------------------------------------

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Running(text string)    { r.add("running: " + text) }
func (r *recorder) Success(text string)    { r.add("success: " + text) }
func (r *recorder) Failure(text string)    { r.add("failure: " + text) }
func (r *recorder) Message(text string)    { r.add("message: " + text) }
func (r *recorder) Error(text string)      { r.add("error: " + text) }
func (r *recorder) Blank()                 { r.add("") }
func (r *recorder) Detail(s string) string { return s }

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.lines)
}

// ---------------------------------------------------------------------------
// Misc
// ---------------------------------------------------------------------------

// syncBuffer is a bytes.Buffer safe for a concurrent writer and reader.
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

type fileInfo struct {
	name string
	dir  bool
}

func (f fileInfo) Name() string       { return f.name }
func (f fileInfo) Size() int64        { return 0 }
func (f fileInfo) Mode() fs.FileMode  { return 0o644 }
func (f fileInfo) ModTime() time.Time { return time.Time{} }
func (f fileInfo) IsDir() bool        { return f.dir }
func (f fileInfo) Sys() any           { return nil }

// statDirs reports the named paths as directories and everything else as files.
func statDirs(dirs ...string) func(string) (fs.FileInfo, error) {
	return func(name string) (fs.FileInfo, error) {
		return fileInfo{name: name, dir: slices.Contains(dirs, name)}, nil
	}
}
