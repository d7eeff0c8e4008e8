// Package watchset maintains the growing set of files whose changes should
// trigger a rebuild.
//
// Files are tracked per directory: fsnotify watches each parent directory once
// and events are filtered down to the tracked names. Watching the directory
// rather than the file keeps a file tracked across editors that save by
// writing a temporary file and renaming it into place.
package watchset

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WatchSet is an append-only set of watched files.
type WatchSet struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu   sync.Mutex
	dirs map[string]map[string]struct{}

	changes chan string
	errors  chan error
	done    chan struct{}
	once    sync.Once
}

// New creates an empty WatchSet and starts its event loop.
func New(logger *slog.Logger) (*WatchSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	ws := &WatchSet{
		fsw:     fsw,
		logger:  logger,
		dirs:    make(map[string]map[string]struct{}),
		changes: make(chan string, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}

	go ws.run()

	return ws, nil
}

// Add starts tracking paths. Paths already tracked are skipped. onAdded, when
// non-nil, is called asynchronously once for every newly tracked path. Paths
// whose directory cannot be watched are not tracked; their errors are joined
// into the returned error.
func (ws *WatchSet) Add(paths []string, onAdded func(path string)) error {
	var (
		added []string
		errs  []error
	)

	ws.mu.Lock()

	for _, p := range paths {
		p = filepath.Clean(p)
		dir, name := filepath.Dir(p), filepath.Base(p)

		names, watching := ws.dirs[dir]
		if watching {
			if _, ok := names[name]; ok {
				continue
			}
		} else {
			if err := ws.fsw.Add(dir); err != nil {
				errs = append(errs, fmt.Errorf("watching %q: %w", dir, err))
				continue
			}

			names = make(map[string]struct{})
			ws.dirs[dir] = names
		}

		names[name] = struct{}{}
		added = append(added, p)
	}

	ws.mu.Unlock()

	if onAdded != nil && len(added) > 0 {
		go func() {
			for _, p := range added {
				onAdded(p)
			}
		}()
	}

	return errors.Join(errs...)
}

// Watched returns a snapshot of the set: directory → sorted file names.
func (ws *WatchSet) Watched() map[string][]string {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	out := make(map[string][]string, len(ws.dirs))

	for dir, names := range ws.dirs {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}

		slices.Sort(list)
		out[dir] = list
	}

	return out
}

// Files returns every watched path, sorted.
func (ws *WatchSet) Files() []string {
	return Flatten(ws.Watched())
}

// Len returns the number of watched files.
func (ws *WatchSet) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	n := 0
	for _, names := range ws.dirs {
		n += len(names)
	}

	return n
}

// Changes delivers the path of each tracked file that changed.
func (ws *WatchSet) Changes() <-chan string { return ws.changes }

// Errors delivers errors reported by the underlying watcher.
func (ws *WatchSet) Errors() <-chan error { return ws.errors }

// Close stops the event loop and releases the watcher.
func (ws *WatchSet) Close() error {
	var err error

	ws.once.Do(func() {
		close(ws.done)
		err = ws.fsw.Close()
	})

	return err
}

// Flatten joins a directory → names mapping into sorted paths.
func Flatten(watched map[string][]string) []string {
	var out []string

	for dir, names := range watched {
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
	}

	slices.Sort(out)

	return out
}

func (ws *WatchSet) run() {
	for {
		select {
		case <-ws.done:
			return

		case event, ok := <-ws.fsw.Events:
			if !ok {
				return
			}

			if !isRelevant(event) || !ws.tracked(event.Name) {
				continue
			}

			select {
			case ws.changes <- filepath.Clean(event.Name):
			case <-ws.done:
				return
			}

		case err, ok := <-ws.fsw.Errors:
			if !ok {
				return
			}

			select {
			case ws.errors <- err:
			default:
				ws.logger.Warn("dropping watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

func (ws *WatchSet) tracked(path string) bool {
	path = filepath.Clean(path)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	names, ok := ws.dirs[filepath.Dir(path)]
	if !ok {
		return false
	}

	_, ok = names[filepath.Base(path)]

	return ok
}

// isRelevant keeps content-changing events and drops chmod-only noise.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
