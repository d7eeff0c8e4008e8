// Package deps tracks the prerequisites and targets make reports during a
// single build invocation and works out which files are newly worth watching.
package deps

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hupe1980/makewatch/internal/makeout"
)

// Sink receives the free-form output of the build.
type Sink interface {
	Message(text string)
	Error(text string)
}

// Session is the mutable state of one build invocation. The stdout and stderr
// pipelines feed it concurrently.
type Session struct {
	targets []string
	sink    Sink

	mu      sync.Mutex
	prereqs map[string]struct{}
	known   map[string]struct{}
	err     string
	fatal   bool
}

// NewSession creates a session for a build of the requested targets.
func NewSession(targets []string, sink Sink) *Session {
	return &Session{
		targets: slices.Clone(targets),
		sink:    sink,
		prereqs: make(map[string]struct{}),
		known:   make(map[string]struct{}),
	}
}

// Targets returns the targets requested for this build.
func (s *Session) Targets() []string {
	return slices.Clone(s.targets)
}

// HandleStdout consumes one classified line of the build's standard output.
func (s *Session) HandleStdout(l makeout.Line) {
	switch l.Kind {
	case makeout.KindPrereqFile:
		s.mu.Lock()
		s.prereqs[filepath.Clean(l.Path)] = struct{}{}
		s.mu.Unlock()
	case makeout.KindDependency:
		s.mu.Lock()
		s.known[filepath.Clean(l.From)] = struct{}{}
		s.mu.Unlock()
	case makeout.KindMessage, makeout.KindBuildError:
		// Driver chatter on stdout ("Entering directory", "Nothing to be
		// done") is informational.
		if s.sink != nil {
			s.sink.Message(l.Text)
		}
	}
}

// HandleStderr consumes one classified line of the build's standard error.
// The last error reported wins.
func (s *Session) HandleStderr(l makeout.Line) {
	switch l.Kind {
	case makeout.KindMessage:
		if s.sink != nil {
			s.sink.Error(l.Text)
		}
	case makeout.KindTaskError:
		s.setError(fmt.Sprintf("build task exited with error %s", l.Code), false)
	case makeout.KindBuildError:
		s.setError(l.Text, true)
	case makeout.KindSyntaxError:
		// A broken makefile cannot heal by re-running.
		s.setError(fmt.Sprintf("syntax error: %s on line %d", l.Text, l.LineNo), true)
	}
}

func (s *Session) setError(msg string, fatal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = msg
	s.fatal = s.fatal || fatal
}

// Err returns the captured error message, or "" when none was reported.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Fatal reports whether an error that must stop the watch loop was captured.
func (s *Session) Fatal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fatal
}

// Prereqs returns the candidate prerequisites seen so far, sorted.
func (s *Session) Prereqs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedKeys(s.prereqs)
}

// KnownTargets returns the targets seen so far, sorted.
func (s *Session) KnownTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedKeys(s.known)
}

// Candidates returns prereqs − watched − known targets, sorted. Watched paths
// are compared after filepath.Clean.
func (s *Session) Candidates(watched []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclude := make(map[string]struct{}, len(watched)+len(s.known))
	for _, w := range watched {
		exclude[filepath.Clean(w)] = struct{}{}
	}

	for k := range s.known {
		exclude[k] = struct{}{}
	}

	var out []string

	for p := range s.prereqs {
		if _, skip := exclude[p]; !skip {
			out = append(out, p)
		}
	}

	slices.Sort(out)

	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}
