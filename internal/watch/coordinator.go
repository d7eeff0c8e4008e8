package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/makewatch/internal/build"
	"github.com/hupe1980/makewatch/internal/deps"
	"github.com/hupe1980/makewatch/internal/makeout"
	"github.com/hupe1980/makewatch/internal/output"
	"github.com/hupe1980/makewatch/internal/watchset"
)

// maxLineSize bounds a single line of build output.
const maxLineSize = 1024 * 1024

// State is the coordinator's run state.
type State int

// Coordinator states.
const (
	StateIdle State = iota
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}

	return "idle"
}

// WatchSet is the part of the watch set the coordinator reads and grows.
type WatchSet interface {
	Add(paths []string, onAdded func(path string)) error
	Files() []string
}

// Reporter is the user-facing sink for run status and build output.
type Reporter interface {
	deps.Sink
	Running(text string)
	Success(text string)
	Failure(text string)
	Blank()
	Detail(s string) string
}

// Status classifies how a run ended.
type Status int

// Run outcomes.
const (
	StatusSuccess Status = iota
	StatusFailure
	StatusSpawnFailure
	// StatusInterrupted means the run was cancelled; nothing is reported.
	StatusInterrupted
)

// Outcome summarises a finished run.
type Outcome struct {
	Status Status
	// Message is the failure text; empty on success.
	Message string
	// Fatal means the watch loop must stop.
	Fatal bool
	// Added lists the files newly watched after this run.
	Added []string
	// Watching is the total number of watched files after the run.
	Watching int
}

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Runner  build.Runner
	Watched WatchSet
	Out     Reporter
	Logger  *slog.Logger
	// Stat defaults to os.Stat.
	Stat deps.StatFunc

	Make      string
	MakeFlags []string
	Targets   []string
	Env       []string
	Dir       string
}

// Coordinator runs at most one build at a time. A trigger that arrives while
// a build is running is dropped, not queued.
type Coordinator struct {
	cfg CoordinatorConfig

	mu    sync.Mutex
	state State

	fatal     chan struct{}
	fatalOnce sync.Once
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Make == "" {
		cfg.Make = "make"
	}

	return &Coordinator{cfg: cfg, fatal: make(chan struct{})}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Fatal is closed after a run ends in a condition that must stop the loop.
// The coordinator stays Running afterwards so no further build starts.
func (c *Coordinator) Fatal() <-chan struct{} { return c.fatal }

// TryRun runs one build if the coordinator is idle and reports whether it
// did. It blocks until the run is finalized.
func (c *Coordinator) TryRun(ctx context.Context) (Outcome, bool) {
	if !c.begin() {
		return Outcome{}, false
	}

	outcome := c.run(ctx)

	if outcome.Fatal {
		c.fatalOnce.Do(func() { close(c.fatal) })
	} else {
		c.end()
	}

	return outcome, true
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return false
	}

	c.state = StateRunning

	return true
}

func (c *Coordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
}

// Command returns the build invocation as shown to the user.
func (c *Coordinator) Command() string {
	parts := append([]string{c.cfg.Make}, c.cfg.MakeFlags...)
	parts = append(parts, c.cfg.Targets...)

	return strings.Join(parts, " ")
}

func (c *Coordinator) run(ctx context.Context) Outcome {
	out, logger := c.cfg.Out, c.cfg.Logger

	out.Running("running " + out.Detail(c.Command()))

	spec := build.Spec{
		Executable: c.cfg.Make,
		Args:       build.TraceArgs(c.cfg.MakeFlags, c.cfg.Targets),
		Env:        c.cfg.Env,
		Dir:        c.cfg.Dir,
	}

	logger.Debug("starting build", slog.String("command", spec.String()))

	proc, err := c.cfg.Runner.Start(ctx, spec)
	if err != nil {
		return c.finish(Outcome{Status: StatusSpawnFailure, Message: err.Error()})
	}

	session := deps.NewSession(c.cfg.Targets, out)

	// A process the build left behind can hold the pipes open after the
	// build itself is killed; closing our ends unblocks the pumps.
	stopClosing := context.AfterFunc(ctx, func() {
		closeStream(proc.Stdout())
		closeStream(proc.Stderr())
	})
	defer stopClosing()

	var g errgroup.Group
	g.Go(func() error { return pump(proc.Stdout(), session.HandleStdout) })
	g.Go(func() error { return pump(proc.Stderr(), session.HandleStderr) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Warn("reading build output", slog.String("error", err.Error()))
	}

	status, err := proc.Wait()

	if ctx.Err() != nil {
		// Shutting down: the kill was ours, not a build failure.
		logger.Debug("build interrupted", slog.String("reason", context.Cause(ctx).Error()))
		return c.finish(Outcome{Status: StatusInterrupted})
	}

	if err != nil {
		return c.finish(Outcome{Status: StatusFailure, Message: err.Error()})
	}

	logger.Debug("build finished",
		slog.Int("code", status.Code),
		slog.String("signal", status.Signal),
		slog.Int("prereqs", len(session.Prereqs())),
		slog.Int("targets", len(session.KnownTargets())),
	)

	switch {
	case status.Signaled():
		return c.finish(Outcome{
			Status:  StatusFailure,
			Message: fmt.Sprintf("%s died with signal %s", c.cfg.Make, status.Signal),
			Fatal:   true,
		})

	case status.Code == 0:
		added := c.grow(ctx, session)

		return c.finish(Outcome{Status: StatusSuccess, Added: added})

	default:
		// A failing build can still reveal real prerequisites; grow the watch
		// set before reporting, unless the failure is fatal.
		fatal := session.Fatal()

		var added []string
		if !fatal {
			added = c.grow(ctx, session)
		}

		msg := session.Err()
		if msg == "" {
			msg = fmt.Sprintf("%s exited with code %d", c.cfg.Make, status.Code)
		}

		return c.finish(Outcome{Status: StatusFailure, Message: msg, Fatal: fatal, Added: added})
	}
}

// grow registers the files the session discovered and waits until the watch
// set has acknowledged each of them.
func (c *Coordinator) grow(ctx context.Context, session *deps.Session) []string {
	before := c.cfg.Watched.Files()

	found := session.Discover(ctx, before, c.cfg.Stat)
	if len(found) == 0 {
		return nil
	}

	gate := NewGate(len(found))

	if err := c.cfg.Watched.Add(found, func(string) { gate.Ack() }); err != nil {
		// Failed registrations are never acknowledged, so the gate is not
		// waited on. Report only what the watch set took.
		c.cfg.Logger.Warn("growing watch set", slog.String("error", err.Error()))
		return accepted(found, c.cfg.Watched.Files())
	}

	if err := gate.Wait(ctx); err != nil {
		return found
	}

	if c.cfg.Logger.Enabled(ctx, slog.LevelDebug) {
		if d, err := watchset.Diff(before, c.cfg.Watched.Files()); err == nil {
			c.cfg.Logger.Debug("watch set grew", slog.Int("added", len(found)), slog.String("diff", d))
		}
	}

	return found
}

// accepted returns the paths of found that are now in watched, in order.
func accepted(found, watched []string) []string {
	set := make(map[string]struct{}, len(watched))
	for _, w := range watched {
		set[w] = struct{}{}
	}

	var out []string

	for _, f := range found {
		if _, ok := set[f]; ok {
			out = append(out, f)
		}
	}

	return out
}

// finish prints the run's status line, optional detail and separator.
func (c *Coordinator) finish(o Outcome) Outcome {
	out := c.cfg.Out
	o.Watching = len(c.cfg.Watched.Files())

	if o.Status == StatusInterrupted {
		return o
	}

	switch o.Status {
	case StatusSuccess:
		out.Success("watching " + output.Plural(o.Watching, "file"))
	case StatusSpawnFailure:
		first, rest, _ := strings.Cut(o.Message, "\n")
		out.Failure(first)

		if rest != "" {
			out.Error(rest)
		}
	default:
		out.Failure(o.Message)
	}

	out.Blank()

	return o
}

func closeStream(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

// pump classifies r line by line. On a scan error the rest of r is drained so
// the build never blocks writing to a full pipe.
func pump(r io.Reader, handle func(makeout.Line)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	for sc.Scan() {
		handle(makeout.Classify(sc.Text()))
	}

	if err := sc.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}

	return nil
}
