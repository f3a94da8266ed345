package watch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filesorter/internal/config"
	apperr "filesorter/internal/errors"
	"filesorter/internal/log"
	"filesorter/internal/organize"
	"filesorter/pkg/types"
)

// DefaultDebounce is how long the folder must stay quiet before a pass runs.
const DefaultDebounce = 2 * time.Second

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running      bool      // Whether the daemon is currently active
	Directory    string    // Directory being watched
	LastActivity time.Time // Time of last file activity
	Passes       int       // Sort passes run so far
	FilesMoved   int       // Total files moved
	LastError    error     // Error of the most recent pass, if any
}

// Daemon runs a sort pass whenever new files settle in the target folder.
// Passes run one at a time on the daemon's goroutine.
type Daemon struct {
	settings *config.Settings
	sink     log.Sink
	runner   organize.Runner

	debounce    time.Duration
	initialPass bool
	callback    func(*types.Report, error)

	mutex  sync.RWMutex
	status DaemonStatus
}

// Option configures a Daemon
type Option func(*Daemon)

// WithDebounce sets the quiet period before a pass
func WithDebounce(d time.Duration) Option {
	return func(dm *Daemon) { dm.debounce = d }
}

// WithInitialPass sorts the folder once before waiting for events
func WithInitialPass(enabled bool) Option {
	return func(dm *Daemon) { dm.initialPass = enabled }
}

// WithRunner replaces the sort pass runner
func WithRunner(r organize.Runner) Option {
	return func(dm *Daemon) { dm.runner = r }
}

// WithCallback is called after every pass
func WithCallback(cb func(*types.Report, error)) Option {
	return func(dm *Daemon) { dm.callback = cb }
}

// NewDaemon creates a daemon watching settings.TargetFolder.
func NewDaemon(settings *config.Settings, sink log.Sink, opts ...Option) *Daemon {
	if sink == nil {
		sink = log.Discard()
	}
	d := &Daemon{
		settings:    settings,
		sink:        sink,
		debounce:    DefaultDebounce,
		initialPass: true,
		status:      DaemonStatus{Directory: settings.TargetFolder},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner == nil {
		d.runner = organize.NewSorter(settings, sink)
	}
	return d
}

// Run watches until ctx is cancelled. It returns an error only when the
// watcher cannot be set up or fails; failed passes are logged and the
// daemon keeps watching.
func (d *Daemon) Run(ctx context.Context) error {
	w, err := New(d.settings.TargetFolder, d.sink)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}
	defer w.Stop()

	d.setRunning(true)
	defer d.setRunning(false)

	if d.initialPass {
		d.runPass(ctx)
	}

	timer := time.NewTimer(d.debounce)
	timer.Stop()
	defer timer.Stop()

	events := w.FileChannel()
	for {
		select {
		case <-ctx.Done():
			d.sink.Infof("Stopping watch on %s", d.settings.TargetFolder)
			return nil

		case mod, ok := <-events:
			if !ok {
				return apperr.New("file watcher stopped unexpectedly")
			}
			if d.settings.SkipHidden && strings.HasPrefix(filepath.Base(mod.Path), ".") {
				continue
			}
			d.sink.With(log.F("file", filepath.Base(mod.Path))).Debugf("Detected %s", mod.Op)
			d.mutex.Lock()
			d.status.LastActivity = mod.Timestamp
			d.mutex.Unlock()
			timer.Reset(d.debounce)

		case <-timer.C:
			d.runPass(ctx)
		}
	}
}

func (d *Daemon) runPass(ctx context.Context) {
	report, err := d.runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		d.sink.WithError(err).Errorf("Sort pass failed")
	}

	d.mutex.Lock()
	d.status.Passes++
	d.status.LastError = err
	if report != nil {
		d.status.FilesMoved += report.Moved()
	}
	cb := d.callback
	d.mutex.Unlock()

	if cb != nil {
		cb(report, err)
	}
}

func (d *Daemon) setRunning(running bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.status.Running = running
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.status
}
