// Package watch re-runs sort passes when files land in the target folder.
package watch

import (
	"os"
	"sync"
	"time"

	apperr "filesorter/internal/errors"
	"filesorter/internal/log"

	"github.com/fsnotify/fsnotify"
)

// FileModification represents a file event detected by the watcher
type FileModification struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher reports files created or written in one directory. Directories
// are not watched recursively.
type Watcher struct {
	directory string
	sink      log.Sink

	// Channel to receive file modifications
	fileModChan chan FileModification

	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher

	mutex   sync.Mutex
	running bool
	stopped bool
}

// New creates a watcher for dir.
func New(dir string, sink log.Sink) (*Watcher, error) {
	if sink == nil {
		sink = log.Discard()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperr.NewFileError("cannot watch directory", dir, apperr.FileNotFound, err)
	}
	if !info.IsDir() {
		return nil, apperr.NewFileError("not a directory", dir, apperr.InvalidPath, nil)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, apperr.NewFileError("failed to watch directory", dir, apperr.FileAccessDenied, err)
	}

	return &Watcher{
		directory:   dir,
		sink:        sink.With(log.F("directory", dir)),
		fileModChan: make(chan FileModification, 64),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// Directory returns the watched directory
func (w *Watcher) Directory() string {
	return w.directory
}

// FileChannel returns the channel that delivers file modification events.
// It is closed once the watcher has stopped.
func (w *Watcher) FileChannel() <-chan FileModification {
	return w.fileModChan
}

// Start begins the event loop. A watcher can be started once.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running || w.stopped {
		return apperr.New("watcher already started")
	}
	w.running = true

	go w.loop()
	w.sink.Infof("Watching for new files")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.fileModChan)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				// gone again, or moved away by a pass
				if !os.IsNotExist(err) {
					w.sink.With(log.F("file", event.Name)).WithError(err).Warnf("Cannot stat changed file")
				}
				continue
			}
			if info.IsDir() {
				continue
			}

			mod := FileModification{Path: event.Name, Info: info, Timestamp: time.Now(), Op: event.Op}
			select {
			case w.fileModChan <- mod:
			case <-w.stopChan:
				return
			default:
				w.sink.With(log.F("file", event.Name)).Debugf("Event channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.sink.WithError(err).Errorf("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	w.stopped = true
	wasRunning := w.running
	w.running = false
	close(w.stopChan)
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		w.sink.WithError(err).Errorf("Error closing fsnotify watcher")
	}
	if wasRunning {
		<-w.done
	} else {
		close(w.fileModChan)
	}
	w.sink.Debugf("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.running
}
